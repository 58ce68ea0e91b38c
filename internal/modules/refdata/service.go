package refdata

import (
	"fmt"

	"github.com/bidfoundry/quotient/internal/domain"
	"github.com/bidfoundry/quotient/internal/events"
	"github.com/rs/zerolog"
)

// Service coordinates reference data: seeding, snapshot lifecycle and
// table mutations. Every mutation rebuilds the snapshot so the next bid
// computation sees the new tables; in-flight computations keep the
// pointer they started with.
type Service struct {
	provider      *SnapshotProvider
	seeder        *Seeder
	productRepo   *ProductRepository
	materialRepo  *MaterialRepository
	referenceRepo *ReferenceRepository
	historyDB     *RateHistoryDB
	watcher       *RateWatcher
	eventManager  *events.Manager
	log           zerolog.Logger
}

// NewService creates a new reference data service
func NewService(
	provider *SnapshotProvider,
	seeder *Seeder,
	productRepo *ProductRepository,
	materialRepo *MaterialRepository,
	referenceRepo *ReferenceRepository,
	historyDB *RateHistoryDB,
	watcher *RateWatcher,
	eventManager *events.Manager,
	log zerolog.Logger,
) *Service {
	return &Service{
		provider:      provider,
		seeder:        seeder,
		productRepo:   productRepo,
		materialRepo:  materialRepo,
		referenceRepo: referenceRepo,
		historyDB:     historyDB,
		watcher:       watcher,
		eventManager:  eventManager,
		log:           log.With().Str("service", "refdata").Logger(),
	}
}

// Boot primes the snapshot at startup: seeds empty tables, then builds
// the first snapshot. If the reference tables cannot be read the last
// persisted snapshot is restored so pricing stays available.
func (s *Service) Boot() error {
	seeded, err := s.seeder.SeedIfEmpty()
	if err != nil {
		return fmt.Errorf("failed to seed reference tables: %w", err)
	}
	if seeded {
		s.log.Info().Msg("Seeded empty reference tables")
	}

	if _, err := s.Reload("boot"); err != nil {
		s.log.Error().Err(err).Msg("Snapshot build failed at boot, trying cache")
		if restoreErr := s.provider.RestoreFromCache(); restoreErr != nil {
			return fmt.Errorf("snapshot build failed and no cache available: %w", err)
		}
	}

	return nil
}

// Snapshot returns the active reference snapshot.
func (s *Service) Snapshot() (*Snapshot, error) {
	return s.provider.Current()
}

// Version returns the active snapshot version.
func (s *Service) Version() int64 {
	return s.provider.Version()
}

// Reload rebuilds the snapshot from the reference tables and announces
// the new version.
func (s *Service) Reload(triggeredBy string) (ReloadReport, error) {
	report, err := s.provider.Reload()
	if err != nil {
		return ReloadReport{}, err
	}

	if s.eventManager != nil {
		s.eventManager.EmitTyped(events.SnapshotReloaded, "refdata", &events.SnapshotReloadedData{
			Version:     report.Version,
			Products:    report.Products,
			Materials:   report.Materials,
			Zones:       report.Zones,
			TriggeredBy: triggeredBy,
		})
	}

	return report, nil
}

// UpsertProduct writes a product and rebuilds the snapshot.
func (s *Service) UpsertProduct(product domain.Product) error {
	if err := s.productRepo.Upsert(product); err != nil {
		return err
	}
	_, err := s.Reload("product_upsert")
	return err
}

// DeleteProduct removes a product and rebuilds the snapshot.
func (s *Service) DeleteProduct(sku string) error {
	if err := s.productRepo.Delete(sku); err != nil {
		return err
	}
	_, err := s.Reload("product_delete")
	return err
}

// UpsertMaterial writes a material and rebuilds the snapshot.
func (s *Service) UpsertMaterial(material domain.Material) error {
	if err := s.materialRepo.Upsert(material); err != nil {
		return err
	}
	_, err := s.Reload("material_upsert")
	return err
}

// SetMaterialRate updates a material rate, records history and rebuilds
// the snapshot.
func (s *Service) SetMaterialRate(id string, ratePerKg float64) error {
	prevRate, err := s.materialRepo.SetRate(id, ratePerKg)
	if err != nil {
		return err
	}

	if s.eventManager != nil {
		s.eventManager.EmitTyped(events.RateUpdated, "refdata", &events.RateUpdatedData{
			MaterialID:    id,
			RatePerKg:     ratePerKg,
			PrevRatePerKg: prevRate,
		})
	}

	_, err = s.Reload("rate_update")
	return err
}

// UpsertTestCost writes a test cost row and rebuilds the snapshot.
func (s *Service) UpsertTestCost(tc domain.TestCost) error {
	if err := s.referenceRepo.UpsertTestCost(tc); err != nil {
		return err
	}
	_, err := s.Reload("test_cost_upsert")
	return err
}

// UpsertZone writes a logistics zone and rebuilds the snapshot.
func (s *Service) UpsertZone(zone domain.LogisticsZone) error {
	if err := s.referenceRepo.UpsertZone(zone); err != nil {
		return err
	}
	_, err := s.Reload("zone_upsert")
	return err
}

// DeleteZone removes a logistics zone and rebuilds the snapshot.
func (s *Service) DeleteZone(keyword string) error {
	if err := s.referenceRepo.DeleteZone(keyword); err != nil {
		return err
	}
	_, err := s.Reload("zone_delete")
	return err
}

// UpsertCompetitor writes a competitor profile and rebuilds the snapshot.
func (s *Service) UpsertCompetitor(c domain.Competitor) error {
	if err := s.referenceRepo.UpsertCompetitor(c); err != nil {
		return err
	}
	_, err := s.Reload("competitor_upsert")
	return err
}

// UpsertClient writes a client profile and rebuilds the snapshot.
func (s *Service) UpsertClient(c domain.Client) error {
	if err := s.referenceRepo.UpsertClient(c); err != nil {
		return err
	}
	_, err := s.Reload("client_upsert")
	return err
}

// UpsertUtilization writes a utilization row and rebuilds the snapshot.
func (s *Service) UpsertUtilization(u domain.Utilization) error {
	if err := s.referenceRepo.UpsertUtilization(u); err != nil {
		return err
	}
	_, err := s.Reload("utilization_upsert")
	return err
}

// RateHistory returns recent rate observations for a material.
func (s *Service) RateHistory(materialID string, days int) ([]RateHistoryEntry, error) {
	return s.historyDB.GetRecentRates(materialID, days)
}

// VolatilityReport returns the read-only rate-watch view.
func (s *Service) VolatilityReport() (*VolatilityReport, error) {
	return s.watcher.Report()
}

// ScanVolatility runs the rate watcher. When any material was
// reclassified the snapshot is rebuilt so hedging reflects the new
// classification.
func (s *Service) ScanVolatility() ([]RateAlertItem, error) {
	alerts, reclassified, err := s.watcher.Scan()
	if err != nil {
		return nil, err
	}

	if reclassified {
		if _, err := s.Reload("volatility_scan"); err != nil {
			return alerts, err
		}
	}

	return alerts, nil
}
