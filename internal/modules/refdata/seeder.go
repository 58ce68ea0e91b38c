package refdata

import (
	"encoding/json"
	"fmt"

	"github.com/bidfoundry/quotient/internal/domain"
	"github.com/bidfoundry/quotient/pkg/embedded"
	"github.com/rs/zerolog"
)

// Seeder populates empty reference tables from the embedded seed data.
// A fresh deployment gets a working catalogue without manual imports;
// tables that already hold rows are never touched.
type Seeder struct {
	productRepo   *ProductRepository
	materialRepo  *MaterialRepository
	referenceRepo *ReferenceRepository
	log           zerolog.Logger
}

// NewSeeder creates a new reference data seeder
func NewSeeder(
	productRepo *ProductRepository,
	materialRepo *MaterialRepository,
	referenceRepo *ReferenceRepository,
	log zerolog.Logger,
) *Seeder {
	return &Seeder{
		productRepo:   productRepo,
		materialRepo:  materialRepo,
		referenceRepo: referenceRepo,
		log:           log.With().Str("component", "refdata_seeder").Logger(),
	}
}

// SeedIfEmpty loads the embedded seed set when the catalogue is empty.
// Returns true when seeding ran.
func (s *Seeder) SeedIfEmpty() (bool, error) {
	count, err := s.productRepo.Count()
	if err != nil {
		return false, fmt.Errorf("failed to check product count: %w", err)
	}
	if count > 0 {
		s.log.Debug().Int("products", count).Msg("Reference tables already populated, skipping seed")
		return false, nil
	}

	if err := s.seedMaterials(); err != nil {
		return false, err
	}
	if err := s.seedProducts(); err != nil {
		return false, err
	}
	if err := s.seedTestCosts(); err != nil {
		return false, err
	}
	if err := s.seedZones(); err != nil {
		return false, err
	}
	if err := s.seedCompetitors(); err != nil {
		return false, err
	}
	if err := s.seedClients(); err != nil {
		return false, err
	}
	if err := s.seedUtilization(); err != nil {
		return false, err
	}

	s.log.Info().Msg("Reference tables seeded from embedded data")
	return true, nil
}

func (s *Seeder) seedMaterials() error {
	var materials []domain.Material
	if err := s.loadSeed("materials.json", &materials); err != nil {
		return err
	}
	for _, m := range materials {
		if err := s.materialRepo.Upsert(m); err != nil {
			return fmt.Errorf("failed to seed material %s: %w", m.ID, err)
		}
	}
	return nil
}

func (s *Seeder) seedProducts() error {
	var products []domain.Product
	if err := s.loadSeed("products.json", &products); err != nil {
		return err
	}
	for _, p := range products {
		if err := s.productRepo.Upsert(p); err != nil {
			return fmt.Errorf("failed to seed product %s: %w", p.SKU, err)
		}
	}
	return nil
}

func (s *Seeder) seedTestCosts() error {
	var costs []domain.TestCost
	if err := s.loadSeed("test_costs.json", &costs); err != nil {
		return err
	}
	for _, tc := range costs {
		if err := s.referenceRepo.UpsertTestCost(tc); err != nil {
			return fmt.Errorf("failed to seed test cost %s: %w", tc.VoltageClass, err)
		}
	}
	return nil
}

func (s *Seeder) seedZones() error {
	var zones []domain.LogisticsZone
	if err := s.loadSeed("logistics_zones.json", &zones); err != nil {
		return err
	}
	for _, z := range zones {
		if err := s.referenceRepo.UpsertZone(z); err != nil {
			return fmt.Errorf("failed to seed logistics zone %s: %w", z.Keyword, err)
		}
	}
	return nil
}

func (s *Seeder) seedCompetitors() error {
	var competitors []domain.Competitor
	if err := s.loadSeed("competitors.json", &competitors); err != nil {
		return err
	}
	for _, c := range competitors {
		if err := s.referenceRepo.UpsertCompetitor(c); err != nil {
			return fmt.Errorf("failed to seed competitor %s: %w", c.ID, err)
		}
	}
	return nil
}

func (s *Seeder) seedClients() error {
	var clients []domain.Client
	if err := s.loadSeed("clients.json", &clients); err != nil {
		return err
	}
	for _, c := range clients {
		if err := s.referenceRepo.UpsertClient(c); err != nil {
			return fmt.Errorf("failed to seed client %s: %w", c.ID, err)
		}
	}
	return nil
}

func (s *Seeder) seedUtilization() error {
	var entries []domain.Utilization
	if err := s.loadSeed("factory_utilization.json", &entries); err != nil {
		return err
	}
	for _, u := range entries {
		if err := s.referenceRepo.UpsertUtilization(u); err != nil {
			return fmt.Errorf("failed to seed utilization %s: %w", u.Category, err)
		}
	}
	return nil
}

// loadSeed reads and decodes one embedded seed file.
func (s *Seeder) loadSeed(name string, v interface{}) error {
	data, err := embedded.Files.ReadFile("seeds/" + name)
	if err != nil {
		return fmt.Errorf("failed to read seed %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode seed %s: %w", name, err)
	}
	return nil
}
