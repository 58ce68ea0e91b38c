package reliability

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/bidfoundry/quotient/internal/database"
	"github.com/rs/zerolog"
)

// MaintenanceService runs the nightly per-database maintenance pass:
// WAL checkpoint, integrity check and VACUUM.
type MaintenanceService struct {
	databases map[string]*database.DB
	log       zerolog.Logger
}

// NewMaintenanceService creates a new maintenance service
func NewMaintenanceService(databases map[string]*database.DB, log zerolog.Logger) *MaintenanceService {
	return &MaintenanceService{
		databases: databases,
		log:       log.With().Str("service", "maintenance").Logger(),
	}
}

// DatabaseNames returns the managed database names in stable order
func (s *MaintenanceService) DatabaseNames() []string {
	names := make([]string, 0, len(s.databases))
	for name := range s.databases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Maintain runs the maintenance pass for a single database
func (s *MaintenanceService) Maintain(ctx context.Context, name string) error {
	db, ok := s.databases[name]
	if !ok {
		return fmt.Errorf("unknown database: %s", name)
	}

	s.log.Debug().Str("database", name).Msg("Starting maintenance")
	startTime := time.Now()

	// Checkpoint first so VACUUM works against a quiet WAL
	if err := db.WALCheckpoint("TRUNCATE"); err != nil {
		s.log.Warn().Err(err).Str("database", name).Msg("WAL checkpoint failed")
	}

	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("integrity check failed for %s: %w", name, err)
	}

	// The audit ledger is append-only; VACUUM would rewrite the whole file
	// for no reclaimable space
	if db.Profile() != database.ProfileLedger {
		if err := db.Vacuum(); err != nil {
			return fmt.Errorf("vacuum failed for %s: %w", name, err)
		}
	}

	if stats, err := db.GetStats(); err == nil {
		s.log.Info().
			Str("database", name).
			Int64("size_bytes", stats.SizeBytes).
			Int64("wal_size_bytes", stats.WALSizeBytes).
			Int64("freelist_pages", stats.FreelistCount).
			Dur("duration_ms", time.Since(startTime)).
			Msg("Maintenance completed")
	} else {
		s.log.Warn().Err(err).Str("database", name).Msg("Failed to collect database stats")
	}

	return nil
}
