package reliability

import (
	"context"
	"sort"

	"github.com/bidfoundry/quotient/internal/database"
	"github.com/rs/zerolog"
)

// DatabaseHealthService reports per-database health for the /health
// endpoint and the system API.
type DatabaseHealthService struct {
	databases map[string]*database.DB
	log       zerolog.Logger
}

// DatabaseHealth is the health report for a single database
type DatabaseHealth struct {
	Name          string `json:"name"`
	Healthy       bool   `json:"healthy"`
	Error         string `json:"error,omitempty"`
	SizeBytes     int64  `json:"size_bytes"`
	WALSizeBytes  int64  `json:"wal_size_bytes"`
	PageCount     int64  `json:"page_count"`
	FreelistPages int64  `json:"freelist_pages"`
}

// NewDatabaseHealthService creates a new database health service
func NewDatabaseHealthService(databases map[string]*database.DB, log zerolog.Logger) *DatabaseHealthService {
	return &DatabaseHealthService{
		databases: databases,
		log:       log.With().Str("service", "health").Logger(),
	}
}

// Check reports health for a single database. Ping only; the expensive
// integrity check belongs to the nightly maintenance pass.
func (s *DatabaseHealthService) Check(ctx context.Context, name string) DatabaseHealth {
	report := DatabaseHealth{Name: name}

	db, ok := s.databases[name]
	if !ok {
		report.Error = "unknown database"
		return report
	}

	if err := db.QuickCheck(ctx); err != nil {
		s.log.Warn().Err(err).Str("database", name).Msg("Database ping failed")
		report.Error = err.Error()
		return report
	}
	report.Healthy = true

	if stats, err := db.GetStats(); err == nil {
		report.SizeBytes = stats.SizeBytes
		report.WALSizeBytes = stats.WALSizeBytes
		report.PageCount = stats.PageCount
		report.FreelistPages = stats.FreelistCount
	}

	return report
}

// CheckAll reports health for every database in stable order
func (s *DatabaseHealthService) CheckAll(ctx context.Context) []DatabaseHealth {
	names := make([]string, 0, len(s.databases))
	for name := range s.databases {
		names = append(names, name)
	}
	sort.Strings(names)

	reports := make([]DatabaseHealth, 0, len(names))
	for _, name := range names {
		reports = append(reports, s.Check(ctx, name))
	}
	return reports
}

// AllHealthy reports whether every database passed its last check
func (s *DatabaseHealthService) AllHealthy(ctx context.Context) bool {
	for _, report := range s.CheckAll(ctx) {
		if !report.Healthy {
			return false
		}
	}
	return true
}
