// Package di provides dependency injection for database connections.
package di

import (
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/bidfoundry/quotient/internal/config"
	"github.com/bidfoundry/quotient/internal/database"
	"github.com/rs/zerolog"
)

// InitializeDatabases initializes all 5 databases and applies schemas
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	// 1. refdata.db - Reference tables (catalogue, materials, zones, competitors, clients)
	refdataDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "refdata.db"),
		Profile: database.ProfileStandard,
		Name:    "refdata",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize refdata database: %w", err)
	}
	container.RefdataDB = refdataDB

	// 2. tenders.db - Tender store (tenders, line items, priority ranks)
	tendersDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "tenders.db"),
		Profile: database.ProfileStandard,
		Name:    "tenders",
	})
	if err != nil {
		refdataDB.Close()
		return nil, fmt.Errorf("failed to initialize tenders database: %w", err)
	}
	container.TendersDB = tendersDB

	// 3. audit.db - Immutable bid audit trail
	auditDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "audit.db"),
		Profile: database.ProfileLedger, // Maximum safety for the append-only trail
		Name:    "audit",
	})
	if err != nil {
		refdataDB.Close()
		tendersDB.Close()
		return nil, fmt.Errorf("failed to initialize audit database: %w", err)
	}
	container.AuditDB = auditDB

	// 4. config.db - Application settings
	configDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "config.db"),
		Profile: database.ProfileStandard,
		Name:    "config",
	})
	if err != nil {
		refdataDB.Close()
		tendersDB.Close()
		auditDB.Close()
		return nil, fmt.Errorf("failed to initialize config database: %w", err)
	}
	container.ConfigDB = configDB

	// 5. cache.db - Ephemeral operational data (job history, snapshot cache)
	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "cache.db"),
		Profile: database.ProfileCache, // Maximum speed for ephemeral data
		Name:    "cache",
	})
	if err != nil {
		refdataDB.Close()
		tendersDB.Close()
		auditDB.Close()
		configDB.Close()
		return nil, fmt.Errorf("failed to initialize cache database: %w", err)
	}
	container.CacheDB = cacheDB

	// Apply schemas to all databases (single source of truth)
	for _, db := range []*database.DB{refdataDB, tendersDB, auditDB, configDB, cacheDB} {
		if err := db.Migrate(); err != nil {
			container.Close()
			return nil, fmt.Errorf("failed to apply schema to %s: %w", db.Name(), err)
		}
	}

	// Dedicated rate-history read connection (mattn driver, registered by
	// the refdata package). Long history scans stay off the main pool.
	historyConn, err := sql.Open("sqlite3", filepath.Join(cfg.DataDir, "refdata.db"))
	if err != nil {
		container.Close()
		return nil, fmt.Errorf("failed to open rate history connection: %w", err)
	}
	if err := historyConn.Ping(); err != nil {
		historyConn.Close()
		container.Close()
		return nil, fmt.Errorf("failed to ping rate history connection: %w", err)
	}
	historyConn.SetMaxOpenConns(1)
	container.RateHistoryConn = historyConn

	log.Info().Msg("All databases initialized and schemas applied")

	return container, nil
}
