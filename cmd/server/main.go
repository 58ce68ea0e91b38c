// Package main is the entry point for Quotient, the RFP bid-pricing
// service for the cable works.
//
// The application follows clean architecture principles:
// - Domain layer is pure (no infrastructure dependencies)
// - Dependency injection via DI container
// - Repository pattern for data access
// - Service layer for business logic
// - HTTP handlers for API endpoints
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bidfoundry/quotient/internal/config"
	"github.com/bidfoundry/quotient/internal/di"
	"github.com/bidfoundry/quotient/internal/scheduler"
	"github.com/bidfoundry/quotient/internal/server"
	"github.com/bidfoundry/quotient/pkg/logger"
)

// main orchestrates the system startup sequence:
//  1. Loads configuration from environment variables (.env supported)
//  2. Initializes structured logging
//  3. Wires all dependencies via the DI container (databases, repositories,
//     services, work processor)
//  4. Boots reference data: seed-if-empty, then build the first snapshot
//  5. Starts the HTTP server for API endpoints
//  6. Starts the cron scheduler and the work processor
//  7. Waits for a shutdown signal and drains everything gracefully
//
// The application uses a 5-database architecture:
// - refdata.db: Reference tables (products, materials, zones, competitors, clients)
// - tenders.db: Tender store (lifecycle state, line items, ranks)
// - audit.db: Immutable bid audit trail
// - config.db: Application settings
// - cache.db: Ephemeral operational data (job history, snapshot cache)
func main() {
	// Load configuration first to get the log level. Configuration comes
	// from environment variables; settings-database overrides (pricing
	// policy, backup retention, S3 credentials) are applied during wiring.
	cfg, err := config.Load()
	if err != nil {
		// Use a fallback logger so the configuration error is still visible
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})

	log.Info().Msg("Starting Quotient")

	// Wire all dependencies using the DI container. Databases first, then
	// repositories, services, and finally the work processor registry.
	container, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}

	// All five databases must close cleanly so WAL checkpoints are written.
	defer container.Close()

	// Boot reference data: seed empty tables from the embedded catalogue,
	// then build the first snapshot. Without a snapshot nothing can be
	// matched, priced or ranked, so a boot failure is fatal.
	if err := container.RefdataService.Boot(); err != nil {
		log.Fatal().Err(err).Msg("Failed to boot reference data")
	}

	srv := server.New(server.Config{
		Log:       log,
		Config:    cfg,
		Port:      cfg.Port,
		DevMode:   cfg.DevMode,
		Container: container,
	})

	// Start the server in a goroutine so the scheduler and work processor
	// can start concurrently.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Cron schedule. Each job only marks a work type stale and wakes the
	// processor; ordering, dependencies and desk-hours eligibility stay
	// with the work processor itself.
	workComponents := container.WorkComponents
	sched := scheduler.New(log)

	cronJobs := []struct {
		spec   string
		name   string
		typeID string
	}{
		{cfg.Cron.LocalBackup, "nightly-local-backup", "backup:local"},
		{cfg.Cron.RemoteBackup, "nightly-remote-backup", "backup:remote"},
		{cfg.Cron.BackupRotation, "backup-rotation", "backup:rotate"},
		{cfg.Cron.Maintenance, "database-maintenance", "db:maintenance"},
		{cfg.Cron.VolatilityScan, "volatility-scan", "refdata:volatility_scan"},
		{cfg.Cron.RerankSafety, "rerank-safety-net", "tenders:rerank"},
	}

	for _, job := range cronJobs {
		workJob := scheduler.NewWorkJob(job.name, job.typeID, workComponents.Completion, workComponents.Processor)
		if err := sched.AddJob(job.spec, workJob); err != nil {
			log.Fatal().Err(err).Str("job", job.name).Msg("Failed to register cron job")
		}
	}

	sched.Start()

	// Start the work processor (event-driven background job system). It
	// executes snapshot reloads, repricing sweeps, re-ranks, volatility
	// scans, maintenance and backups, triggered by events, cron nudges or
	// manual API calls.
	go workComponents.Processor.Run()
	log.Info().Msg("Work processor started")

	// Block until SIGINT or SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	// Stop the scheduler first so no new nudges arrive, then the work
	// processor (in-flight jobs run to completion), then the HTTP server.
	sched.Stop()

	workComponents.Processor.Stop()
	log.Info().Msg("Work processor stopped")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
