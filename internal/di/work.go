// Package di provides dependency injection for the work processor.
package di

import (
	"github.com/bidfoundry/quotient/internal/work"
	"github.com/rs/zerolog"
)

// WorkComponents holds all work processor components
type WorkComponents struct {
	Registry   *work.Registry
	Completion *work.CompletionTracker
	Timing     *work.TimingChecker
	History    *work.JobHistory
	Processor  *work.Processor
	Handlers   *work.Handlers
}

// InitializeWork creates and wires up all work processor components
func InitializeWork(container *Container, log zerolog.Logger) (*WorkComponents, error) {
	// Core components
	registry := work.NewRegistry()
	completion := work.NewCompletionTracker()
	timing := work.NewTimingChecker()
	history := work.NewJobHistory(container.CacheDB.Conn(), log)
	processor := work.NewProcessor(registry, completion, timing, history, log)
	handlers := work.NewHandlers(processor, registry, history)

	// Pipeline work types (snapshot reload, reprice, rerank, volatility)
	work.RegisterPipelineWorkTypes(registry, &work.PipelineDeps{
		Snapshot:       &snapshotReloaderAdapter{service: container.RefdataService},
		Ranker:         &rankerAdapter{service: container.RankingService},
		RepriceScanner: container.TenderService,
		TenderPricer:   &tenderPricerAdapter{service: container.TenderService},
		Volatility:     &volatilityScannerAdapter{service: container.RefdataService},
		Log:            log,
	})

	// Maintenance work types (db maintenance, local/remote backup, rotation).
	// The remote backup interface stays nil unless the S3 service exists; a
	// typed nil pointer would defeat the registration's nil checks.
	var remote work.RemoteBackupInterface
	if container.S3BackupService != nil {
		remote = container.S3BackupService
	}
	work.RegisterMaintenanceWorkTypes(registry, &work.MaintenanceDeps{
		Maintainer: container.MaintenanceService,
		Backup:     container.BackupService,
		Remote:     remote,
		History:    history,
		Log:        log,
	})

	// Event triggers wake the processor on lifecycle changes
	work.RegisterTriggers(&work.TriggerDeps{
		Bus:        container.EventBus,
		Processor:  processor,
		Completion: completion,
	})

	// Completions survive restarts via job history
	if err := work.RestoreCompletions(history, completion); err != nil {
		log.Warn().Err(err).Msg("Failed to restore work completions from history")
	}

	log.Info().Int("work_types", registry.Count()).Msg("Work processor initialized")

	return &WorkComponents{
		Registry:   registry,
		Completion: completion,
		Timing:     timing,
		History:    history,
		Processor:  processor,
		Handlers:   handlers,
	}, nil
}
