// Package di provides dependency injection for service implementations.
package di

import (
	"context"
	"fmt"

	"github.com/bidfoundry/quotient/internal/config"
	"github.com/bidfoundry/quotient/internal/events"
	"github.com/bidfoundry/quotient/internal/modules/analytics"
	"github.com/bidfoundry/quotient/internal/modules/matching"
	"github.com/bidfoundry/quotient/internal/modules/pricing"
	"github.com/bidfoundry/quotient/internal/modules/ranking"
	"github.com/bidfoundry/quotient/internal/modules/refdata"
	"github.com/bidfoundry/quotient/internal/modules/settings"
	"github.com/bidfoundry/quotient/internal/modules/tenders"
	"github.com/bidfoundry/quotient/internal/reliability"
	"github.com/rs/zerolog"
)

// InitializeServices creates all services and stores them in the container.
// Order matters: settings feed the pricing policy and the S3 credentials,
// refdata feeds every snapshot consumer.
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	// ==========================================
	// STEP 1: Event bus and manager
	// ==========================================

	container.EventBus = events.NewBus(log)
	container.EventManager = events.NewManager(container.EventBus, log)

	// ==========================================
	// STEP 2: Settings
	// ==========================================

	container.SettingsService = settings.NewService(container.SettingsRepo, log)

	// Settings stored in config.db override environment values (S3
	// credentials, retention). Env stays the fallback.
	if err := cfg.UpdateFromSettings(container.SettingsRepo); err != nil {
		return fmt.Errorf("failed to apply settings overrides: %w", err)
	}

	// ==========================================
	// STEP 3: Reference data (snapshots, seeding, volatility)
	// ==========================================

	provider := refdata.NewSnapshotProvider(
		container.ProductRepo,
		container.MaterialRepo,
		container.ReferenceRepo,
		container.CacheDB.Conn(),
		log,
	)
	seeder := refdata.NewSeeder(
		container.ProductRepo,
		container.MaterialRepo,
		container.ReferenceRepo,
		log,
	)
	watcher := refdata.NewRateWatcher(
		container.MaterialRepo,
		container.RateHistoryDB,
		container.EventManager,
		log,
	)
	if days := container.SettingsService.VolatilityWindowDays(); days > 0 {
		watcher.WindowDays = days
	}
	if pct := container.SettingsService.VolatilityThresholdPct(); pct > 0 {
		watcher.ThresholdPct = pct
	}

	container.RefdataService = refdata.NewService(
		provider,
		seeder,
		container.ProductRepo,
		container.MaterialRepo,
		container.ReferenceRepo,
		container.RateHistoryDB,
		watcher,
		container.EventManager,
		log,
	)

	// ==========================================
	// STEP 4: Pricing pipeline
	// ==========================================

	container.PricingService = pricing.NewService(
		container.RefdataService,
		container.BidRepo,
		container.SettingsService, // resolves the active policy
		container.EventManager,
		log,
	)

	// ==========================================
	// STEP 5: Matching, tenders, ranking, analytics
	// ==========================================

	container.MatchingService = matching.NewService(
		container.RefdataService,
		container.SettingsService.MatchingMinConfidence(),
		log,
	)

	container.TenderService = tenders.NewService(
		container.TenderRepo,
		container.RefdataService,
		container.PricingService,
		container.MatchingService,
		container.EventManager,
		log,
	)

	container.RankingService = ranking.NewService(
		container.TenderRepo,
		container.RefdataService,
		container.EventManager,
		log,
	)

	container.AnalyticsService = analytics.NewService(
		container.RefdataService,
		container.BidSampleRepo,
		log,
	)

	// ==========================================
	// STEP 6: Reliability (backups, maintenance, health)
	// ==========================================

	databases := container.Databases()

	container.BackupService = reliability.NewBackupService(
		databases,
		cfg.BackupDir,
		container.SettingsService,
		log,
	)
	container.MaintenanceService = reliability.NewMaintenanceService(databases, log)
	container.HealthService = reliability.NewDatabaseHealthService(databases, log)

	// Remote backups only when credentials are configured
	if cfg.S3.Enabled() {
		s3Service, err := reliability.NewS3BackupService(
			context.Background(),
			reliability.S3Options{
				EndpointURL:   cfg.S3.EndpointURL,
				Region:        cfg.S3.Region,
				AccessKey:     cfg.S3.AccessKey,
				SecretKey:     cfg.S3.SecretKey,
				Bucket:        cfg.S3.Bucket,
				Prefix:        cfg.S3.Prefix,
				RetentionDays: cfg.S3.RetentionDays,
			},
			container.BackupService,
			cfg.DataDir,
			log,
		)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize S3 client - remote backup disabled")
		} else {
			container.S3BackupService = s3Service
			log.Info().Str("bucket", cfg.S3.Bucket).Msg("Remote backup service initialized")
		}
	} else {
		log.Debug().Msg("S3 credentials not configured - remote backup disabled")
	}

	log.Info().Msg("All services initialized")

	return nil
}
