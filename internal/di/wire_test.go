package di

import (
	"testing"

	"github.com/bidfoundry/quotient/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWire(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := &config.Config{
		DataDir:   tmpDir,
		BackupDir: t.TempDir(),
	}
	log := zerolog.Nop()

	container, err := Wire(cfg, log)
	require.NoError(t, err)
	require.NotNil(t, container)
	t.Cleanup(container.Close)

	// Databases
	assert.NotNil(t, container.RefdataDB)
	assert.NotNil(t, container.TendersDB)
	assert.NotNil(t, container.AuditDB)
	assert.NotNil(t, container.ConfigDB)
	assert.NotNil(t, container.CacheDB)
	assert.NotNil(t, container.RateHistoryConn)

	// Events
	assert.NotNil(t, container.EventBus)
	assert.NotNil(t, container.EventManager)

	// Repositories
	assert.NotNil(t, container.ProductRepo)
	assert.NotNil(t, container.MaterialRepo)
	assert.NotNil(t, container.ReferenceRepo)
	assert.NotNil(t, container.RateHistoryDB)
	assert.NotNil(t, container.TenderRepo)
	assert.NotNil(t, container.BidRepo)
	assert.NotNil(t, container.BidSampleRepo)
	assert.NotNil(t, container.SettingsRepo)

	// Services
	assert.NotNil(t, container.SettingsService)
	assert.NotNil(t, container.RefdataService)
	assert.NotNil(t, container.PricingService)
	assert.NotNil(t, container.MatchingService)
	assert.NotNil(t, container.TenderService)
	assert.NotNil(t, container.RankingService)
	assert.NotNil(t, container.AnalyticsService)

	// Reliability
	assert.NotNil(t, container.BackupService)
	assert.NotNil(t, container.MaintenanceService)
	assert.NotNil(t, container.HealthService)

	// Remote backups stay off without S3 credentials
	assert.Nil(t, container.S3BackupService)

	// Work processor
	require.NotNil(t, container.WorkComponents)
	assert.NotNil(t, container.WorkComponents.Registry)
	assert.NotNil(t, container.WorkComponents.Processor)
	assert.NotNil(t, container.WorkComponents.Handlers)
	assert.Equal(t, 8, container.WorkComponents.Registry.Count())
}

func TestWire_InvalidDataDir(t *testing.T) {
	cfg := &config.Config{
		DataDir:   "/nonexistent/path/that/does/not/exist",
		BackupDir: t.TempDir(),
	}
	log := zerolog.Nop()

	container, err := Wire(cfg, log)
	assert.Error(t, err)
	assert.Nil(t, container)
}
