package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("QUOTIENT_DATA_DIR", dataDir)
	t.Setenv("QUOTIENT_PORT", "")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, dataDir, cfg.DataDir)
	assert.Equal(t, filepath.Join(dataDir, "backups"), cfg.BackupDir)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.DevMode)
	assert.False(t, cfg.S3.Enabled())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("QUOTIENT_DATA_DIR", t.TempDir())
	t.Setenv("QUOTIENT_PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("QUOTIENT_ADMIN_KEY", "secret")
	t.Setenv("S3_ACCESS_KEY", "ak")
	t.Setenv("S3_SECRET_KEY", "sk")
	t.Setenv("S3_BUCKET", "backups")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, "secret", cfg.AdminKey)
	assert.True(t, cfg.S3.Enabled())
	assert.Equal(t, "auto", cfg.S3.Region)
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg := &Config{Port: -1}
	assert.Error(t, cfg.Validate())

	cfg.Port = 70000
	assert.Error(t, cfg.Validate())

	cfg.Port = 8080
	assert.NoError(t, cfg.Validate())
}

func TestS3ConfigEnabled(t *testing.T) {
	var nilCfg *S3Config
	assert.False(t, nilCfg.Enabled())

	assert.False(t, (&S3Config{AccessKey: "ak"}).Enabled())
	assert.True(t, (&S3Config{AccessKey: "ak", SecretKey: "sk", Bucket: "b"}).Enabled())
}

func TestCronDefaults(t *testing.T) {
	t.Setenv("QUOTIENT_DATA_DIR", t.TempDir())
	t.Setenv("CRON_LOCAL_BACKUP", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0 0 1 * * *", cfg.Cron.LocalBackup)
	assert.Equal(t, "0 0 * * * *", cfg.Cron.RerankSafety)
}
