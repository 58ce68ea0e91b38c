// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/bidfoundry/quotient/internal/modules/settings"
	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir   string // Base directory for all databases (always absolute)
	BackupDir string // Directory for local database backups
	LogLevel  string
	Port      int
	DevMode   bool

	// AdminKey gates reference-data and settings mutations (X-Admin-Key header).
	// Env only, never stored in the settings database.
	AdminKey string

	// S3 remote backup (optional; remote backups are skipped when AccessKey is empty)
	S3 *S3Config

	// CronSpecs for the background job schedule (seconds-granularity specs)
	Cron CronConfig
}

// S3Config holds S3-compatible object storage credentials for remote backups.
// EndpointURL supports non-AWS providers (R2, MinIO) via endpoint override.
type S3Config struct {
	EndpointURL   string
	Region        string
	AccessKey     string
	SecretKey     string
	Bucket        string
	Prefix        string
	RetentionDays int
}

// Enabled reports whether remote backups are configured
func (s *S3Config) Enabled() bool {
	return s != nil && s.AccessKey != "" && s.SecretKey != "" && s.Bucket != ""
}

// CronConfig holds the schedule specs for recurring jobs
type CronConfig struct {
	LocalBackup    string // nightly local backup
	RemoteBackup   string // nightly S3 upload
	BackupRotation string // backup retention sweep
	Maintenance    string // WAL checkpoint + vacuum
	VolatilityScan string // material rate watch
	RerankSafety   string // hourly re-rank safety net
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Determine data directory:
	// 1. QUOTIENT_DATA_DIR environment variable
	// 2. fallback ./data
	// 3. always resolved to an absolute path that exists
	dataDir := getEnv("QUOTIENT_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	backupDir := getEnv("QUOTIENT_BACKUP_DIR", filepath.Join(absDataDir, "backups"))
	absBackupDir, err := filepath.Abs(backupDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve backup directory path: %w", err)
	}

	cfg := &Config{
		DataDir:   absDataDir,
		BackupDir: absBackupDir,
		Port:      getEnvAsInt("QUOTIENT_PORT", 8080),
		DevMode:   getEnvAsBool("DEV_MODE", false),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		AdminKey:  getEnv("QUOTIENT_ADMIN_KEY", ""),
		S3:        loadS3Config(),
		Cron:      loadCronConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// UpdateFromSettings updates configuration from the settings database.
// Called after the config database is initialized. Non-empty settings DB
// values take precedence over environment variables; empty values keep the
// env fallback.
func (c *Config) UpdateFromSettings(settingsRepo *settings.Repository) error {
	if c.S3 == nil {
		c.S3 = &S3Config{Region: "auto", Prefix: "quotient-backups", RetentionDays: 30}
	}

	stringOverrides := map[string]*string{
		"s3_endpoint_url": &c.S3.EndpointURL,
		"s3_access_key":   &c.S3.AccessKey,
		"s3_secret_key":   &c.S3.SecretKey,
		"s3_bucket":       &c.S3.Bucket,
		"s3_prefix":       &c.S3.Prefix,
	}
	for key, dest := range stringOverrides {
		value, err := settingsRepo.Get(key)
		if err != nil {
			return fmt.Errorf("failed to get %s from settings: %w", key, err)
		}
		if value != nil && *value != "" {
			*dest = *value
		}
	}

	retention, err := settingsRepo.GetInt("s3_retention_days", c.S3.RetentionDays)
	if err != nil {
		return fmt.Errorf("failed to get s3_retention_days from settings: %w", err)
	}
	c.S3.RetentionDays = retention

	return nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}

	// Admin key optional: without it, mutating endpoints reject all requests
	// in non-dev mode and are open in dev mode.

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// loadS3Config loads remote backup settings; nil-safe when unset
func loadS3Config() *S3Config {
	return &S3Config{
		EndpointURL:   getEnv("S3_ENDPOINT_URL", ""),
		Region:        getEnv("S3_REGION", "auto"),
		AccessKey:     getEnv("S3_ACCESS_KEY", ""),
		SecretKey:     getEnv("S3_SECRET_KEY", ""),
		Bucket:        getEnv("S3_BUCKET", ""),
		Prefix:        getEnv("S3_PREFIX", "quotient-backups"),
		RetentionDays: getEnvAsInt("S3_RETENTION_DAYS", 30),
	}
}

// loadCronConfig loads the job schedule (robfig/cron specs with seconds field)
func loadCronConfig() CronConfig {
	return CronConfig{
		LocalBackup:    getEnv("CRON_LOCAL_BACKUP", "0 0 1 * * *"),
		RemoteBackup:   getEnv("CRON_REMOTE_BACKUP", "0 0 3 * * *"),
		BackupRotation: getEnv("CRON_BACKUP_ROTATION", "0 30 3 * * *"),
		Maintenance:    getEnv("CRON_MAINTENANCE", "0 0 2 * * *"),
		VolatilityScan: getEnv("CRON_VOLATILITY_SCAN", "0 0 6 * * *"),
		RerankSafety:   getEnv("CRON_RERANK_SAFETY", "0 0 * * * *"),
	}
}
