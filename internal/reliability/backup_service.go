package reliability

import (
	"crypto/sha256"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bidfoundry/quotient/internal/database"
	"github.com/bidfoundry/quotient/internal/version"
	"github.com/rs/zerolog"
)

// backupTimeFormat names backup artifacts; lexical order equals time order.
const backupTimeFormat = "2006-01-02-150405"

// RetentionSource supplies the local backup retention window.
type RetentionSource interface {
	BackupRetentionDays() int
}

// BackupService manages local database backups. Each run writes one
// VACUUM INTO copy per database under backups/<name>/<timestamp>.db plus
// a run manifest with SHA256 checksums.
type BackupService struct {
	databases map[string]*database.DB
	backupDir string
	retention RetentionSource
	log       zerolog.Logger
}

// BackupManifest describes one backup run
type BackupManifest struct {
	Timestamp  time.Time          `json:"timestamp"`
	AppVersion string             `json:"app_version"`
	Databases  []DatabaseArtifact `json:"databases"`
}

// DatabaseArtifact describes a single database copy within a backup run
type DatabaseArtifact struct {
	Name      string `json:"name"`
	Filename  string `json:"filename"`
	SizeBytes int64  `json:"size_bytes"`
	Checksum  string `json:"checksum"`
}

// NewBackupService creates a new backup service
func NewBackupService(
	databases map[string]*database.DB,
	backupDir string,
	retention RetentionSource,
	log zerolog.Logger,
) *BackupService {
	return &BackupService{
		databases: databases,
		backupDir: backupDir,
		retention: retention,
		log:       log.With().Str("service", "backup").Logger(),
	}
}

// DatabaseNames returns the managed database names in stable order
func (s *BackupService) DatabaseNames() []string {
	names := make([]string, 0, len(s.databases))
	for name := range s.databases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RunDailyBackup backs up every database and writes the run manifest.
// A failure on one database does not stop the others; the first error is
// reported after the full pass.
func (s *BackupService) RunDailyBackup() error {
	s.log.Info().Msg("Starting local backup")
	startTime := time.Now()

	timestamp := startTime.Format(backupTimeFormat)
	manifest := BackupManifest{
		Timestamp:  startTime.UTC(),
		AppVersion: version.Version,
	}

	var firstErr error
	failed := 0

	for _, name := range s.DatabaseNames() {
		backupPath := filepath.Join(s.backupDir, name, timestamp+".db")

		if err := s.BackupDatabase(name, backupPath); err != nil {
			s.log.Error().Err(err).Str("database", name).Msg("Failed to back up database")
			if firstErr == nil {
				firstErr = err
			}
			failed++
			continue
		}

		info, err := os.Stat(backupPath)
		if err != nil {
			return fmt.Errorf("failed to stat backup for %s: %w", name, err)
		}

		checksum, err := fileChecksum(backupPath)
		if err != nil {
			return fmt.Errorf("failed to checksum backup for %s: %w", name, err)
		}

		manifest.Databases = append(manifest.Databases, DatabaseArtifact{
			Name:      name,
			Filename:  name + "/" + timestamp + ".db",
			SizeBytes: info.Size(),
			Checksum:  checksum,
		})
	}

	if failed > 0 {
		return fmt.Errorf("backup failed for %d of %d databases: %w", failed, len(s.databases), firstErr)
	}

	manifestPath := filepath.Join(s.backupDir, "manifest-"+timestamp+".json")
	if err := writeManifest(manifestPath, manifest); err != nil {
		return fmt.Errorf("failed to write backup manifest: %w", err)
	}

	duration := time.Since(startTime)
	s.log.Info().
		Dur("duration_ms", duration).
		Int("databases", len(manifest.Databases)).
		Str("manifest", manifestPath).
		Msg("Local backup completed successfully")

	return nil
}

// BackupDatabase writes a verified VACUUM INTO copy of one database
func (s *BackupService) BackupDatabase(name, backupPath string) error {
	db, ok := s.databases[name]
	if !ok {
		return fmt.Errorf("database %s not found", name)
	}

	s.log.Debug().
		Str("database", name).
		Str("backup_path", backupPath).
		Msg("Backing up database")

	if err := db.BackupTo(backupPath); err != nil {
		return err
	}

	if err := s.verifyBackup(backupPath); err != nil {
		os.Remove(backupPath)
		return fmt.Errorf("backup verification failed: %w", err)
	}

	return nil
}

// RotateLocal deletes backups and manifests older than the retention
// window. The most recent backup of each database survives regardless of
// age. Returns the number of files removed.
func (s *BackupService) RotateLocal() (removed int, err error) {
	retentionDays := 0
	if s.retention != nil {
		retentionDays = s.retention.BackupRetentionDays()
	}
	if retentionDays <= 0 {
		s.log.Debug().Msg("Backup retention disabled, keeping everything")
		return 0, nil
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	for _, name := range s.DatabaseNames() {
		dir := filepath.Join(s.backupDir, name)
		entries, readErr := os.ReadDir(dir)
		if readErr != nil {
			if os.IsNotExist(readErr) {
				continue
			}
			return removed, fmt.Errorf("failed to read backup directory %s: %w", dir, readErr)
		}

		timestamps := make([]string, 0, len(entries))
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".db") {
				continue
			}
			timestamps = append(timestamps, strings.TrimSuffix(entry.Name(), ".db"))
		}
		sort.Sort(sort.Reverse(sort.StringSlice(timestamps)))

		for i, ts := range timestamps {
			if i == 0 {
				// Most recent copy is always kept
				continue
			}

			stamped, parseErr := time.ParseInLocation(backupTimeFormat, ts, time.Local)
			if parseErr != nil {
				s.log.Warn().Str("file", ts+".db").Msg("Unrecognized backup filename, skipping")
				continue
			}

			if stamped.Before(cutoff) {
				path := filepath.Join(dir, ts+".db")
				if rmErr := os.Remove(path); rmErr != nil {
					s.log.Warn().Err(rmErr).Str("path", path).Msg("Failed to delete old backup")
					continue
				}
				s.log.Debug().Str("path", path).Msg("Deleted old backup")
				removed++
			}
		}
	}

	manifestsRemoved, err := s.rotateManifests(cutoff)
	if err != nil {
		return removed, err
	}
	removed += manifestsRemoved

	return removed, nil
}

// rotateManifests deletes run manifests older than cutoff, keeping the newest
func (s *BackupService) rotateManifests(cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(s.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read backup directory: %w", err)
	}

	timestamps := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "manifest-") || !strings.HasSuffix(name, ".json") {
			continue
		}
		timestamps = append(timestamps, strings.TrimSuffix(strings.TrimPrefix(name, "manifest-"), ".json"))
	}
	sort.Sort(sort.Reverse(sort.StringSlice(timestamps)))

	removed := 0
	for i, ts := range timestamps {
		if i == 0 {
			continue
		}

		stamped, parseErr := time.ParseInLocation(backupTimeFormat, ts, time.Local)
		if parseErr != nil {
			continue
		}

		if stamped.Before(cutoff) {
			path := filepath.Join(s.backupDir, "manifest-"+ts+".json")
			if rmErr := os.Remove(path); rmErr != nil {
				s.log.Warn().Err(rmErr).Str("path", path).Msg("Failed to delete old manifest")
				continue
			}
			removed++
		}
	}

	return removed, nil
}

// LatestBackupPath returns the newest local backup file for a database,
// or an empty string when none exists. Used by recovery tooling.
func (s *BackupService) LatestBackupPath(name string) string {
	dir := filepath.Join(s.backupDir, name)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}

	var newest string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".db") {
			continue
		}
		if entry.Name() > newest {
			newest = entry.Name()
		}
	}

	if newest == "" {
		return ""
	}
	return filepath.Join(dir, newest)
}

// verifyBackup opens the copy and runs an integrity check
func (s *BackupService) verifyBackup(backupPath string) error {
	backupDB, err := sql.Open("sqlite", backupPath)
	if err != nil {
		return fmt.Errorf("failed to open backup: %w", err)
	}
	defer backupDB.Close()

	var result string
	err = backupDB.QueryRow("PRAGMA integrity_check").Scan(&result)
	if err != nil {
		return fmt.Errorf("integrity check query failed: %w", err)
	}

	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}

	return nil
}

// fileChecksum calculates the SHA256 checksum of a file
func fileChecksum(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return fmt.Sprintf("sha256:%x", hash.Sum(nil)), nil
}

// writeManifest writes a backup manifest to a JSON file
func writeManifest(path string, manifest BackupManifest) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(manifest)
}
