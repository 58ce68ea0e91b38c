package reliability

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/bidfoundry/quotient/internal/version"
	"github.com/rs/zerolog"
)

// remoteArchivePrefix names backup archives in object storage
const remoteArchivePrefix = "quotient-backup-"

// minRemoteBackups are always kept regardless of age
const minRemoteBackups = 3

// S3Options configures the remote backup target. EndpointURL supports
// S3-compatible providers (R2, MinIO) via endpoint override.
type S3Options struct {
	EndpointURL   string
	Region        string
	AccessKey     string
	SecretKey     string
	Bucket        string
	Prefix        string
	RetentionDays int
}

// S3BackupService uploads compressed backup archives to S3-compatible
// object storage. Each archive contains a fresh VACUUM INTO copy of every
// database plus a checksum manifest.
type S3BackupService struct {
	client        *s3.Client
	uploader      *manager.Uploader
	backups       *BackupService
	dataDir       string
	bucket        string
	prefix        string
	retentionDays int
	log           zerolog.Logger
}

// RemoteBackup describes a backup archive stored in object storage
type RemoteBackup struct {
	Key       string    `json:"key"`
	Timestamp time.Time `json:"timestamp"`
	SizeBytes int64     `json:"size_bytes"`
	AgeHours  int64     `json:"age_hours"`
}

// NewS3BackupService creates a new S3 backup service
func NewS3BackupService(
	ctx context.Context,
	opts S3Options,
	backups *BackupService,
	dataDir string,
	log zerolog.Logger,
) (*S3BackupService, error) {
	if opts.AccessKey == "" || opts.SecretKey == "" || opts.Bucket == "" {
		return nil, fmt.Errorf("incomplete object storage credentials")
	}

	region := opts.Region
	if region == "" {
		region = "auto"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load object storage config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.EndpointURL != "" {
			o.BaseEndpoint = aws.String(opts.EndpointURL)
			o.UsePathStyle = true
		}
	})

	return &S3BackupService{
		client:        client,
		uploader:      manager.NewUploader(client),
		backups:       backups,
		dataDir:       dataDir,
		bucket:        opts.Bucket,
		prefix:        opts.Prefix,
		retentionDays: opts.RetentionDays,
		log:           log.With().Str("service", "s3_backup").Logger(),
	}, nil
}

// Enabled reports whether remote backups can run
func (s *S3BackupService) Enabled() bool {
	return s != nil && s.client != nil
}

// UploadBackup creates a backup archive and uploads it to object storage
func (s *S3BackupService) UploadBackup(ctx context.Context) error {
	s.log.Info().Msg("Starting remote backup")
	startTime := time.Now()

	stagingDir := filepath.Join(s.dataDir, "s3-staging")
	if err := os.MkdirAll(stagingDir, 0755); err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(stagingDir)

	manifest := BackupManifest{
		Timestamp:  startTime.UTC(),
		AppVersion: version.Version,
	}

	names := s.backups.DatabaseNames()
	files := make([]string, 0, len(names)+1)

	for _, name := range names {
		dbPath := filepath.Join(stagingDir, name+".db")

		if err := s.backups.BackupDatabase(name, dbPath); err != nil {
			return fmt.Errorf("failed to back up %s: %w", name, err)
		}

		info, err := os.Stat(dbPath)
		if err != nil {
			return fmt.Errorf("failed to stat %s backup: %w", name, err)
		}

		checksum, err := fileChecksum(dbPath)
		if err != nil {
			return fmt.Errorf("failed to checksum %s backup: %w", name, err)
		}

		manifest.Databases = append(manifest.Databases, DatabaseArtifact{
			Name:      name,
			Filename:  name + ".db",
			SizeBytes: info.Size(),
			Checksum:  checksum,
		})
		files = append(files, name+".db")
	}

	manifestPath := filepath.Join(stagingDir, "backup-manifest.json")
	if err := writeManifest(manifestPath, manifest); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	files = append(files, "backup-manifest.json")

	archiveName := remoteArchivePrefix + startTime.Format(backupTimeFormat) + ".tar.gz"
	archivePath := filepath.Join(stagingDir, archiveName)

	if err := createArchive(archivePath, stagingDir, files); err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}

	archiveInfo, err := os.Stat(archivePath)
	if err != nil {
		return fmt.Errorf("failed to stat archive: %w", err)
	}

	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer archiveFile.Close()

	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.objectKey(archiveName)),
		Body:        archiveFile,
		ContentType: aws.String("application/gzip"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload archive: %w", err)
	}

	duration := time.Since(startTime)
	s.log.Info().
		Dur("duration_ms", duration).
		Str("archive", archiveName).
		Int64("size_bytes", archiveInfo.Size()).
		Msg("Remote backup completed successfully")

	return nil
}

// ListBackups lists backup archives stored in the bucket, newest first
func (s *S3BackupService) ListBackups(ctx context.Context) ([]RemoteBackup, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.objectKey(remoteArchivePrefix)),
	})

	backups := []RemoteBackup{}
	now := time.Now()

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list remote backups: %w", err)
		}

		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			base := path.Base(key)
			if !strings.HasPrefix(base, remoteArchivePrefix) || !strings.HasSuffix(base, ".tar.gz") {
				continue
			}

			timestampStr := strings.TrimSuffix(strings.TrimPrefix(base, remoteArchivePrefix), ".tar.gz")
			timestamp, err := time.Parse(backupTimeFormat, timestampStr)
			if err != nil {
				s.log.Warn().Str("key", key).Msg("Failed to parse timestamp from archive name")
				continue
			}

			backups = append(backups, RemoteBackup{
				Key:       key,
				Timestamp: timestamp,
				SizeBytes: aws.ToInt64(obj.Size),
				AgeHours:  int64(now.Sub(timestamp).Hours()),
			})
		}
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})

	return backups, nil
}

// RotateRemote deletes archives older than the retention window, always
// keeping the newest minRemoteBackups. Returns the number deleted.
func (s *S3BackupService) RotateRemote(ctx context.Context) (int, error) {
	backups, err := s.ListBackups(ctx)
	if err != nil {
		return 0, err
	}

	if len(backups) <= minRemoteBackups {
		s.log.Debug().Int("count", len(backups)).Msg("Too few remote backups to rotate")
		return 0, nil
	}

	// Retention 0 means keep everything beyond the minimum
	if s.retentionDays <= 0 {
		return 0, nil
	}

	cutoff := time.Now().AddDate(0, 0, -s.retentionDays)
	deleted := 0

	for i, backup := range backups {
		if i < minRemoteBackups {
			continue
		}

		if backup.Timestamp.Before(cutoff) {
			_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
				Bucket: aws.String(s.bucket),
				Key:    aws.String(backup.Key),
			})
			if err != nil {
				s.log.Error().Err(err).Str("key", backup.Key).Msg("Failed to delete old remote backup")
				continue
			}

			s.log.Info().
				Str("key", backup.Key).
				Time("timestamp", backup.Timestamp).
				Msg("Deleted old remote backup")
			deleted++
		}
	}

	return deleted, nil
}

// objectKey joins the configured prefix with an archive name
func (s *S3BackupService) objectKey(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

// createArchive writes a tar.gz containing the named files from sourceDir
func createArchive(archivePath, sourceDir string, filenames []string) error {
	archiveFile, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	defer archiveFile.Close()

	gzipWriter := gzip.NewWriter(archiveFile)
	defer gzipWriter.Close()

	tarWriter := tar.NewWriter(gzipWriter)
	defer tarWriter.Close()

	for _, filename := range filenames {
		if err := addFileToArchive(tarWriter, filepath.Join(sourceDir, filename), filename); err != nil {
			return fmt.Errorf("failed to add %s to archive: %w", filename, err)
		}
	}

	return nil
}

// addFileToArchive adds a single file to a tar archive
func addFileToArchive(tarWriter *tar.Writer, filePath, nameInArchive string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	header := &tar.Header{
		Name:    nameInArchive,
		Size:    info.Size(),
		Mode:    int64(info.Mode()),
		ModTime: info.ModTime(),
	}

	if err := tarWriter.WriteHeader(header); err != nil {
		return err
	}

	if _, err := io.Copy(tarWriter, file); err != nil {
		return err
	}

	return nil
}
