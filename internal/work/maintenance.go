package work

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// jobHistoryRetention is how long completed runs stay in job_history.
const jobHistoryRetention = 30 * 24 * time.Hour

// DatabaseMaintainerInterface runs checkpoint/vacuum/integrity passes
type DatabaseMaintainerInterface interface {
	DatabaseNames() []string
	Maintain(ctx context.Context, name string) error
}

// LocalBackupInterface writes and rotates local database backups
type LocalBackupInterface interface {
	RunDailyBackup() error
	RotateLocal() (int, error)
}

// RemoteBackupInterface uploads and rotates backups in object storage
type RemoteBackupInterface interface {
	Enabled() bool
	UploadBackup(ctx context.Context) error
	RotateRemote(ctx context.Context) (int, error)
}

// HistoryPrunerInterface trims old job history rows
type HistoryPrunerInterface interface {
	Prune(before time.Time) (int64, error)
}

// MaintenanceDeps contains all dependencies for maintenance work types
type MaintenanceDeps struct {
	Maintainer DatabaseMaintainerInterface
	Backup     LocalBackupInterface
	Remote     RemoteBackupInterface
	History    HistoryPrunerInterface
	Log        zerolog.Logger
}

// RegisterMaintenanceWorkTypes registers maintenance and backup work types
// with the registry
func RegisterMaintenanceWorkTypes(registry *Registry, deps *MaintenanceDeps) {
	// db:maintenance - WAL checkpoint, vacuum and integrity check, one
	// database per item. The cache pass also prunes old job history.
	registry.Register(&WorkType{
		ID:       "db:maintenance",
		Priority: PriorityLow,
		Timing:   OffHours,
		Interval: 24 * time.Hour,
		FindSubjects: func() []string {
			return deps.Maintainer.DatabaseNames()
		},
		Execute: func(ctx context.Context, subject string) error {
			if err := deps.Maintainer.Maintain(ctx, subject); err != nil {
				return fmt.Errorf("failed to maintain database %s: %w", subject, err)
			}

			if subject == "cache" && deps.History != nil {
				removed, err := deps.History.Prune(time.Now().Add(-jobHistoryRetention))
				if err != nil {
					return fmt.Errorf("failed to prune job history: %w", err)
				}
				if removed > 0 {
					deps.Log.Debug().Int64("removed", removed).Msg("Pruned job history")
				}
			}
			return nil
		},
	})

	// backup:local - Nightly VACUUM INTO backup of every database
	registry.Register(&WorkType{
		ID:       "backup:local",
		Priority: PriorityLow,
		Timing:   OffHours,
		Interval: 24 * time.Hour,
		FindSubjects: func() []string {
			return []string{""}
		},
		Execute: func(ctx context.Context, subject string) error {
			if err := deps.Backup.RunDailyBackup(); err != nil {
				return fmt.Errorf("failed to run daily backup: %w", err)
			}
			return nil
		},
	})

	// backup:remote - Upload the day's backups to object storage
	registry.Register(&WorkType{
		ID:        "backup:remote",
		DependsOn: []string{"backup:local"},
		Priority:  PriorityLow,
		Timing:    OffHours,
		Interval:  24 * time.Hour,
		FindSubjects: func() []string {
			if deps.Remote == nil || !deps.Remote.Enabled() {
				return nil
			}
			return []string{""}
		},
		Execute: func(ctx context.Context, subject string) error {
			if err := deps.Remote.UploadBackup(ctx); err != nil {
				return fmt.Errorf("failed to upload backup: %w", err)
			}
			return nil
		},
	})

	// backup:rotate - Apply retention to local and remote backups
	registry.Register(&WorkType{
		ID:        "backup:rotate",
		DependsOn: []string{"backup:local"},
		Priority:  PriorityLow,
		Timing:    OffHours,
		Interval:  24 * time.Hour,
		FindSubjects: func() []string {
			return []string{""}
		},
		Execute: func(ctx context.Context, subject string) error {
			removed, err := deps.Backup.RotateLocal()
			if err != nil {
				return fmt.Errorf("failed to rotate local backups: %w", err)
			}
			if removed > 0 {
				deps.Log.Info().Int("removed", removed).Msg("Rotated local backups")
			}

			if deps.Remote != nil && deps.Remote.Enabled() {
				removed, err := deps.Remote.RotateRemote(ctx)
				if err != nil {
					return fmt.Errorf("failed to rotate remote backups: %w", err)
				}
				if removed > 0 {
					deps.Log.Info().Int("removed", removed).Msg("Rotated remote backups")
				}
			}
			return nil
		},
	})
}
