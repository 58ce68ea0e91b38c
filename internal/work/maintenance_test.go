package work

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockDatabaseMaintainer mocks the database maintenance service
type MockDatabaseMaintainer struct {
	mock.Mock
}

func (m *MockDatabaseMaintainer) DatabaseNames() []string {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]string)
}

func (m *MockDatabaseMaintainer) Maintain(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

// MockLocalBackup mocks the local backup service
type MockLocalBackup struct {
	mock.Mock
}

func (m *MockLocalBackup) RunDailyBackup() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockLocalBackup) RotateLocal() (int, error) {
	args := m.Called()
	return args.Int(0), args.Error(1)
}

// MockRemoteBackup mocks the object storage backup service
type MockRemoteBackup struct {
	mock.Mock
}

func (m *MockRemoteBackup) Enabled() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockRemoteBackup) UploadBackup(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockRemoteBackup) RotateRemote(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockHistoryPruner mocks job history pruning
type MockHistoryPruner struct {
	mock.Mock
}

func (m *MockHistoryPruner) Prune(before time.Time) (int64, error) {
	args := m.Called(before)
	return args.Get(0).(int64), args.Error(1)
}

func newMaintenanceDeps() *MaintenanceDeps {
	return &MaintenanceDeps{
		Maintainer: &MockDatabaseMaintainer{},
		Backup:     &MockLocalBackup{},
		Remote:     &MockRemoteBackup{},
		History:    &MockHistoryPruner{},
		Log:        zerolog.Nop(),
	}
}

func TestRegisterMaintenanceWorkTypes(t *testing.T) {
	registry := NewRegistry()

	RegisterMaintenanceWorkTypes(registry, newMaintenanceDeps())

	assert.True(t, registry.Has("db:maintenance"))
	assert.True(t, registry.Has("backup:local"))
	assert.True(t, registry.Has("backup:remote"))
	assert.True(t, registry.Has("backup:rotate"))
}

func TestMaintenanceWorkTypes_Dependencies(t *testing.T) {
	registry := NewRegistry()
	RegisterMaintenanceWorkTypes(registry, newMaintenanceDeps())

	remote := registry.Get("backup:remote")
	require.NotNil(t, remote)
	assert.Contains(t, remote.DependsOn, "backup:local")

	rotate := registry.Get("backup:rotate")
	require.NotNil(t, rotate)
	assert.Contains(t, rotate.DependsOn, "backup:local")
}

func TestMaintenanceWorkTypes_RunOffHours(t *testing.T) {
	registry := NewRegistry()
	RegisterMaintenanceWorkTypes(registry, newMaintenanceDeps())

	for _, id := range []string{"db:maintenance", "backup:local", "backup:remote", "backup:rotate"} {
		wt := registry.Get(id)
		require.NotNil(t, wt, "work type %s should exist", id)
		assert.Equal(t, OffHours, wt.Timing, "work type %s should run off hours", id)
		assert.Equal(t, 24*time.Hour, wt.Interval)
	}
}

func TestDbMaintenance_FindSubjects(t *testing.T) {
	registry := NewRegistry()
	deps := newMaintenanceDeps()

	maintainer := &MockDatabaseMaintainer{}
	maintainer.On("DatabaseNames").Return([]string{"refdata", "tenders", "audit", "config", "cache"})
	deps.Maintainer = maintainer

	RegisterMaintenanceWorkTypes(registry, deps)

	subjects := registry.Get("db:maintenance").FindSubjects()
	assert.Equal(t, []string{"refdata", "tenders", "audit", "config", "cache"}, subjects)
}

func TestDbMaintenance_Execute(t *testing.T) {
	t.Run("cache pass prunes job history", func(t *testing.T) {
		registry := NewRegistry()
		deps := newMaintenanceDeps()

		maintainer := &MockDatabaseMaintainer{}
		maintainer.On("Maintain", mock.Anything, "cache").Return(nil)
		deps.Maintainer = maintainer

		pruner := &MockHistoryPruner{}
		pruner.On("Prune", mock.Anything).Return(int64(4), nil)
		deps.History = pruner

		RegisterMaintenanceWorkTypes(registry, deps)

		err := registry.Get("db:maintenance").Execute(context.Background(), "cache")
		require.NoError(t, err)

		maintainer.AssertCalled(t, "Maintain", mock.Anything, "cache")
		pruner.AssertCalled(t, "Prune", mock.Anything)
	})

	t.Run("other databases leave history alone", func(t *testing.T) {
		registry := NewRegistry()
		deps := newMaintenanceDeps()

		maintainer := &MockDatabaseMaintainer{}
		maintainer.On("Maintain", mock.Anything, "refdata").Return(nil)
		deps.Maintainer = maintainer

		pruner := &MockHistoryPruner{}
		deps.History = pruner

		RegisterMaintenanceWorkTypes(registry, deps)

		err := registry.Get("db:maintenance").Execute(context.Background(), "refdata")
		require.NoError(t, err)

		pruner.AssertNotCalled(t, "Prune", mock.Anything)
	})
}

func TestBackupLocal_Execute(t *testing.T) {
	registry := NewRegistry()
	deps := newMaintenanceDeps()

	backup := &MockLocalBackup{}
	backup.On("RunDailyBackup").Return(nil)
	deps.Backup = backup

	RegisterMaintenanceWorkTypes(registry, deps)

	err := registry.Get("backup:local").Execute(context.Background(), "")
	require.NoError(t, err)

	backup.AssertCalled(t, "RunDailyBackup")
}

func TestBackupRemote_FindSubjects(t *testing.T) {
	t.Run("no remote configured", func(t *testing.T) {
		registry := NewRegistry()
		deps := newMaintenanceDeps()
		deps.Remote = nil

		RegisterMaintenanceWorkTypes(registry, deps)

		assert.Nil(t, registry.Get("backup:remote").FindSubjects())
	})

	t.Run("remote disabled", func(t *testing.T) {
		registry := NewRegistry()
		deps := newMaintenanceDeps()

		remote := &MockRemoteBackup{}
		remote.On("Enabled").Return(false)
		deps.Remote = remote

		RegisterMaintenanceWorkTypes(registry, deps)

		assert.Nil(t, registry.Get("backup:remote").FindSubjects())
	})

	t.Run("remote enabled", func(t *testing.T) {
		registry := NewRegistry()
		deps := newMaintenanceDeps()

		remote := &MockRemoteBackup{}
		remote.On("Enabled").Return(true)
		deps.Remote = remote

		RegisterMaintenanceWorkTypes(registry, deps)

		assert.Equal(t, []string{""}, registry.Get("backup:remote").FindSubjects())
	})
}

func TestBackupRemote_Execute(t *testing.T) {
	registry := NewRegistry()
	deps := newMaintenanceDeps()

	remote := &MockRemoteBackup{}
	remote.On("UploadBackup", mock.Anything).Return(nil)
	deps.Remote = remote

	RegisterMaintenanceWorkTypes(registry, deps)

	err := registry.Get("backup:remote").Execute(context.Background(), "")
	require.NoError(t, err)

	remote.AssertCalled(t, "UploadBackup", mock.Anything)
}

func TestBackupRotate_Execute(t *testing.T) {
	t.Run("rotates local and remote when enabled", func(t *testing.T) {
		registry := NewRegistry()
		deps := newMaintenanceDeps()

		backup := &MockLocalBackup{}
		backup.On("RotateLocal").Return(2, nil)
		deps.Backup = backup

		remote := &MockRemoteBackup{}
		remote.On("Enabled").Return(true)
		remote.On("RotateRemote", mock.Anything).Return(1, nil)
		deps.Remote = remote

		RegisterMaintenanceWorkTypes(registry, deps)

		err := registry.Get("backup:rotate").Execute(context.Background(), "")
		require.NoError(t, err)

		backup.AssertCalled(t, "RotateLocal")
		remote.AssertCalled(t, "RotateRemote", mock.Anything)
	})

	t.Run("local rotation still runs without remote", func(t *testing.T) {
		registry := NewRegistry()
		deps := newMaintenanceDeps()

		backup := &MockLocalBackup{}
		backup.On("RotateLocal").Return(0, nil)
		deps.Backup = backup
		deps.Remote = nil

		RegisterMaintenanceWorkTypes(registry, deps)

		err := registry.Get("backup:rotate").Execute(context.Background(), "")
		require.NoError(t, err)

		backup.AssertCalled(t, "RotateLocal")
	})
}
