package refdata

import (
	"database/sql"
	"testing"
	"time"

	"github.com/bidfoundry/quotient/internal/domain"
	"github.com/bidfoundry/quotient/internal/events"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWatcher(db *sql.DB, eventManager *events.Manager) *RateWatcher {
	log := zerolog.Nop()
	return NewRateWatcher(
		NewMaterialRepository(db, log),
		NewRateHistoryDB(db, log),
		eventManager,
		log,
	)
}

func TestRateWatcherFlagsSwingingMaterial(t *testing.T) {
	db := setupRefdataDB(t)
	defer db.Close()

	materialRepo := NewMaterialRepository(db, zerolog.Nop())
	require.NoError(t, materialRepo.Upsert(domain.Material{ID: "MAT-AL-ROD", Name: "Aluminium Rod", RatePerKg: 270, Volatility: domain.VolatilityNormal}))

	// 12.5% swing over the window, well past the 5% threshold
	now := time.Now()
	insertRate(t, db, "MAT-AL-ROD", 240, now.AddDate(0, 0, -3))
	insertRate(t, db, "MAT-AL-ROD", 245, now.AddDate(0, 0, -2))
	insertRate(t, db, "MAT-AL-ROD", 270, now.AddDate(0, 0, -1))

	watcher := newTestWatcher(db, nil)

	alerts, reclassified, err := watcher.Scan()
	require.NoError(t, err)
	assert.True(t, reclassified)
	require.Len(t, alerts, 1)

	assert.Equal(t, "MAT-AL-ROD", alerts[0].MaterialID)
	assert.InDelta(t, 12.5, alerts[0].ChangePct, 0.01)
	assert.Equal(t, 3, alerts[0].Samples)

	material, err := materialRepo.GetByID("MAT-AL-ROD")
	require.NoError(t, err)
	assert.Equal(t, domain.VolatilityHigh, material.Volatility)
}

func TestRateWatcherRevertsCalmMaterial(t *testing.T) {
	db := setupRefdataDB(t)
	defer db.Close()

	materialRepo := NewMaterialRepository(db, zerolog.Nop())
	require.NoError(t, materialRepo.Upsert(domain.Material{ID: "MAT-CU-ROD", Name: "Copper Rod", RatePerKg: 848, Volatility: domain.VolatilityHigh}))

	// 0.36% swing, under half the threshold
	now := time.Now()
	insertRate(t, db, "MAT-CU-ROD", 845, now.AddDate(0, 0, -3))
	insertRate(t, db, "MAT-CU-ROD", 846, now.AddDate(0, 0, -2))
	insertRate(t, db, "MAT-CU-ROD", 848, now.AddDate(0, 0, -1))

	watcher := newTestWatcher(db, nil)

	alerts, reclassified, err := watcher.Scan()
	require.NoError(t, err)
	assert.True(t, reclassified)
	assert.Empty(t, alerts)

	material, err := materialRepo.GetByID("MAT-CU-ROD")
	require.NoError(t, err)
	assert.Equal(t, domain.VolatilityNormal, material.Volatility)
}

func TestRateWatcherLeavesStableMaterialAlone(t *testing.T) {
	db := setupRefdataDB(t)
	defer db.Close()

	materialRepo := NewMaterialRepository(db, zerolog.Nop())
	require.NoError(t, materialRepo.Upsert(domain.Material{ID: "MAT-XLPE", Name: "XLPE Compound", RatePerKg: 197, Volatility: domain.VolatilityNormal}))

	now := time.Now()
	insertRate(t, db, "MAT-XLPE", 195, now.AddDate(0, 0, -3))
	insertRate(t, db, "MAT-XLPE", 196, now.AddDate(0, 0, -2))
	insertRate(t, db, "MAT-XLPE", 197, now.AddDate(0, 0, -1))

	watcher := newTestWatcher(db, nil)

	alerts, reclassified, err := watcher.Scan()
	require.NoError(t, err)
	assert.False(t, reclassified)
	assert.Empty(t, alerts)
}

func TestRateWatcherSkipsThinHistory(t *testing.T) {
	db := setupRefdataDB(t)
	defer db.Close()

	materialRepo := NewMaterialRepository(db, zerolog.Nop())
	require.NoError(t, materialRepo.Upsert(domain.Material{ID: "MAT-GI-WIRE", Name: "GI Wire", RatePerKg: 65, Volatility: domain.VolatilityNormal}))

	now := time.Now()
	insertRate(t, db, "MAT-GI-WIRE", 60, now.AddDate(0, 0, -2))
	insertRate(t, db, "MAT-GI-WIRE", 75, now.AddDate(0, 0, -1))

	watcher := newTestWatcher(db, nil)

	alerts, reclassified, err := watcher.Scan()
	require.NoError(t, err)
	assert.False(t, reclassified)
	assert.Empty(t, alerts)
}

func TestRateWatcherAlertsWithoutReclassifyingHighMaterial(t *testing.T) {
	db := setupRefdataDB(t)
	defer db.Close()

	materialRepo := NewMaterialRepository(db, zerolog.Nop())
	require.NoError(t, materialRepo.Upsert(domain.Material{ID: "MAT-CU-TAPE", Name: "Copper Tape", RatePerKg: 950, Volatility: domain.VolatilityHigh}))

	now := time.Now()
	insertRate(t, db, "MAT-CU-TAPE", 845, now.AddDate(0, 0, -3))
	insertRate(t, db, "MAT-CU-TAPE", 900, now.AddDate(0, 0, -2))
	insertRate(t, db, "MAT-CU-TAPE", 950, now.AddDate(0, 0, -1))

	watcher := newTestWatcher(db, nil)

	alerts, reclassified, err := watcher.Scan()
	require.NoError(t, err)
	assert.False(t, reclassified, "already-high material should not count as reclassified")
	require.Len(t, alerts, 1)
	assert.Equal(t, "MAT-CU-TAPE", alerts[0].MaterialID)
}

func TestRateWatcherEmitsRateAlertEvent(t *testing.T) {
	db := setupRefdataDB(t)
	defer db.Close()

	materialRepo := NewMaterialRepository(db, zerolog.Nop())
	require.NoError(t, materialRepo.Upsert(domain.Material{ID: "MAT-AL-ROD", Name: "Aluminium Rod", RatePerKg: 270, Volatility: domain.VolatilityNormal}))

	now := time.Now()
	insertRate(t, db, "MAT-AL-ROD", 240, now.AddDate(0, 0, -3))
	insertRate(t, db, "MAT-AL-ROD", 245, now.AddDate(0, 0, -2))
	insertRate(t, db, "MAT-AL-ROD", 270, now.AddDate(0, 0, -1))

	bus := events.NewBus(zerolog.Nop())
	manager := events.NewManager(bus, zerolog.Nop())

	received := make(chan *events.Event, 1)
	bus.Subscribe(events.RateAlert, func(e *events.Event) {
		received <- e
	})

	watcher := newTestWatcher(db, manager)
	_, _, err := watcher.Scan()
	require.NoError(t, err)

	select {
	case event := <-received:
		data := event.GetTypedData()
		require.NotNil(t, data)
		alertData, ok := data.(*events.RateAlertData)
		require.True(t, ok)
		assert.Equal(t, "MAT-AL-ROD", alertData.MaterialID)
		assert.InDelta(t, 12.5, alertData.ChangePct, 0.01)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timeout waiting for rate alert event")
	}
}
