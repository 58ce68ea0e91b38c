package analytics

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/bidfoundry/quotient/internal/domain"
	"github.com/bidfoundry/quotient/internal/modules/refdata"
	"github.com/bidfoundry/quotient/pkg/embedded"
)

type staticSnapshots struct {
	snap *refdata.Snapshot
	err  error
}

func (s staticSnapshots) Snapshot() (*refdata.Snapshot, error) {
	return s.snap, s.err
}

func competitorSnapshot() *refdata.Snapshot {
	competitors := []domain.Competitor{
		{ID: "CMP-VOLTLINE", Name: "Voltline Cables", AggressionScore: 6, WinRatePct: 45},
		{ID: "CMP-SURGECAB", Name: "Surge Cab Industries", AggressionScore: 9, WinRatePct: 52},
		{ID: "CMP-GRIDWIRE", Name: "Gridwire Conductors", AggressionScore: 7, WinRatePct: 68},
		{ID: "CMP-DUCTFLEX", Name: "Ductflex Wires", AggressionScore: 3, WinRatePct: 22},
	}
	return refdata.NewSnapshot(1, nil, nil, nil, nil, competitors, nil, nil)
}

func setupAuditDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)

	content, err := embedded.Files.ReadFile("schemas/audit_schema.sql")
	require.NoError(t, err)
	_, err = db.Exec(string(content))
	require.NoError(t, err)

	t.Cleanup(func() { db.Close() })
	return db
}

func insertBid(t *testing.T, db *sql.DB, id string, value, margin float64, clamped bool) {
	clampedInt := 0
	if clamped {
		clampedInt = 1
	}
	_, err := db.Exec(`
		INSERT INTO bids (id, tender_id, snapshot_version, final_bid_value, total_cost_base,
			adjusted_margin_pct, margin_floor_clamped, terms_defaulted, breakdown_json, created_at)
		VALUES (?, 'T-100', 1, ?, ?, ?, ?, 0, '{}', strftime('%s','now'))
	`, id, value, value/1.2, margin, clampedInt)
	require.NoError(t, err)
}

func TestCompetitiveLandscape(t *testing.T) {
	service := NewService(staticSnapshots{snap: competitorSnapshot()}, nil, zerolog.Nop())

	landscape, err := service.CompetitiveLandscape()
	require.NoError(t, err)

	assert.Equal(t, 4, landscape.Competitors)
	assert.InDelta(t, 6.25, landscape.MeanAggression, 1e-9)
	assert.InDelta(t, 2.5, landscape.StdDevAggression, 1e-9)
	assert.InDelta(t, 46.75, landscape.MeanWinRatePct, 1e-9)
	assert.InDelta(t, 3, landscape.AggressionQuartiles.P25, 1e-9)
	assert.InDelta(t, 6, landscape.AggressionQuartiles.P50, 1e-9)
	assert.InDelta(t, 7, landscape.AggressionQuartiles.P75, 1e-9)
	assert.Equal(t, 1, landscape.HighAggression)
}

func TestCompetitiveLandscapeEmptyTable(t *testing.T) {
	snap := refdata.NewSnapshot(1, nil, nil, nil, nil, nil, nil, nil)
	service := NewService(staticSnapshots{snap: snap}, nil, zerolog.Nop())

	landscape, err := service.CompetitiveLandscape()
	require.NoError(t, err)

	assert.Equal(t, 0, landscape.Competitors)
	assert.Zero(t, landscape.MeanAggression)
	assert.Zero(t, landscape.HighAggression)
}

func TestCompetitiveLandscapeSnapshotUnavailable(t *testing.T) {
	service := NewService(staticSnapshots{err: errors.New("not booted")}, nil, zerolog.Nop())

	_, err := service.CompetitiveLandscape()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load snapshot")
}

func TestBidStatistics(t *testing.T) {
	db := setupAuditDB(t)
	repo := NewBidSampleRepository(db, zerolog.Nop())
	service := NewService(staticSnapshots{snap: competitorSnapshot()}, repo, zerolog.Nop())

	insertBid(t, db, "B-1", 10_000_000, 0.23, false)
	insertBid(t, db, "B-2", 20_000_000, 0.04, true)
	insertBid(t, db, "B-3", 30_000_000, 0.26, false)
	insertBid(t, db, "B-4", 40_000_000, 0.20, false)

	statistics, err := service.BidStatistics()
	require.NoError(t, err)

	assert.Equal(t, 4, statistics.Bids)
	assert.InDelta(t, 100_000_000, statistics.TotalValue, 1e-6)
	assert.InDelta(t, 25_000_000, statistics.MeanValue, 1e-6)
	assert.InDelta(t, 40_000_000, statistics.MaxValue, 1e-6)
	assert.InDelta(t, 0.25, statistics.FloorClampRate, 1e-9)
	assert.InDelta(t, 0.04, statistics.MarginQuartiles.P25, 1e-9)
	assert.InDelta(t, 0.20, statistics.MarginQuartiles.P50, 1e-9)
	assert.InDelta(t, 0.23, statistics.MarginQuartiles.P75, 1e-9)
}

func TestBidStatisticsEmptyLedger(t *testing.T) {
	repo := NewBidSampleRepository(setupAuditDB(t), zerolog.Nop())
	service := NewService(staticSnapshots{snap: competitorSnapshot()}, repo, zerolog.Nop())

	statistics, err := service.BidStatistics()
	require.NoError(t, err)

	assert.Equal(t, 0, statistics.Bids)
	assert.Zero(t, statistics.TotalValue)
	assert.Zero(t, statistics.FloorClampRate)
}
