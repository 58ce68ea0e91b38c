package ranking

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/bidfoundry/quotient/internal/events"
	"github.com/bidfoundry/quotient/internal/modules/refdata"
	"github.com/bidfoundry/quotient/internal/modules/tenders"
	"github.com/bidfoundry/quotient/pkg/embedded"
)

type staticSnapshots struct {
	snap *refdata.Snapshot
	err  error
}

func (s staticSnapshots) Snapshot() (*refdata.Snapshot, error) {
	return s.snap, s.err
}

func setupTenderRepo(t *testing.T) *tenders.TenderRepository {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)

	content, err := embedded.Files.ReadFile("schemas/tenders_schema.sql")
	require.NoError(t, err)
	_, err = db.Exec(string(content))
	require.NoError(t, err)

	t.Cleanup(func() { db.Close() })
	return tenders.NewTenderRepository(db, zerolog.Nop())
}

func newTestRankingService(t *testing.T) (*Service, *tenders.TenderRepository, *events.Bus) {
	log := zerolog.Nop()
	bus := events.NewBus(log)
	manager := events.NewManager(bus, log)

	repo := setupTenderRepo(t)
	service := NewService(repo, staticSnapshots{snap: rankingSnapshot()}, manager, log)
	return service, repo, bus
}

func TestRankAllOrdersByPriority(t *testing.T) {
	service, repo, bus := newTestRankingService(t)

	received := make(chan *events.Event, 1)
	unsubscribe := bus.Subscribe(events.RanksUpdated, func(e *events.Event) {
		received <- e
	})
	defer unsubscribe()

	dueSoon := time.Now().UTC().Add(5 * 24 * time.Hour)

	gold := &tenders.Tender{ReferenceCode: "TN-GOLD", Title: "t", ClientID: "CL-NATGRID", DueDate: &dueSoon}
	bronze := &tenders.Tender{ReferenceCode: "TN-BRONZE", Title: "t", ClientID: "CL-METRORAIL", DueDate: &dueSoon}
	cold := &tenders.Tender{ReferenceCode: "TN-COLD", Title: "t", ClientID: "CL-STRANGER"}
	shelved := &tenders.Tender{ReferenceCode: "TN-SHELVED", Title: "t", ClientID: "CL-NATGRID"}

	for _, tender := range []*tenders.Tender{gold, bronze, cold, shelved} {
		require.NoError(t, repo.Create(tender))
	}
	require.NoError(t, repo.SetMatchResult(gold.ID, "PWR-33KV-3C-300", 1.0))
	require.NoError(t, repo.SetMatchResult(bronze.ID, "PWR-33KV-3C-300", 1.0))
	require.NoError(t, repo.SetArchived(shelved.ID, true))

	scores, err := service.RankAll(context.Background())
	require.NoError(t, err)
	require.Len(t, scores, 3)

	assert.Equal(t, gold.ID, scores[0].TenderID)
	assert.Equal(t, bronze.ID, scores[1].TenderID)
	assert.Equal(t, cold.ID, scores[2].TenderID)
	assert.Greater(t, scores[0].Score, scores[1].Score)
	assert.Greater(t, scores[1].Score, scores[2].Score)

	ranked, err := repo.GetByID(gold.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, ranked.PriorityRank)
	assert.Equal(t, tenders.StageStateDone, ranked.RankingStage)
	assert.InDelta(t, scores[0].Score, ranked.PriorityScore, 1e-9)

	last, err := repo.GetByID(cold.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, last.PriorityRank)

	archived, err := repo.GetByID(shelved.ID)
	require.NoError(t, err)
	assert.Equal(t, tenders.UnrankedPriority, archived.PriorityRank)

	select {
	case e := <-received:
		data, ok := e.GetTypedData().(*events.RanksUpdatedData)
		require.True(t, ok)
		assert.Equal(t, 3, data.Ranked)
		assert.Equal(t, 1, data.Archived)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("expected RanksUpdated event")
	}
}

func TestRankAllTieBreaks(t *testing.T) {
	service, repo, _ := newTestRankingService(t)

	// Beyond the urgency horizon a due date adds nothing, so all three
	// score identically. The dated tender still outranks undated ones,
	// and undated ties fall back to reference code order.
	farDue := time.Now().UTC().Add(120 * 24 * time.Hour)

	dated := &tenders.Tender{ReferenceCode: "TN-C", Title: "t", ClientID: "CL-NATGRID", DueDate: &farDue}
	undatedB := &tenders.Tender{ReferenceCode: "TN-B", Title: "t", ClientID: "CL-NATGRID"}
	undatedA := &tenders.Tender{ReferenceCode: "TN-A", Title: "t", ClientID: "CL-NATGRID"}

	for _, tender := range []*tenders.Tender{dated, undatedB, undatedA} {
		require.NoError(t, repo.Create(tender))
		require.NoError(t, repo.SetMatchResult(tender.ID, "PWR-33KV-3C-300", 0.9))
	}

	scores, err := service.RankAll(context.Background())
	require.NoError(t, err)
	require.Len(t, scores, 3)

	assert.Equal(t, scores[0].Score, scores[1].Score)
	assert.Equal(t, scores[1].Score, scores[2].Score)

	assert.Equal(t, dated.ID, scores[0].TenderID)
	assert.Equal(t, undatedA.ID, scores[1].TenderID)
	assert.Equal(t, undatedB.ID, scores[2].TenderID)
}

func TestRankAllSnapshotUnavailable(t *testing.T) {
	log := zerolog.Nop()
	repo := setupTenderRepo(t)
	service := NewService(repo, staticSnapshots{err: errors.New("not booted")}, events.NewManager(events.NewBus(log), log), log)

	_, err := service.RankAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load snapshot")
}

func TestScoreTenderDoesNotPersist(t *testing.T) {
	service, repo, _ := newTestRankingService(t)

	tender := &tenders.Tender{ReferenceCode: "TN-PREVIEW", Title: "t", ClientID: "CL-NATGRID"}
	require.NoError(t, repo.Create(tender))
	require.NoError(t, repo.SetMatchResult(tender.ID, "PWR-33KV-3C-300", 0.8))

	score, err := service.ScoreTender(tender.ID)
	require.NoError(t, err)
	require.NotNil(t, score)
	assert.InDelta(t, 0.8, score.Components["product_fit"], 1e-9)

	got, err := repo.GetByID(tender.ID)
	require.NoError(t, err)
	assert.Equal(t, tenders.UnrankedPriority, got.PriorityRank)

	missing, err := service.ScoreTender("no-such-tender")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
