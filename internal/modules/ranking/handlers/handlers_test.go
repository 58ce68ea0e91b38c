package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/bidfoundry/quotient/internal/domain"
	"github.com/bidfoundry/quotient/internal/events"
	"github.com/bidfoundry/quotient/internal/modules/ranking"
	"github.com/bidfoundry/quotient/internal/modules/refdata"
	"github.com/bidfoundry/quotient/internal/modules/tenders"
	"github.com/bidfoundry/quotient/pkg/embedded"
)

type staticSnapshots struct {
	snap *refdata.Snapshot
}

func (s staticSnapshots) Snapshot() (*refdata.Snapshot, error) {
	return s.snap, nil
}

func setupTestHandler(t *testing.T) (*Handler, *tenders.TenderRepository) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)

	content, err := embedded.Files.ReadFile("schemas/tenders_schema.sql")
	require.NoError(t, err)
	_, err = db.Exec(string(content))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := zerolog.Nop()
	manager := events.NewManager(events.NewBus(log), log)

	snap := refdata.NewSnapshot(1, nil, nil, nil, nil, nil, []domain.Client{
		{ID: "CL-NATGRID", Name: "Natgrid Power Corporation", LoyaltyTier: domain.LoyaltyGold},
	}, nil)

	repo := tenders.NewTenderRepository(db, log)
	service := ranking.NewService(repo, staticSnapshots{snap: snap}, manager, log)
	return NewHandler(service, log), repo
}

func TestHandleRerank(t *testing.T) {
	h, repo := setupTestHandler(t)
	router := chi.NewRouter()
	h.RegisterRoutes(router)

	due := time.Now().UTC().Add(10 * 24 * time.Hour)
	tender := &tenders.Tender{ReferenceCode: "TN-RR-1", Title: "t", ClientID: "CL-NATGRID", DueDate: &due}
	require.NoError(t, repo.Create(tender))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/ranking/rebuild", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, float64(1), resp["ranked"])

	got, err := repo.GetByID(tender.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.PriorityRank)
}

func TestHandleQueue(t *testing.T) {
	h, repo := setupTestHandler(t)
	router := chi.NewRouter()
	h.RegisterRoutes(router)

	due := time.Now().UTC().Add(5 * 24 * time.Hour)
	first := &tenders.Tender{ReferenceCode: "TN-Q-1", Title: "grid spares", ClientID: "CL-NATGRID", DueDate: &due}
	second := &tenders.Tender{ReferenceCode: "TN-Q-2", Title: "depot feeder", ClientID: "CL-OTHER"}
	require.NoError(t, repo.Create(first))
	require.NoError(t, repo.Create(second))

	// Unranked tenders stay off the queue
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/ranking", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, float64(0), resp["count"])

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/ranking/rebuild", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/ranking", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	resp = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, float64(2), resp["count"])

	queue, ok := resp["queue"].([]interface{})
	require.True(t, ok)
	top, ok := queue[0].(map[string]interface{})
	require.True(t, ok)
	// Gold-tier client with a near deadline outranks the stranger
	assert.Equal(t, "TN-Q-1", top["reference_code"])
	assert.Equal(t, float64(1), top["rank"])
}

func TestHandleScoreTender(t *testing.T) {
	h, repo := setupTestHandler(t)
	router := chi.NewRouter()
	h.RegisterRoutes(router)

	tender := &tenders.Tender{ReferenceCode: "TN-RR-2", Title: "t", ClientID: "CL-NATGRID"}
	require.NoError(t, repo.Create(tender))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/ranking/score/"+tender.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var score map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &score))
	assert.Equal(t, tender.ID, score["tender_id"])

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/ranking/score/no-such-id", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
