package work

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHandlerHarness(t *testing.T, registry *Registry) (*Handlers, *chi.Mux, *JobHistory) {
	history := newTestHistory(t)
	processor := NewProcessorWithTimeout(registry, NewCompletionTracker(), NewTimingChecker(), history, zerolog.Nop(), time.Second)

	handlers := NewHandlers(processor, registry, history)

	r := chi.NewRouter()
	handlers.RegisterRoutes(r)

	return handlers, r, history
}

func TestNewHandlers(t *testing.T) {
	registry := NewRegistry()
	handlers, _, _ := newHandlerHarness(t, registry)

	assert.NotNil(t, handlers)
}

func TestHandlers_ListJobs(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&WorkType{
		ID:           "tenders:reprice",
		DependsOn:    []string{"snapshot:reload"},
		Priority:     PriorityHigh,
		FindSubjects: func() []string { return nil },
		Execute: func(ctx context.Context, subject string) error {
			return nil
		},
	})
	registry.Register(&WorkType{
		ID:           "backup:local",
		Priority:     PriorityLow,
		Timing:       OffHours,
		Interval:     24 * time.Hour,
		FindSubjects: func() []string { return nil },
		Execute: func(ctx context.Context, subject string) error {
			return nil
		},
	})

	_, router, _ := newHandlerHarness(t, registry)

	req := httptest.NewRequest(http.MethodGet, "/jobs", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var response struct {
		Jobs  []map[string]any `json:"jobs"`
		Count int              `json:"count"`
	}
	err := json.NewDecoder(rec.Body).Decode(&response)
	require.NoError(t, err)
	require.Equal(t, 2, response.Count)

	// Priority order: reprice first
	assert.Equal(t, "tenders:reprice", response.Jobs[0]["id"])
	assert.Equal(t, "High", response.Jobs[0]["priority"])
	assert.Equal(t, "backup:local", response.Jobs[1]["id"])
	assert.Equal(t, "OffHours", response.Jobs[1]["timing"])
	assert.Equal(t, "24h0m0s", response.Jobs[1]["interval"])

	// Nothing has run yet
	_, hasLast := response.Jobs[0]["last_completed_at"]
	assert.False(t, hasLast)
}

func TestHandlers_ListJobs_LastCompletion(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&WorkType{
		ID:           "tenders:rerank",
		FindSubjects: func() []string { return nil },
		Execute: func(ctx context.Context, subject string) error {
			return nil
		},
	})

	_, router, _ := newHandlerHarness(t, registry)

	req := httptest.NewRequest(http.MethodPost, "/jobs/tenders:rerank/run", nil)
	router.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/jobs", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Jobs []map[string]any `json:"jobs"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	require.Len(t, response.Jobs, 1)
	assert.NotEmpty(t, response.Jobs[0]["last_completed_at"])
}

func TestHandlers_RunJob(t *testing.T) {
	registry := NewRegistry()

	executed := atomic.Bool{}
	registry.Register(&WorkType{
		ID:           "tenders:rerank",
		FindSubjects: func() []string { return nil },
		Execute: func(ctx context.Context, subject string) error {
			executed.Store(true)
			return nil
		},
	})

	_, router, _ := newHandlerHarness(t, registry)

	req := httptest.NewRequest(http.MethodPost, "/jobs/tenders:rerank/run", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, executed.Load())

	var response map[string]string
	err := json.NewDecoder(rec.Body).Decode(&response)
	require.NoError(t, err)
	assert.Equal(t, "executed", response["status"])
	assert.Equal(t, "tenders:rerank", response["job"])
}

func TestHandlers_RunJob_Unknown(t *testing.T) {
	_, router, _ := newHandlerHarness(t, NewRegistry())

	req := httptest.NewRequest(http.MethodPost, "/jobs/unknown:work/run", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown work type")
}

func TestHandlers_RunJobWithSubject(t *testing.T) {
	registry := NewRegistry()

	var gotSubject atomic.Value
	registry.Register(&WorkType{
		ID:           "tenders:reprice",
		FindSubjects: func() []string { return nil },
		Execute: func(ctx context.Context, subject string) error {
			gotSubject.Store(subject)
			return nil
		},
	})

	_, router, _ := newHandlerHarness(t, registry)

	req := httptest.NewRequest(http.MethodPost, "/jobs/tenders:reprice/TN-2026-001/run", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "TN-2026-001", gotSubject.Load())

	var response map[string]string
	err := json.NewDecoder(rec.Body).Decode(&response)
	require.NoError(t, err)
	assert.Equal(t, "TN-2026-001", response["subject"])
}

func TestHandlers_ListHistory(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&WorkType{
		ID:           "tenders:rerank",
		FindSubjects: func() []string { return nil },
		Execute: func(ctx context.Context, subject string) error {
			return nil
		},
	})

	_, router, _ := newHandlerHarness(t, registry)

	// Run something so history has a row
	req := httptest.NewRequest(http.MethodPost, "/jobs/tenders:rerank/run", nil)
	router.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/jobs/history", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Runs  []JobRun `json:"runs"`
		Count int      `json:"count"`
	}
	err := json.NewDecoder(rec.Body).Decode(&response)
	require.NoError(t, err)
	require.Equal(t, 1, response.Count)
	assert.Equal(t, "tenders:rerank", response.Runs[0].TypeID)
	assert.Equal(t, "completed", response.Runs[0].Status)
}

func TestHandlers_ListHistory_InvalidLimit(t *testing.T) {
	_, router, _ := newHandlerHarness(t, NewRegistry())

	req := httptest.NewRequest(http.MethodGet, "/jobs/history?limit=bogus", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlers_TriggerProcessor(t *testing.T) {
	_, router, _ := newHandlerHarness(t, NewRegistry())

	req := httptest.NewRequest(http.MethodPost, "/jobs/trigger", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response map[string]string
	err := json.NewDecoder(rec.Body).Decode(&response)
	require.NoError(t, err)
	assert.Equal(t, "triggered", response["status"])
}
