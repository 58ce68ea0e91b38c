package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bidfoundry/quotient/internal/config"
	"github.com/bidfoundry/quotient/internal/di"
	qtesting "github.com/bidfoundry/quotient/internal/testing"
)

// newTestServer wires a full container against temp directories and
// returns a server ready to serve requests through its router.
func newTestServer(t *testing.T, mutate func(*config.Config)) (*Server, *di.Container) {
	t.Helper()

	cfg := &config.Config{
		DataDir:   t.TempDir(),
		BackupDir: t.TempDir(),
		LogLevel:  "error",
		Port:      0,
		DevMode:   true,
	}
	if mutate != nil {
		mutate(cfg)
	}

	log := zerolog.Nop()
	container, err := di.Wire(cfg, log)
	require.NoError(t, err)
	t.Cleanup(container.Close)

	require.NoError(t, container.RefdataService.Boot())

	srv := New(Config{
		Log:       log,
		Config:    cfg,
		Port:      cfg.Port,
		DevMode:   cfg.DevMode,
		Container: container,
	})
	return srv, container
}

func doRequest(t *testing.T, srv *Server, method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := doRequest(t, srv, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Status    string `json:"status"`
		Service   string `json:"service"`
		Version   string `json:"version"`
		Databases []struct {
			Name    string `json:"name"`
			Healthy bool   `json:"healthy"`
		} `json:"databases"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))

	assert.Equal(t, "healthy", response.Status)
	assert.Equal(t, "quotient", response.Service)
	assert.NotEmpty(t, response.Version)
	assert.Len(t, response.Databases, 5)
	for _, db := range response.Databases {
		assert.True(t, db.Healthy, "database %s should be healthy", db.Name)
	}
}

func TestDashboardEndpoint(t *testing.T) {
	srv, container := newTestServer(t, nil)

	for _, tender := range qtesting.NewTenderFixtures() {
		require.NoError(t, container.TenderService.Create(tender))
	}

	rec := doRequest(t, srv, http.MethodGet, "/api/dashboard", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Tenders struct {
			ActiveTenders   int   `json:"active_tenders"`
			PricedTenders   int   `json:"priced_tenders"`
			SnapshotVersion int64 `json:"snapshot_version"`
		} `json:"tenders"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))

	// The archived/closed fixture is excluded from the active count.
	assert.Equal(t, 2, response.Tenders.ActiveTenders)
	assert.Equal(t, 1, response.Tenders.PricedTenders)
	assert.GreaterOrEqual(t, response.Tenders.SnapshotVersion, int64(1))
}

func TestAdminGate(t *testing.T) {
	updateBody := []byte(`{"value": 0.25}`)

	t.Run("dev mode with no key configured allows mutations", func(t *testing.T) {
		srv, _ := newTestServer(t, nil)

		rec := doRequest(t, srv, http.MethodPut, "/api/settings/pricing_base_margin_pct", updateBody, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("production with no key configured rejects mutations", func(t *testing.T) {
		srv, _ := newTestServer(t, func(cfg *config.Config) {
			cfg.DevMode = false
		})

		rec := doRequest(t, srv, http.MethodPut, "/api/settings/pricing_base_margin_pct", updateBody, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("wrong key is rejected", func(t *testing.T) {
		srv, _ := newTestServer(t, func(cfg *config.Config) {
			cfg.DevMode = false
			cfg.AdminKey = "correct-key"
		})

		rec := doRequest(t, srv, http.MethodPut, "/api/settings/pricing_base_margin_pct", updateBody, map[string]string{
			"X-Admin-Key": "wrong-key",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("correct key is accepted", func(t *testing.T) {
		srv, _ := newTestServer(t, func(cfg *config.Config) {
			cfg.DevMode = false
			cfg.AdminKey = "correct-key"
		})

		rec := doRequest(t, srv, http.MethodPut, "/api/settings/pricing_base_margin_pct", updateBody, map[string]string{
			"X-Admin-Key": "correct-key",
		})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("reads pass the gate without a key", func(t *testing.T) {
		srv, _ := newTestServer(t, func(cfg *config.Config) {
			cfg.DevMode = false
			cfg.AdminKey = "correct-key"
		})

		rec := doRequest(t, srv, http.MethodGet, "/api/settings/", nil, nil)
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = doRequest(t, srv, http.MethodGet, "/api/refdata/products", nil, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestManualBackupRun(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := doRequest(t, srv, http.MethodPost, "/api/backup/run", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var response map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "completed", response["status"])
}

func TestPriceQuoteThroughRouter(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	request := qtesting.NewBidRequestFixture()
	body, err := json.Marshal(request)
	require.NoError(t, err)

	rec := doRequest(t, srv, http.MethodPost, "/api/pricing/quote", body, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var response struct {
		FinalBidValue float64 `json:"final_bid_value"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Greater(t, response.FinalBidValue, 0.0)
}
