// Package server provides the HTTP server and routing for Quotient.
package server

import (
	"encoding/json"
	"net/http"

	"github.com/bidfoundry/quotient/internal/version"
)

// handleHealth handles health check requests. Reports liveness plus a
// per-database ping so operators see which store is unhappy.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	databases := s.container.HealthService.CheckAll(r.Context())

	status := "healthy"
	for _, db := range databases {
		if !db.Healthy {
			status = "degraded"
			break
		}
	}

	response := map[string]interface{}{
		"status":    status,
		"service":   "quotient",
		"version":   version.Version,
		"databases": databases,
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	s.writeJSON(w, code, response)
}

// handleDashboard handles GET /api/dashboard.
//
// One round trip for the overview screen: tender KPIs, the competitive
// landscape and the audit-ledger statistics.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := s.container.TenderService.DashboardStats()
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to collect dashboard stats")
		http.Error(w, "Failed to collect dashboard stats", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"tenders": stats,
	}

	// Analytics blocks are best-effort: an empty competitor table or an
	// empty ledger must not blank the whole dashboard.
	if landscape, err := s.container.AnalyticsService.CompetitiveLandscape(); err != nil {
		s.log.Warn().Err(err).Msg("Dashboard: competitive landscape unavailable")
	} else {
		response["competitive"] = landscape
	}

	if bidStats, err := s.container.AnalyticsService.BidStatistics(); err != nil {
		s.log.Warn().Err(err).Msg("Dashboard: bid statistics unavailable")
	} else {
		response["bids"] = bidStats
	}

	s.writeJSON(w, http.StatusOK, response)
}

// handleBackupRun handles POST /api/backup/run. Runs the local backup
// synchronously; remote upload stays with the nightly work item.
func (s *Server) handleBackupRun(w http.ResponseWriter, r *http.Request) {
	if err := s.container.BackupService.RunDailyBackup(); err != nil {
		s.log.Error().Err(err).Msg("Manual backup failed")
		http.Error(w, "Backup failed", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
