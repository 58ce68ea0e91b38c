// Package handlers provides HTTP handlers for analytics.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/bidfoundry/quotient/internal/modules/analytics"
)

// Handler provides HTTP handlers for analytics endpoints
type Handler struct {
	service *analytics.Service
	log     zerolog.Logger
}

// NewHandler creates a new analytics handler
func NewHandler(service *analytics.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "analytics").Logger(),
	}
}

// HandleCompetitiveLandscape handles GET /api/analytics/competitive
func (h *Handler) HandleCompetitiveLandscape(w http.ResponseWriter, r *http.Request) {
	landscape, err := h.service.CompetitiveLandscape()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute competitive landscape")
		http.Error(w, "Failed to compute competitive landscape", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, landscape)
}

// HandleBidStatistics handles GET /api/analytics/bids
func (h *Handler) HandleBidStatistics(w http.ResponseWriter, r *http.Request) {
	statistics, err := h.service.BidStatistics()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute bid statistics")
		http.Error(w, "Failed to compute bid statistics", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, statistics)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
