// Package handlers provides HTTP handlers for requirement matching.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/bidfoundry/quotient/internal/modules/matching"
)

// Handler provides HTTP handlers for matching endpoints
type Handler struct {
	service *matching.Service
	log     zerolog.Logger
}

// NewHandler creates a new matching handler
func NewHandler(service *matching.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "matching").Logger(),
	}
}

// HandleResolve handles POST /api/matching/resolve
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	var req matching.Requirement
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	resolution, err := h.service.Resolve(req)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to resolve requirement")
		http.Error(w, "Failed to resolve requirement", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, resolution)
}

// writeJSON writes a JSON response with the given status code
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
