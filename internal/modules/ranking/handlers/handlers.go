// Package handlers provides HTTP handlers for tender ranking.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/bidfoundry/quotient/internal/modules/ranking"
)

// Handler provides HTTP handlers for ranking endpoints
type Handler struct {
	service *ranking.Service
	log     zerolog.Logger
}

// NewHandler creates a new ranking handler
func NewHandler(service *ranking.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "ranking").Logger(),
	}
}

// HandleQueue handles GET /api/ranking
//
// Returns the persisted priority queue, best first.
func (h *Handler) HandleQueue(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.Queue()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load priority queue")
		http.Error(w, "Failed to load priority queue", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"queue": entries,
		"count": len(entries),
	})
}

// HandleRerank handles POST /api/ranking/rebuild
//
// Rescores every active tender and persists the new ordering.
func (h *Handler) HandleRerank(w http.ResponseWriter, r *http.Request) {
	scores, err := h.service.RankAll(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to rerank tenders")
		http.Error(w, "Failed to rerank tenders", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"ranked": len(scores),
		"scores": scores,
	})
}

// HandleScoreTender handles GET /api/ranking/score/{id}
//
// Returns the tender's current priority score without persisting it.
func (h *Handler) HandleScoreTender(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	score, err := h.service.ScoreTender(id)
	if err != nil {
		h.log.Error().Err(err).Str("tender_id", id).Msg("Failed to score tender")
		http.Error(w, "Failed to score tender", http.StatusInternalServerError)
		return
	}
	if score == nil {
		http.Error(w, "Tender not found", http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, score)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
