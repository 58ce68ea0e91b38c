package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers analytics endpoints on the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/analytics", func(r chi.Router) {
		r.Get("/competitive", h.HandleCompetitiveLandscape)
		r.Get("/bids", h.HandleBidStatistics)
	})
}
