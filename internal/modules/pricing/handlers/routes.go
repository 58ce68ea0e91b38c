package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all pricing routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/pricing", func(r chi.Router) {
		r.Post("/quote", h.HandleQuote)
		r.Get("/policy", h.HandleGetPolicy)

		// Audit ledger (read-only; bids are written through tender pricing)
		r.Get("/bids", h.HandleListBids)
		r.Get("/bids/{id}", h.HandleGetBid)
	})
}
