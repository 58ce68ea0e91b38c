package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all matching routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/matching", func(r chi.Router) {
		r.Post("/resolve", h.HandleResolve)
	})
}
