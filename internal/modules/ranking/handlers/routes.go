package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers ranking endpoints on the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/ranking", func(r chi.Router) {
		r.Get("/", h.HandleQueue)
		r.Post("/rebuild", h.HandleRerank)
		r.Get("/score/{id}", h.HandleScoreTender)
	})
}
