package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers settings endpoints on the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/settings", func(r chi.Router) {
		r.Get("/", h.HandleGetAll)
		r.Get("/policy", h.HandlePolicy)
		r.Get("/{key}", h.HandleGet)
		r.Put("/{key}", h.HandleUpdate)
		r.Delete("/{key}", h.HandleReset)
	})
}
