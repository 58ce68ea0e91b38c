package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers tender endpoints on the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/tenders", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/", h.HandleList)
		r.Get("/dashboard", h.HandleDashboard)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.HandleGet)
			r.Delete("/", h.HandleDelete)
			r.Put("/line-item", h.HandleUpdateLineItem)
			r.Put("/status", h.HandleSetStatus)
			r.Post("/archive", h.HandleArchive)
			r.Post("/unarchive", h.HandleUnarchive)
			r.Post("/resolve", h.HandleResolve)
			r.Post("/price", h.HandlePrice)
			r.Get("/bids", h.HandleBidHistory)
		})
	})
}
