package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all reference data routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/refdata", func(r chi.Router) {
		// Snapshot lifecycle
		r.Get("/snapshot", h.HandleGetSnapshot)
		r.Post("/reload", h.HandleReload)

		// Rate watch
		r.Get("/volatility", h.HandleVolatilityReport)
		r.Post("/volatility-scan", h.HandleVolatilityScan)

		// Products and their bills of materials
		r.Get("/products", h.HandleListProducts)
		r.Get("/products/{sku}", h.HandleGetProduct)
		r.Put("/products/{sku}", h.HandleUpsertProduct)
		r.Delete("/products/{sku}", h.HandleDeleteProduct)

		// Materials and rates
		r.Get("/materials", h.HandleListMaterials)
		r.Put("/materials/{id}", h.HandleUpsertMaterial)
		r.Put("/materials/{id}/rate", h.HandleSetMaterialRate)
		r.Get("/materials/{id}/rate-history", h.HandleGetRateHistory)

		// Logistics zones
		r.Get("/zones", h.HandleListZones)
		r.Put("/zones/{keyword}", h.HandleUpsertZone)
		r.Delete("/zones/{keyword}", h.HandleDeleteZone)

		// Type-test costs
		r.Get("/test-costs", h.HandleListTestCosts)
		r.Put("/test-costs/{class}", h.HandleUpsertTestCost)

		// Competitors
		r.Get("/competitors", h.HandleListCompetitors)
		r.Put("/competitors/{id}", h.HandleUpsertCompetitor)

		// Clients
		r.Get("/clients", h.HandleListClients)
		r.Put("/clients/{id}", h.HandleUpsertClient)

		// Factory utilization
		r.Get("/utilization", h.HandleListUtilization)
		r.Put("/utilization/{category}", h.HandleUpsertUtilization)
	})
}
