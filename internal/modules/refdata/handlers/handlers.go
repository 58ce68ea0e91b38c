// Package handlers provides HTTP handlers for reference data management.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bidfoundry/quotient/internal/domain"
	"github.com/bidfoundry/quotient/internal/modules/refdata"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler provides HTTP handlers for reference data endpoints
type Handler struct {
	service *refdata.Service
	log     zerolog.Logger
}

// NewHandler creates a new refdata handler
func NewHandler(service *refdata.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "refdata").Logger(),
	}
}

// HandleGetSnapshot handles GET /api/refdata/snapshot
func (h *Handler) HandleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.service.Snapshot()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get snapshot")
		http.Error(w, "Snapshot not available", http.StatusServiceUnavailable)
		return
	}

	counts := snapshot.Counts()
	response := map[string]interface{}{
		"version":  snapshot.Version(),
		"built_at": snapshot.BuiltAt().Format(time.RFC3339),
		"counts":   counts,
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleReload handles POST /api/refdata/reload
func (h *Handler) HandleReload(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Reload("api")
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to reload snapshot")
		http.Error(w, "Failed to reload snapshot", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, report)
}

// HandleVolatilityReport handles GET /api/refdata/volatility
func (h *Handler) HandleVolatilityReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.VolatilityReport()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build volatility report")
		http.Error(w, "Failed to build volatility report", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, report)
}

// HandleVolatilityScan handles POST /api/refdata/volatility-scan
func (h *Handler) HandleVolatilityScan(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.service.ScanVolatility()
	if err != nil {
		h.log.Error().Err(err).Msg("Volatility scan failed")
		http.Error(w, "Volatility scan failed", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"alerts": alerts,
		"count":  len(alerts),
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleListProducts handles GET /api/refdata/products
func (h *Handler) HandleListProducts(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.service.Snapshot()
	if err != nil {
		http.Error(w, "Snapshot not available", http.StatusServiceUnavailable)
		return
	}

	products := snapshot.Products()
	response := map[string]interface{}{
		"products": products,
		"count":    len(products),
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleGetProduct handles GET /api/refdata/products/{sku}
func (h *Handler) HandleGetProduct(w http.ResponseWriter, r *http.Request) {
	sku := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "sku")))

	snapshot, err := h.service.Snapshot()
	if err != nil {
		http.Error(w, "Snapshot not available", http.StatusServiceUnavailable)
		return
	}

	product, err := snapshot.ProductBySKU(sku)
	if err != nil {
		if domain.IsReferenceNotFound(err) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.log.Error().Err(err).Str("sku", sku).Msg("Failed to get product")
		http.Error(w, "Failed to get product", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, product)
}

// HandleUpsertProduct handles PUT /api/refdata/products/{sku}
func (h *Handler) HandleUpsertProduct(w http.ResponseWriter, r *http.Request) {
	sku := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "sku")))
	if sku == "" {
		http.Error(w, "SKU is required", http.StatusBadRequest)
		return
	}

	var product domain.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	product.SKU = sku

	if err := h.service.UpsertProduct(product); err != nil {
		h.log.Error().Err(err).Str("sku", sku).Msg("Failed to upsert product")
		http.Error(w, "Failed to upsert product", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, h.mutationResponse())
}

// HandleDeleteProduct handles DELETE /api/refdata/products/{sku}
func (h *Handler) HandleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	sku := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "sku")))
	if sku == "" {
		http.Error(w, "SKU is required", http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteProduct(sku); err != nil {
		h.log.Error().Err(err).Str("sku", sku).Msg("Failed to delete product")
		http.Error(w, "Failed to delete product", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, h.mutationResponse())
}

// HandleListMaterials handles GET /api/refdata/materials
func (h *Handler) HandleListMaterials(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.service.Snapshot()
	if err != nil {
		http.Error(w, "Snapshot not available", http.StatusServiceUnavailable)
		return
	}

	materials := snapshot.Materials()
	response := map[string]interface{}{
		"materials": materials,
		"count":     len(materials),
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleUpsertMaterial handles PUT /api/refdata/materials/{id}
func (h *Handler) HandleUpsertMaterial(w http.ResponseWriter, r *http.Request) {
	id := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "id")))
	if id == "" {
		http.Error(w, "Material ID is required", http.StatusBadRequest)
		return
	}

	var material domain.Material
	if err := json.NewDecoder(r.Body).Decode(&material); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	material.ID = id

	if err := h.service.UpsertMaterial(material); err != nil {
		h.log.Error().Err(err).Str("material_id", id).Msg("Failed to upsert material")
		http.Error(w, "Failed to upsert material", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, h.mutationResponse())
}

// rateUpdate is the request body for a material rate change
type rateUpdate struct {
	RatePerKg float64 `json:"rate_per_kg"`
}

// HandleSetMaterialRate handles PUT /api/refdata/materials/{id}/rate
func (h *Handler) HandleSetMaterialRate(w http.ResponseWriter, r *http.Request) {
	id := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "id")))
	if id == "" {
		http.Error(w, "Material ID is required", http.StatusBadRequest)
		return
	}

	var update rateUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if update.RatePerKg <= 0 {
		http.Error(w, "rate_per_kg must be positive", http.StatusBadRequest)
		return
	}

	if err := h.service.SetMaterialRate(id, update.RatePerKg); err != nil {
		if domain.IsReferenceNotFound(err) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.log.Error().Err(err).Str("material_id", id).Msg("Failed to set material rate")
		http.Error(w, "Failed to set material rate", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, h.mutationResponse())
}

// HandleGetRateHistory handles GET /api/refdata/materials/{id}/rate-history
func (h *Handler) HandleGetRateHistory(w http.ResponseWriter, r *http.Request) {
	id := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "id")))
	if id == "" {
		http.Error(w, "Material ID is required", http.StatusBadRequest)
		return
	}

	days := 30
	if daysStr := r.URL.Query().Get("days"); daysStr != "" {
		parsed, err := strconv.Atoi(daysStr)
		if err != nil || parsed <= 0 {
			http.Error(w, "days must be a positive integer", http.StatusBadRequest)
			return
		}
		days = parsed
	}

	entries, err := h.service.RateHistory(id, days)
	if err != nil {
		h.log.Error().Err(err).Str("material_id", id).Msg("Failed to get rate history")
		http.Error(w, "Failed to get rate history", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"material_id": id,
		"days":        days,
		"entries":     entries,
		"count":       len(entries),
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleListZones handles GET /api/refdata/zones
func (h *Handler) HandleListZones(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.service.Snapshot()
	if err != nil {
		http.Error(w, "Snapshot not available", http.StatusServiceUnavailable)
		return
	}

	zones := snapshot.Zones()
	response := map[string]interface{}{
		"zones": zones,
		"count": len(zones),
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleUpsertZone handles PUT /api/refdata/zones/{keyword}
func (h *Handler) HandleUpsertZone(w http.ResponseWriter, r *http.Request) {
	keyword := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "keyword")))
	if keyword == "" {
		http.Error(w, "Zone keyword is required", http.StatusBadRequest)
		return
	}

	var zone domain.LogisticsZone
	if err := json.NewDecoder(r.Body).Decode(&zone); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	zone.Keyword = keyword

	if zone.SurchargeMultiplier <= 0 {
		http.Error(w, "surcharge_multiplier must be positive", http.StatusBadRequest)
		return
	}

	if err := h.service.UpsertZone(zone); err != nil {
		h.log.Error().Err(err).Str("keyword", keyword).Msg("Failed to upsert zone")
		http.Error(w, "Failed to upsert zone", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, h.mutationResponse())
}

// HandleDeleteZone handles DELETE /api/refdata/zones/{keyword}
func (h *Handler) HandleDeleteZone(w http.ResponseWriter, r *http.Request) {
	keyword := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "keyword")))
	if keyword == "" {
		http.Error(w, "Zone keyword is required", http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteZone(keyword); err != nil {
		h.log.Error().Err(err).Str("keyword", keyword).Msg("Failed to delete zone")
		http.Error(w, "Failed to delete zone", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, h.mutationResponse())
}

// HandleListTestCosts handles GET /api/refdata/test-costs
func (h *Handler) HandleListTestCosts(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.service.Snapshot()
	if err != nil {
		http.Error(w, "Snapshot not available", http.StatusServiceUnavailable)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"test_costs": snapshot.TestCosts(),
	})
}

// HandleUpsertTestCost handles PUT /api/refdata/test-costs/{class}
func (h *Handler) HandleUpsertTestCost(w http.ResponseWriter, r *http.Request) {
	class := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "class")))
	if class != string(domain.VoltageHV) && class != string(domain.VoltageLV) {
		http.Error(w, "Voltage class must be HV or LV", http.StatusBadRequest)
		return
	}

	var tc domain.TestCost
	if err := json.NewDecoder(r.Body).Decode(&tc); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	tc.VoltageClass = domain.VoltageClass(class)

	if err := h.service.UpsertTestCost(tc); err != nil {
		h.log.Error().Err(err).Str("voltage_class", class).Msg("Failed to upsert test cost")
		http.Error(w, "Failed to upsert test cost", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, h.mutationResponse())
}

// HandleListCompetitors handles GET /api/refdata/competitors
func (h *Handler) HandleListCompetitors(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.service.Snapshot()
	if err != nil {
		http.Error(w, "Snapshot not available", http.StatusServiceUnavailable)
		return
	}

	competitors := snapshot.Competitors()
	response := map[string]interface{}{
		"competitors": competitors,
		"count":       len(competitors),
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleUpsertCompetitor handles PUT /api/refdata/competitors/{id}
func (h *Handler) HandleUpsertCompetitor(w http.ResponseWriter, r *http.Request) {
	id := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "id")))
	if id == "" {
		http.Error(w, "Competitor ID is required", http.StatusBadRequest)
		return
	}

	var competitor domain.Competitor
	if err := json.NewDecoder(r.Body).Decode(&competitor); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	competitor.ID = id

	if err := h.service.UpsertCompetitor(competitor); err != nil {
		h.log.Error().Err(err).Str("competitor_id", id).Msg("Failed to upsert competitor")
		http.Error(w, "Failed to upsert competitor", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, h.mutationResponse())
}

// HandleListClients handles GET /api/refdata/clients
func (h *Handler) HandleListClients(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.service.Snapshot()
	if err != nil {
		http.Error(w, "Snapshot not available", http.StatusServiceUnavailable)
		return
	}

	clients := snapshot.Clients()
	response := map[string]interface{}{
		"clients": clients,
		"count":   len(clients),
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleUpsertClient handles PUT /api/refdata/clients/{id}
func (h *Handler) HandleUpsertClient(w http.ResponseWriter, r *http.Request) {
	id := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "id")))
	if id == "" {
		http.Error(w, "Client ID is required", http.StatusBadRequest)
		return
	}

	var client domain.Client
	if err := json.NewDecoder(r.Body).Decode(&client); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	client.ID = id

	if err := h.service.UpsertClient(client); err != nil {
		h.log.Error().Err(err).Str("client_id", id).Msg("Failed to upsert client")
		http.Error(w, "Failed to upsert client", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, h.mutationResponse())
}

// HandleListUtilization handles GET /api/refdata/utilization
func (h *Handler) HandleListUtilization(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.service.Snapshot()
	if err != nil {
		http.Error(w, "Snapshot not available", http.StatusServiceUnavailable)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"utilization": snapshot.Utilization(),
	})
}

// HandleUpsertUtilization handles PUT /api/refdata/utilization/{category}
func (h *Handler) HandleUpsertUtilization(w http.ResponseWriter, r *http.Request) {
	category := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "category")))
	if category == "" {
		http.Error(w, "Category is required", http.StatusBadRequest)
		return
	}

	var util domain.Utilization
	if err := json.NewDecoder(r.Body).Decode(&util); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	util.Category = category

	if util.Pct < 0 || util.Pct > 100 {
		http.Error(w, "pct must be between 0 and 100", http.StatusBadRequest)
		return
	}

	if err := h.service.UpsertUtilization(util); err != nil {
		h.log.Error().Err(err).Str("category", category).Msg("Failed to upsert utilization")
		http.Error(w, "Failed to upsert utilization", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, h.mutationResponse())
}

// mutationResponse is the common response for successful writes. Every write
// triggers a synchronous snapshot rebuild, so the new version is authoritative.
func (h *Handler) mutationResponse() map[string]interface{} {
	return map[string]interface{}{
		"status":           "ok",
		"snapshot_version": h.service.Version(),
	}
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
