// Package handlers provides HTTP handlers for the tender lifecycle.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/bidfoundry/quotient/internal/domain"
	"github.com/bidfoundry/quotient/internal/modules/matching"
	"github.com/bidfoundry/quotient/internal/modules/tenders"
)

// Handler provides HTTP handlers for tender endpoints
type Handler struct {
	service *tenders.Service
	log     zerolog.Logger
}

// NewHandler creates a new tender handler
func NewHandler(service *tenders.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "tenders").Logger(),
	}
}

type createTenderRequest struct {
	ReferenceCode    string     `json:"reference_code"`
	Title            string     `json:"title"`
	ClientID         string     `json:"client_id"`
	ProductSKU       string     `json:"product_sku"`
	ConfirmedQty     float64    `json:"confirmed_qty"`
	DeliveryLocation string     `json:"delivery_location"`
	DistanceKm       float64    `json:"distance_km"`
	PaymentTerms     string     `json:"payment_terms"`
	CompetitorIDs    []string   `json:"competitor_ids"`
	RequirementHint  string     `json:"requirement_hint"`
	DueDate          *time.Time `json:"due_date"`
}

// HandleCreate handles POST /api/tenders
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createTenderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.ReferenceCode == "" || req.Title == "" || req.ClientID == "" {
		http.Error(w, "reference_code, title and client_id are required", http.StatusBadRequest)
		return
	}
	if req.ConfirmedQty < 0 || req.DistanceKm < 0 {
		http.Error(w, "confirmed_qty and distance_km must be non-negative", http.StatusBadRequest)
		return
	}

	tender := &tenders.Tender{
		ReferenceCode:    req.ReferenceCode,
		Title:            req.Title,
		ClientID:         req.ClientID,
		ProductSKU:       req.ProductSKU,
		ConfirmedQty:     req.ConfirmedQty,
		DeliveryLocation: req.DeliveryLocation,
		DistanceKm:       req.DistanceKm,
		PaymentTerms:     req.PaymentTerms,
		CompetitorIDs:    req.CompetitorIDs,
		RequirementHint:  req.RequirementHint,
		DueDate:          req.DueDate,
	}

	if err := h.service.Create(tender); err != nil {
		if tenders.IsDuplicateReference(err) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		h.log.Error().Err(err).Str("reference_code", req.ReferenceCode).Msg("Failed to create tender")
		http.Error(w, "Failed to create tender", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusCreated, tender)
}

// HandleList handles GET /api/tenders
//
// Supports ?status=, ?client_id= and ?archived=true|false filters.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	filter := tenders.ListFilter{
		Status:   r.URL.Query().Get("status"),
		ClientID: r.URL.Query().Get("client_id"),
	}
	if raw := r.URL.Query().Get("archived"); raw != "" {
		archived, err := strconv.ParseBool(raw)
		if err != nil {
			http.Error(w, "archived must be true or false", http.StatusBadRequest)
			return
		}
		filter.Archived = &archived
	}

	list, err := h.service.List(filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list tenders")
		http.Error(w, "Failed to list tenders", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"tenders": list,
		"count":   len(list),
	})
}

// HandleGet handles GET /api/tenders/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	tender, err := h.service.Get(id)
	if err != nil {
		h.log.Error().Err(err).Str("tender_id", id).Msg("Failed to get tender")
		http.Error(w, "Failed to get tender", http.StatusInternalServerError)
		return
	}
	if tender == nil {
		http.Error(w, "Tender not found", http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, tender)
}

// HandleUpdateLineItem handles PUT /api/tenders/{id}/line-item
func (h *Handler) HandleUpdateLineItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var line tenders.LineItem
	if err := json.NewDecoder(r.Body).Decode(&line); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if line.ConfirmedQty < 0 || line.DistanceKm < 0 {
		http.Error(w, "confirmed_qty and distance_km must be non-negative", http.StatusBadRequest)
		return
	}

	if err := h.service.UpdateLineItem(id, line); err != nil {
		if domain.IsReferenceNotFound(err) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.log.Error().Err(err).Str("tender_id", id).Msg("Failed to update line item")
		http.Error(w, "Failed to update line item", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"tender_id": id,
		"updated":   true,
	})
}

// HandleSetStatus handles PUT /api/tenders/{id}/status
func (h *Handler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Status == "" {
		http.Error(w, "status is required", http.StatusBadRequest)
		return
	}

	if err := h.service.SetStatus(id, req.Status); err != nil {
		if domain.IsReferenceNotFound(err) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"tender_id": id,
		"status":    req.Status,
	})
}

// HandleArchive handles POST /api/tenders/{id}/archive
func (h *Handler) HandleArchive(w http.ResponseWriter, r *http.Request) {
	h.setArchived(w, r, true)
}

// HandleUnarchive handles POST /api/tenders/{id}/unarchive
func (h *Handler) HandleUnarchive(w http.ResponseWriter, r *http.Request) {
	h.setArchived(w, r, false)
}

func (h *Handler) setArchived(w http.ResponseWriter, r *http.Request, archived bool) {
	id := chi.URLParam(r, "id")

	var err error
	if archived {
		err = h.service.Archive(id)
	} else {
		err = h.service.Unarchive(id)
	}
	if err != nil {
		if domain.IsReferenceNotFound(err) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.log.Error().Err(err).Str("tender_id", id).Msg("Failed to change archive flag")
		http.Error(w, "Failed to change archive flag", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"tender_id": id,
		"archived":  archived,
	})
}

// HandleDelete handles DELETE /api/tenders/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(id); err != nil {
		if domain.IsReferenceNotFound(err) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.log.Error().Err(err).Str("tender_id", id).Msg("Failed to delete tender")
		http.Error(w, "Failed to delete tender", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"tender_id": id,
		"deleted":   true,
	})
}

// HandleResolve handles POST /api/tenders/{id}/resolve
//
// Runs catalog matching for the tender and stores the best match.
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req matching.Requirement
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	resolution, err := h.service.ResolveTender(id, req)
	if err != nil {
		if domain.IsReferenceNotFound(err) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.log.Error().Err(err).Str("tender_id", id).Msg("Failed to resolve tender requirement")
		http.Error(w, "Failed to resolve tender requirement", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, resolution)
}

// HandlePrice handles POST /api/tenders/{id}/price
//
// Prices the tender's resolved line item and records the bid.
func (h *Handler) HandlePrice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	record, err := h.service.PriceTender(id)
	if err != nil {
		if domain.IsReferenceNotFound(err) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if tenders.IsNotPriceable(err) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		h.log.Error().Err(err).Str("tender_id", id).Msg("Failed to price tender")
		http.Error(w, "Failed to price tender", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, record)
}

// HandleBidHistory handles GET /api/tenders/{id}/bids
func (h *Handler) HandleBidHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	records, err := h.service.BidHistory(id)
	if err != nil {
		if domain.IsReferenceNotFound(err) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.log.Error().Err(err).Str("tender_id", id).Msg("Failed to load bid history")
		http.Error(w, "Failed to load bid history", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"tender_id": id,
		"bids":      records,
		"count":     len(records),
	})
}

// HandleDashboard handles GET /api/tenders/dashboard
func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.DashboardStats()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build dashboard stats")
		http.Error(w, "Failed to build dashboard stats", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
