// Package handlers provides HTTP handlers for bid pricing.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/bidfoundry/quotient/internal/domain"
	"github.com/bidfoundry/quotient/internal/modules/pricing"
)

// Handler provides HTTP handlers for pricing endpoints
type Handler struct {
	service *pricing.Service
	log     zerolog.Logger
}

// NewHandler creates a new pricing handler
func NewHandler(service *pricing.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "pricing").Logger(),
	}
}

// HandleQuote handles POST /api/pricing/quote
//
// Prices a request against the current snapshot without recording it.
func (h *Handler) HandleQuote(w http.ResponseWriter, r *http.Request) {
	var req domain.BidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.ProductSKU == "" || req.ClientID == "" {
		http.Error(w, "product_sku and client_id are required", http.StatusBadRequest)
		return
	}
	if req.ConfirmedQty < 0 || req.DistanceKm < 0 {
		http.Error(w, "confirmed_qty and distance_km must be non-negative", http.StatusBadRequest)
		return
	}

	result, err := h.service.Quote(req)
	if err != nil {
		if domain.IsReferenceNotFound(err) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.log.Error().Err(err).Str("sku", req.ProductSKU).Msg("Failed to price quote")
		http.Error(w, "Failed to price quote", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// HandleGetBid handles GET /api/pricing/bids/{id}
func (h *Handler) HandleGetBid(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	record, err := h.service.Bid(id)
	if err != nil {
		h.log.Error().Err(err).Str("bid_id", id).Msg("Failed to get bid")
		http.Error(w, "Failed to get bid", http.StatusInternalServerError)
		return
	}
	if record == nil {
		http.Error(w, "Bid not found", http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, record)
}

// HandleListBids handles GET /api/pricing/bids
//
// With ?tender_id= returns that tender's audit trail; otherwise the most
// recent bids across all tenders (?limit=, default 50).
func (h *Handler) HandleListBids(w http.ResponseWriter, r *http.Request) {
	if tenderID := r.URL.Query().Get("tender_id"); tenderID != "" {
		records, err := h.service.BidsForTender(tenderID)
		if err != nil {
			h.log.Error().Err(err).Str("tender_id", tenderID).Msg("Failed to list bids for tender")
			http.Error(w, "Failed to list bids", http.StatusInternalServerError)
			return
		}
		h.writeJSON(w, http.StatusOK, map[string]interface{}{
			"tender_id": tenderID,
			"bids":      records,
			"count":     len(records),
		})
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "Invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	records, err := h.service.RecentBids(limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list recent bids")
		http.Error(w, "Failed to list bids", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"bids":  records,
		"count": len(records),
	})
}

// HandleGetPolicy handles GET /api/pricing/policy
func (h *Handler) HandleGetPolicy(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.service.ActivePolicy())
}

// writeJSON writes a JSON response with the given status code
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
