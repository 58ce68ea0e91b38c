// Package handlers provides HTTP handlers for runtime settings.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/bidfoundry/quotient/internal/events"
	"github.com/bidfoundry/quotient/internal/modules/settings"
)

// Handler provides HTTP handlers for settings endpoints
type Handler struct {
	service      *settings.Service
	eventManager *events.Manager
	log          zerolog.Logger
}

// NewHandler creates a new settings handler
func NewHandler(service *settings.Service, eventManager *events.Manager, log zerolog.Logger) *Handler {
	return &Handler{
		service:      service,
		eventManager: eventManager,
		log:          log.With().Str("handler", "settings").Logger(),
	}
}

// HandleGetAll handles GET /api/settings
func (h *Handler) HandleGetAll(w http.ResponseWriter, r *http.Request) {
	all, err := h.service.GetAll()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get all settings")
		http.Error(w, "Failed to get settings", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, all)
}

// HandleGet handles GET /api/settings/{key}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if !settings.IsKnown(key) {
		http.Error(w, "Unknown setting", http.StatusNotFound)
		return
	}

	value, err := h.service.Get(key)
	if err != nil {
		h.log.Error().Err(err).Str("key", key).Msg("Failed to get setting")
		http.Error(w, "Failed to get setting", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{key: value})
}

// HandleUpdate handles PUT /api/settings/{key}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		http.Error(w, "Key is required", http.StatusBadRequest)
		return
	}

	var update settings.SettingUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.Set(key, update.Value); err != nil {
		h.log.Error().
			Err(err).
			Str("key", key).
			Interface("value", update.Value).
			Msg("Failed to update setting")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if h.eventManager != nil {
		h.eventManager.EmitTyped(events.SettingsChanged, "settings", &events.SettingsChangedData{
			Key:   key,
			Value: update.Value,
		})
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{key: update.Value})
}

// HandleReset handles DELETE /api/settings/{key}
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if !settings.IsKnown(key) {
		http.Error(w, "Unknown setting", http.StatusNotFound)
		return
	}

	if err := h.service.Reset(key); err != nil {
		h.log.Error().Err(err).Str("key", key).Msg("Failed to reset setting")
		http.Error(w, "Failed to reset setting", http.StatusInternalServerError)
		return
	}

	defaultValue, err := h.service.Get(key)
	if err != nil {
		h.log.Error().Err(err).Str("key", key).Msg("Failed to read setting after reset")
		http.Error(w, "Failed to read setting", http.StatusInternalServerError)
		return
	}

	if h.eventManager != nil {
		h.eventManager.EmitTyped(events.SettingsChanged, "settings", &events.SettingsChangedData{
			Key:   key,
			Value: defaultValue,
		})
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{key: defaultValue})
}

// HandlePolicy handles GET /api/settings/policy
// Returns the pricing policy with current overrides applied.
func (h *Handler) HandlePolicy(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.service.ActivePolicy())
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
