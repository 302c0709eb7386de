package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/slotwise/slotwise/internal/domain"
	"github.com/slotwise/slotwise/internal/http/response"
)

// GetTenantConfig returns the tenant's booking settings.
func (h *Handlers) GetTenantConfig(w http.ResponseWriter, r *http.Request) {
	tenant, err := h.tenantRepo.GetByID(r.Context(), tenantParam(r))
	if err != nil {
		response.NotFound(w, "Tenant not found")
		return
	}
	writeJSON(w, http.StatusOK, tenant.Config)
}

// UpdateTenantConfig replaces the tenant's booking settings.
func (h *Handlers) UpdateTenantConfig(w http.ResponseWriter, r *http.Request) {
	var cfg domain.BookingConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}
	if cfg.SlotDurationMinutes <= 0 {
		response.BadRequest(w, "slot_duration_minutes must be positive")
		return
	}

	if err := h.tenantRepo.UpdateConfig(r.Context(), tenantParam(r), cfg); err != nil {
		response.InternalError(w, "Failed to update config")
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// RotateAPIKey mints a fresh tenant API key. Only the hash is stored; the
// plaintext appears once, in this response.
func (h *Handlers) RotateAPIKey(w http.ResponseWriter, r *http.Request) {
	key := uuid.NewString()
	if err := h.tenantRepo.RotateAPIKey(r.Context(), tenantParam(r), key); err != nil {
		response.InternalError(w, "Failed to rotate API key")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"api_key": key})
}
