package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/slotwise/slotwise/internal/repo/postgres"
	"github.com/slotwise/slotwise/internal/service"
	"github.com/slotwise/slotwise/pkg/auth"
	"github.com/slotwise/slotwise/pkg/config"
	"github.com/slotwise/slotwise/pkg/logger"
)

type Handlers struct {
	bookingService service.BookingService
	webinarService service.WebinarService
	tenantRepo     postgres.TenantRepository
	config         *config.Config
}

func New(
	bookingService service.BookingService,
	webinarService service.WebinarService,
	tenantRepo postgres.TenantRepository,
	cfg *config.Config,
) *Handlers {
	return &Handlers{
		bookingService: bookingService,
		webinarService: webinarService,
		tenantRepo:     tenantRepo,
		config:         cfg,
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func tenantParam(r *http.Request) string {
	return chi.URLParam(r, "tenantID")
}

// RequireTenantAuth guards tenant-admin routes. A request authenticates with
// either a Bearer JWT scoped to the tenant or the tenant's API key.
func (h *Handlers) RequireTenantAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID := tenantParam(r)

		if apiKey := r.Header.Get("X-API-Key"); apiKey != "" {
			ok, err := h.tenantRepo.VerifyAPIKey(r.Context(), tenantID, apiKey)
			if err != nil || !ok {
				unauthorized(w, "Invalid API key")
				return
			}
			next.ServeHTTP(w, r.WithContext(tenantContext(r.Context(), tenantID)))
			return
		}

		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			unauthorized(w, "Missing credentials")
			return
		}
		claims, err := auth.Parse(strings.TrimPrefix(header, "Bearer "), h.config.Auth.JWTSecret)
		if err != nil || claims.TenantID != tenantID || claims.Role != "admin" {
			unauthorized(w, "Invalid or mismatched token")
			return
		}

		next.ServeHTTP(w, r.WithContext(tenantContext(r.Context(), tenantID)))
	})
}

func tenantContext(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, logger.TenantIDKey, tenantID)
}

func unauthorized(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusUnauthorized, map[string]string{"error": msg})
}
