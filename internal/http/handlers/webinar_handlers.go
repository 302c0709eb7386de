package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/slotwise/slotwise/internal/http/response"
	"github.com/slotwise/slotwise/internal/service"
)

func (h *Handlers) ListWebinarSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.webinarService.Sessions(r.Context(), tenantParam(r), chi.URLParam(r, "productID"))
	if err != nil {
		writeWebinarError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

// WebinarSessionFeed serves the sessions as an iCalendar document.
func (h *Handlers) WebinarSessionFeed(w http.ResponseWriter, r *http.Request) {
	feed, err := h.webinarService.SessionFeed(r.Context(), tenantParam(r), chi.URLParam(r, "productID"))
	if err != nil {
		writeWebinarError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(feed))
}

func (h *Handlers) RegisterForWebinar(w http.ResponseWriter, r *http.Request) {
	var req service.RegistrationReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	res, err := h.webinarService.Register(r.Context(), tenantParam(r), chi.URLParam(r, "productID"), &req)
	if err != nil {
		writeWebinarError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, res)
}

func (h *Handlers) CancelWebinarSignUp(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		response.InvalidToken(w, "Missing cancellation token")
		return
	}

	result, err := h.webinarService.CancelWithToken(r.Context(), token)
	if err != nil {
		if errors.Is(err, service.ErrTokenInvalid) {
			response.InvalidToken(w, "This cancellation link is invalid or no longer usable")
			return
		}
		response.InternalError(w, "Failed to cancel registration")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func writeWebinarError(w http.ResponseWriter, err error) {
	if errors.Is(err, service.ErrNoSchedule) {
		response.NotFound(w, "Product has no webinar schedule")
		return
	}
	response.BadRequest(w, err.Error())
}
