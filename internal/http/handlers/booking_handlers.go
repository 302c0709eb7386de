package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/slotwise/slotwise/internal/domain"
	"github.com/slotwise/slotwise/internal/http/response"
	"github.com/slotwise/slotwise/internal/scheduling"
	"github.com/slotwise/slotwise/internal/service"
)

// ListSlots returns the day's bookable slots. With a tz query parameter the
// conversational booking widget gets dual business/visitor display strings.
func (h *Handlers) ListSlots(w http.ResponseWriter, r *http.Request) {
	tenantID := tenantParam(r)
	date := r.URL.Query().Get("date")
	if date == "" {
		response.BadRequest(w, "date query parameter is required")
		return
	}

	if visitorZone := r.URL.Query().Get("tz"); visitorZone != "" {
		slots, err := h.bookingService.ListSlotsDual(r.Context(), tenantID, date, visitorZone)
		if err != nil {
			writeSlotError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, slots)
		return
	}

	slots, err := h.bookingService.ListSlots(r.Context(), tenantID, date)
	if err != nil {
		writeSlotError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, slots)
}

// CreateBooking books a slot. Honors the Idempotency-Key header on retries.
func (h *Handlers) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req domain.BookingReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	idempotencyKey := r.Header.Get("Idempotency-Key")

	booking, err := h.bookingService.CreateBooking(r.Context(), tenantParam(r), &req, idempotencyKey)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSlotUnavailable):
			response.SlotUnavailable(w, "That slot is no longer available")
		case errors.Is(err, scheduling.ErrInvalidTimezone):
			response.WriteError(w, http.StatusBadRequest, err.Error(), response.CodeInvalidTimezone)
		case errors.Is(err, scheduling.ErrInvalidConfig):
			response.BadRequest(w, err.Error())
		default:
			response.BadRequest(w, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusCreated, booking)
}

// CancelBooking lands the cancellation link from confirmation emails.
func (h *Handlers) CancelBooking(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		response.InvalidToken(w, "Missing cancellation token")
		return
	}

	result, err := h.bookingService.CancelWithToken(r.Context(), token)
	if err != nil {
		if errors.Is(err, service.ErrTokenInvalid) {
			response.InvalidToken(w, "This cancellation link is invalid or no longer usable")
			return
		}
		response.InternalError(w, "Failed to cancel booking")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func writeSlotError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, scheduling.ErrInvalidTimezone):
		response.WriteError(w, http.StatusBadRequest, err.Error(), response.CodeInvalidTimezone)
	case errors.Is(err, scheduling.ErrInvalidConfig):
		// Misconfigured tenant settings are an operator problem, not a
		// visitor problem.
		response.InternalError(w, err.Error())
	default:
		response.NotFound(w, err.Error())
	}
}
