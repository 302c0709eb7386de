package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/slotwise/slotwise/internal/canceltoken"
	"github.com/slotwise/slotwise/internal/domain"
	"github.com/slotwise/slotwise/internal/links"
	"github.com/slotwise/slotwise/internal/mailer"
	"github.com/slotwise/slotwise/internal/payments"
	"github.com/slotwise/slotwise/internal/refund"
	"github.com/slotwise/slotwise/internal/repo/postgres"
	"github.com/slotwise/slotwise/internal/scheduling"
	"github.com/slotwise/slotwise/pkg/config"
	"github.com/slotwise/slotwise/pkg/events"
	"github.com/slotwise/slotwise/pkg/logger"
)

var (
	// ErrSlotUnavailable covers both a slot already marked busy at
	// re-validation and losing the conditional insert to a concurrent writer.
	ErrSlotUnavailable = errors.New("slot no longer available")

	// ErrTokenInvalid is an expected user-facing outcome (a stale or
	// tampered link), never a server fault.
	ErrTokenInvalid = errors.New("invalid cancellation link")
)

type CancelResult struct {
	Decision         refund.Decision `json:"decision"`
	AlreadyCancelled bool            `json:"already_cancelled"`
}

type BookingService interface {
	ListSlots(ctx context.Context, tenantID, date string) ([]scheduling.Slot, error)
	ListSlotsDual(ctx context.Context, tenantID, date, visitorZone string) ([]scheduling.DualSlot, error)
	CreateBooking(ctx context.Context, tenantID string, req *domain.BookingReq, idempotencyKey string) (*domain.BookingRes, error)
	CancelWithToken(ctx context.Context, token string) (*CancelResult, error)
}

type bookingService struct {
	eventRepo       postgres.EventRepository
	tenantRepo      postgres.TenantRepository
	webinarRepo     postgres.WebinarRepository
	idempotencyRepo postgres.IdempotencyRepository
	refunds         payments.RefundClient
	mail            mailer.Service
	eventBus        events.EventBus
	codec           *canceltoken.Codec
	config          *config.Config

	now func() time.Time
}

func NewBookingService(
	eventRepo postgres.EventRepository,
	tenantRepo postgres.TenantRepository,
	webinarRepo postgres.WebinarRepository,
	idempotencyRepo postgres.IdempotencyRepository,
	refunds payments.RefundClient,
	mail mailer.Service,
	eventBus events.EventBus,
	codec *canceltoken.Codec,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		eventRepo:       eventRepo,
		tenantRepo:      tenantRepo,
		webinarRepo:     webinarRepo,
		idempotencyRepo: idempotencyRepo,
		refunds:         refunds,
		mail:            mail,
		eventBus:        eventBus,
		codec:           codec,
		config:          cfg,
		now:             time.Now,
	}
}

func (s *bookingService) ListSlots(ctx context.Context, tenantID, date string) ([]scheduling.Slot, error) {
	tenant, err := s.tenantRepo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("tenant not found: %w", err)
	}
	existing, err := s.eventRepo.ListByDate(ctx, tenantID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}
	return scheduling.GenerateSlots(date, tenant.Config, existing)
}

func (s *bookingService) ListSlotsDual(ctx context.Context, tenantID, date, visitorZone string) ([]scheduling.DualSlot, error) {
	tenant, err := s.tenantRepo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("tenant not found: %w", err)
	}
	existing, err := s.eventRepo.ListByDate(ctx, tenantID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}
	return scheduling.GenerateDualSlots(date, tenant.Config, existing, visitorZone)
}

func (s *bookingService) CreateBooking(ctx context.Context, tenantID string, req *domain.BookingReq, idempotencyKey string) (*domain.BookingRes, error) {
	if err := validateBookingReq(req); err != nil {
		return nil, err
	}

	tenant, err := s.tenantRepo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("tenant not found: %w", err)
	}

	// Replay of a retried request returns the original booking.
	if idempotencyKey != "" {
		if existingID, err := s.idempotencyRepo.CheckOrCreate(ctx, idempotencyKey, ""); err != nil {
			return nil, fmt.Errorf("idempotency check failed: %w", err)
		} else if existingID != "" {
			existing, err := s.eventRepo.GetByID(ctx, tenantID, existingID)
			if err != nil {
				return nil, err
			}
			return s.bookingRes(existing)
		}
	}

	// Re-validate the requested slot against current events. The conditional
	// insert below is the real gate; this pass gives clean rejections for
	// closed days, blackouts and off-grid times.
	existing, err := s.eventRepo.ListByDate(ctx, tenantID, req.Date)
	if err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}
	slots, err := scheduling.GenerateSlots(req.Date, tenant.Config, existing)
	if err != nil {
		return nil, err
	}
	start, err := scheduling.LocalToUTC(req.Date, req.StartTime, tenant.Config.Timezone)
	if err != nil {
		return nil, err
	}

	var picked *scheduling.Slot
	for i := range slots {
		if slots[i].Start.Equal(start) {
			picked = &slots[i]
			break
		}
	}
	if picked == nil || !picked.Available {
		return nil, ErrSlotUnavailable
	}

	ev := &domain.CalendarEvent{
		TenantID:      tenantID,
		Status:        domain.EventScheduled,
		Date:          req.Date,
		StartTime:     picked.Start,
		EndTime:       picked.End,
		AttendeeName:  req.AttendeeName,
		AttendeeEmail: req.AttendeeEmail,
	}
	if req.ProductID != "" {
		product, err := s.webinarRepo.GetProduct(ctx, tenantID, req.ProductID)
		if err != nil {
			return nil, fmt.Errorf("product not found: %w", err)
		}
		ev.ProductID = &product.ID
		ev.AmountPaidCents = product.PriceCents
		ev.Status = domain.EventPendingPayment
	}

	created, err := s.eventRepo.InsertIfSlotFree(ctx, ev)
	if errors.Is(err, postgres.ErrSlotTaken) {
		return nil, ErrSlotUnavailable
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	if idempotencyKey != "" {
		if _, err := s.idempotencyRepo.CheckOrCreate(ctx, idempotencyKey, created.ID); err != nil {
			logger.ErrorContext(ctx, "Failed to store idempotency record", "error", err, "event_id", created.ID)
		}
	}

	res, err := s.bookingRes(created)
	if err != nil {
		return nil, err
	}

	when := created.StartTime.Format(time.RFC1123)
	if loc, lerr := time.LoadLocation(tenant.Config.Timezone); lerr == nil {
		when = created.StartTime.In(loc).Format(time.RFC1123)
	}
	if err := s.mail.SendBookingConfirmation(created.AttendeeEmail, created.AttendeeName, when, res.CancelURL); err != nil {
		logger.ErrorContext(ctx, "Failed to send booking confirmation", "error", err, "event_id", created.ID)
	}

	event := events.BookingCreatedEvent{
		EventID:       created.ID,
		TenantID:      created.TenantID,
		Date:          created.Date,
		StartTime:     created.StartTime,
		EndTime:       created.EndTime,
		AttendeeEmail: created.AttendeeEmail,
		AttendeeName:  created.AttendeeName,
		CreatedAt:     created.CreatedAt,
	}
	if err := s.eventBus.Publish(ctx, events.BookingCreated, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish booking created event", "error", err, "event_id", created.ID)
	}

	return res, nil
}

func (s *bookingService) CancelWithToken(ctx context.Context, token string) (*CancelResult, error) {
	payload, ok := s.codec.DecodeBooking(token)
	if !ok {
		return nil, ErrTokenInvalid
	}

	ev, err := s.eventRepo.GetByID(ctx, payload.TenantID, payload.EventID)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	// Idempotency: a second click on the same link is a no-op, never a
	// second refund.
	if ev.CancelledAt != nil || ev.Status == domain.EventCancelled {
		return &CancelResult{AlreadyCancelled: true}, nil
	}

	tenant, err := s.tenantRepo.GetByID(ctx, payload.TenantID)
	if err != nil {
		return nil, fmt.Errorf("tenant not found: %w", err)
	}

	policy := refund.Policy{
		DeadlineHours:     tenant.Config.CancellationDeadlineHours,
		LateRefundPercent: tenant.Config.LateRefundPercent,
	}
	decision := refund.Evaluate(ev.StartTime, s.now().UTC(), ev.AmountPaidCents, policy)

	// Zero-amount bookings never reach the payment provider.
	var stripeRefundID string
	if decision.RefundAmountCents > 0 && ev.StripePaymentIntentID != "" {
		stripeRefundID, err = s.refunds.Refund(ctx, ev.StripePaymentIntentID, decision.RefundAmountCents)
		if err != nil {
			return nil, fmt.Errorf("refund failed: %w", err)
		}
	}

	cancelled, err := s.eventRepo.Cancel(ctx, ev.TenantID, ev.ID, decision.RefundAmountCents, stripeRefundID)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel booking: %w", err)
	}
	if !cancelled {
		// Lost a cancel race after the status read.
		return &CancelResult{AlreadyCancelled: true}, nil
	}

	if err := s.mail.SendCancellationNotice(ev.AttendeeEmail, ev.AttendeeName, decision.RefundAmountCents, decision.IsFullRefund); err != nil {
		logger.ErrorContext(ctx, "Failed to send cancellation notice", "error", err, "event_id", ev.ID)
	}

	if err := s.eventBus.Publish(ctx, events.BookingCancelled, events.BookingCancelledEvent{
		EventID:       ev.ID,
		TenantID:      ev.TenantID,
		AttendeeEmail: ev.AttendeeEmail,
		Reason:        decision.Reason,
		CancelledAt:   s.now().UTC(),
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to publish booking cancelled event", "error", err, "event_id", ev.ID)
	}

	if decision.RefundAmountCents > 0 {
		if err := s.eventBus.Publish(ctx, events.RefundIssued, events.RefundIssuedEvent{
			EventID:           ev.ID,
			TenantID:          ev.TenantID,
			RefundAmountCents: decision.RefundAmountCents,
			IsFullRefund:      decision.IsFullRefund,
			StripeRefundID:    stripeRefundID,
			IssuedAt:          s.now().UTC(),
		}); err != nil {
			logger.ErrorContext(ctx, "Failed to publish refund issued event", "error", err, "event_id", ev.ID)
		}
	}

	return &CancelResult{Decision: decision}, nil
}

func (s *bookingService) bookingRes(ev *domain.CalendarEvent) (*domain.BookingRes, error) {
	token, err := s.codec.EncodeBooking(canceltoken.BookingPayload{
		TenantID: ev.TenantID,
		EventID:  ev.ID,
		Date:     ev.Date,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign cancel token: %w", err)
	}
	return &domain.BookingRes{
		ID:        ev.ID,
		Status:    string(ev.Status),
		Date:      ev.Date,
		StartTime: ev.StartTime,
		EndTime:   ev.EndTime,
		CancelURL: links.BookingCancelURL(s.config.Server.BaseURL, token),
	}, nil
}

func validateBookingReq(req *domain.BookingReq) error {
	if req == nil {
		return fmt.Errorf("empty request")
	}
	if strings.TrimSpace(req.AttendeeEmail) == "" {
		return fmt.Errorf("attendee email is required")
	}
	if strings.TrimSpace(req.Date) == "" || strings.TrimSpace(req.StartTime) == "" {
		return fmt.Errorf("date and start time are required")
	}
	return nil
}
