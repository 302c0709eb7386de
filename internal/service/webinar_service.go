package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/slotwise/slotwise/internal/canceltoken"
	"github.com/slotwise/slotwise/internal/domain"
	"github.com/slotwise/slotwise/internal/ics"
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

var ErrNoSchedule = errors.New("product has no webinar schedule")

type RegistrationReq struct {
	AttendeeName  string `json:"attendee_name"`
	AttendeeEmail string `json:"attendee_email"`
}

type RegistrationRes struct {
	ID        string               `json:"id"`
	ProductID string               `json:"product_id"`
	Sessions  []scheduling.Session `json:"sessions"`
	CancelURL string               `json:"cancel_url"`
}

type WebinarService interface {
	Sessions(ctx context.Context, tenantID, productID string) ([]scheduling.Session, error)
	SessionFeed(ctx context.Context, tenantID, productID string) (string, error)
	Register(ctx context.Context, tenantID, productID string, req *RegistrationReq) (*RegistrationRes, error)
	CancelWithToken(ctx context.Context, token string) (*CancelResult, error)
}

type webinarService struct {
	webinarRepo postgres.WebinarRepository
	tenantRepo  postgres.TenantRepository
	refunds     payments.RefundClient
	mail        mailer.Service
	eventBus    events.EventBus
	codec       *canceltoken.Codec
	config      *config.Config

	now func() time.Time
}

func NewWebinarService(
	webinarRepo postgres.WebinarRepository,
	tenantRepo postgres.TenantRepository,
	refunds payments.RefundClient,
	mail mailer.Service,
	eventBus events.EventBus,
	codec *canceltoken.Codec,
	cfg *config.Config,
) WebinarService {
	return &webinarService{
		webinarRepo: webinarRepo,
		tenantRepo:  tenantRepo,
		refunds:     refunds,
		mail:        mail,
		eventBus:    eventBus,
		codec:       codec,
		config:      cfg,
		now:         time.Now,
	}
}

func (s *webinarService) Sessions(ctx context.Context, tenantID, productID string) ([]scheduling.Session, error) {
	_, sessions, err := s.loadSessions(ctx, tenantID, productID)
	return sessions, err
}

func (s *webinarService) SessionFeed(ctx context.Context, tenantID, productID string) (string, error) {
	product, sessions, err := s.loadSessions(ctx, tenantID, productID)
	if err != nil {
		return "", err
	}
	return ics.SessionFeed(product.ID, product.Name, sessions), nil
}

func (s *webinarService) Register(ctx context.Context, tenantID, productID string, req *RegistrationReq) (*RegistrationRes, error) {
	if req == nil || strings.TrimSpace(req.AttendeeEmail) == "" {
		return nil, fmt.Errorf("attendee email is required")
	}

	product, sessions, err := s.loadSessions(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}

	signUp, err := s.webinarRepo.CreateSignUp(ctx, &domain.WebinarSignUp{
		TenantID:        tenantID,
		ProductID:       productID,
		AttendeeName:    req.AttendeeName,
		AttendeeEmail:   req.AttendeeEmail,
		AmountPaidCents: product.PriceCents,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create sign-up: %w", err)
	}

	token, err := s.codec.EncodeWebinar(canceltoken.WebinarPayload{
		TenantID:  tenantID,
		ProductID: productID,
		Email:     signUp.AttendeeEmail,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign cancel token: %w", err)
	}
	cancelURL := links.WebinarCancelURL(s.config.Server.BaseURL, token)

	sessionLines := make([]string, 0, len(sessions))
	for _, sess := range sessions {
		sessionLines = append(sessionLines, fmt.Sprintf("%s at %s UTC", sess.Date, sess.Start.Format("15:04")))
	}
	if err := s.mail.SendWebinarRegistration(signUp.AttendeeEmail, signUp.AttendeeName, product.Name, sessionLines, cancelURL); err != nil {
		logger.ErrorContext(ctx, "Failed to send webinar registration email", "error", err, "product_id", productID)
	}

	if err := s.eventBus.Publish(ctx, events.WebinarRegistered, events.WebinarRegisteredEvent{
		TenantID:      tenantID,
		ProductID:     productID,
		AttendeeEmail: signUp.AttendeeEmail,
		RegisteredAt:  signUp.CreatedAt,
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to publish webinar registered event", "error", err, "product_id", productID)
	}

	return &RegistrationRes{
		ID:        signUp.ID,
		ProductID: productID,
		Sessions:  sessions,
		CancelURL: cancelURL,
	}, nil
}

func (s *webinarService) CancelWithToken(ctx context.Context, token string) (*CancelResult, error) {
	payload, ok := s.codec.DecodeWebinar(token)
	if !ok {
		return nil, ErrTokenInvalid
	}

	signUp, err := s.webinarRepo.GetSignUpByEmail(ctx, payload.TenantID, payload.ProductID, payload.Email)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	if signUp.CancelledAt != nil {
		return &CancelResult{AlreadyCancelled: true}, nil
	}

	tenant, err := s.tenantRepo.GetByID(ctx, payload.TenantID)
	if err != nil {
		return nil, fmt.Errorf("tenant not found: %w", err)
	}
	_, sessions, err := s.loadSessions(ctx, payload.TenantID, payload.ProductID)
	if err != nil {
		return nil, err
	}

	// The deadline counts down to the first session.
	policy := refund.Policy{
		DeadlineHours:     tenant.Config.CancellationDeadlineHours,
		LateRefundPercent: tenant.Config.LateRefundPercent,
	}
	decision := refund.Evaluate(sessions[0].Start, s.now().UTC(), signUp.AmountPaidCents, policy)

	var stripeRefundID string
	if decision.RefundAmountCents > 0 && signUp.StripePaymentIntentID != "" {
		stripeRefundID, err = s.refunds.Refund(ctx, signUp.StripePaymentIntentID, decision.RefundAmountCents)
		if err != nil {
			return nil, fmt.Errorf("refund failed: %w", err)
		}
	}

	cancelled, err := s.webinarRepo.CancelSignUp(ctx, payload.TenantID, payload.ProductID, payload.Email, decision.RefundAmountCents, stripeRefundID)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel sign-up: %w", err)
	}
	if !cancelled {
		return &CancelResult{AlreadyCancelled: true}, nil
	}

	if err := s.mail.SendCancellationNotice(signUp.AttendeeEmail, signUp.AttendeeName, decision.RefundAmountCents, decision.IsFullRefund); err != nil {
		logger.ErrorContext(ctx, "Failed to send cancellation notice", "error", err, "product_id", payload.ProductID)
	}

	if err := s.eventBus.Publish(ctx, events.WebinarCancelled, events.WebinarCancelledEvent{
		TenantID:      payload.TenantID,
		ProductID:     payload.ProductID,
		AttendeeEmail: payload.Email,
		CancelledAt:   s.now().UTC(),
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to publish webinar cancelled event", "error", err, "product_id", payload.ProductID)
	}

	return &CancelResult{Decision: decision}, nil
}

func (s *webinarService) loadSessions(ctx context.Context, tenantID, productID string) (*domain.Product, []scheduling.Session, error) {
	product, err := s.webinarRepo.GetProduct(ctx, tenantID, productID)
	if err != nil {
		return nil, nil, fmt.Errorf("product not found: %w", err)
	}
	if product.Schedule == nil {
		return nil, nil, ErrNoSchedule
	}
	tenant, err := s.tenantRepo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, nil, fmt.Errorf("tenant not found: %w", err)
	}

	sessions, err := scheduling.ExpandSessions(*product.Schedule, tenant.Config.Timezone)
	if err != nil {
		return nil, nil, err
	}
	return product, sessions, nil
}
