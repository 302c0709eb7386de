package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/slotwise/slotwise/internal/domain"
	"github.com/slotwise/slotwise/internal/repo/postgres"
	"github.com/slotwise/slotwise/pkg/events"
)

var errNotFound = errors.New("not found")

type mockEventRepo struct {
	mu     sync.Mutex
	seq    int
	events map[string]*domain.CalendarEvent
}

func newMockEventRepo() *mockEventRepo {
	return &mockEventRepo{events: map[string]*domain.CalendarEvent{}}
}

func (r *mockEventRepo) InsertIfSlotFree(ctx context.Context, ev *domain.CalendarEvent) (*domain.CalendarEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.events {
		if existing.TenantID == ev.TenantID && existing.Date == ev.Date &&
			existing.StartTime.Equal(ev.StartTime) && existing.Blocks() {
			return nil, postgres.ErrSlotTaken
		}
	}
	r.seq++
	stored := *ev
	stored.ID = fmt.Sprintf("ev-%d", r.seq)
	stored.CreatedAt = time.Now().UTC()
	stored.UpdatedAt = stored.CreatedAt
	r.events[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (r *mockEventRepo) GetByID(ctx context.Context, tenantID, id string) (*domain.CalendarEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev, ok := r.events[id]
	if !ok || ev.TenantID != tenantID {
		return nil, errNotFound
	}
	out := *ev
	return &out, nil
}

func (r *mockEventRepo) ListByDate(ctx context.Context, tenantID, date string) ([]*domain.CalendarEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.CalendarEvent
	for _, ev := range r.events {
		if ev.TenantID == tenantID && ev.Date == date {
			cp := *ev
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *mockEventRepo) ListByStatus(ctx context.Context, tenantID string, status domain.EventStatus, limit, offset int) ([]*domain.CalendarEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.CalendarEvent
	for _, ev := range r.events {
		if ev.TenantID == tenantID && ev.Status == status {
			cp := *ev
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *mockEventRepo) ListDueReminders(ctx context.Context, windowEnd time.Time, limit int) ([]*domain.CalendarEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.CalendarEvent
	for _, ev := range r.events {
		if !ev.ReminderSent && ev.Blocks() && !ev.StartTime.After(windowEnd) {
			cp := *ev
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *mockEventRepo) MarkReminderSent(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev, ok := r.events[id]
	if !ok {
		return errNotFound
	}
	ev.ReminderSent = true
	return nil
}

func (r *mockEventRepo) Cancel(ctx context.Context, tenantID, id string, refundCents int64, stripeRefundID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev, ok := r.events[id]
	if !ok || ev.TenantID != tenantID {
		return false, nil
	}
	if ev.CancelledAt != nil {
		return false, nil
	}
	now := time.Now().UTC()
	ev.Status = domain.EventCancelled
	ev.CancelledAt = &now
	ev.RefundAmountCents = &refundCents
	if stripeRefundID != "" {
		ev.StripeRefundID = &stripeRefundID
	}
	return true, nil
}

func (r *mockEventRepo) put(ev *domain.CalendarEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[ev.ID] = ev
}

type mockTenantRepo struct {
	tenant *domain.Tenant
}

func (r *mockTenantRepo) GetByID(ctx context.Context, id string) (*domain.Tenant, error) {
	if r.tenant == nil || r.tenant.ID != id {
		return nil, errNotFound
	}
	return r.tenant, nil
}

func (r *mockTenantRepo) UpdateConfig(ctx context.Context, id string, cfg domain.BookingConfig) error {
	if r.tenant == nil || r.tenant.ID != id {
		return errNotFound
	}
	r.tenant.Config = cfg
	return nil
}

func (r *mockTenantRepo) RotateAPIKey(ctx context.Context, id, plainKey string) error { return nil }

func (r *mockTenantRepo) VerifyAPIKey(ctx context.Context, id, plainKey string) (bool, error) {
	return false, nil
}

type mockWebinarRepo struct {
	mu       sync.Mutex
	seq      int
	products map[string]*domain.Product
	signUps  []*domain.WebinarSignUp
}

func newMockWebinarRepo() *mockWebinarRepo {
	return &mockWebinarRepo{products: map[string]*domain.Product{}}
}

func (r *mockWebinarRepo) GetProduct(ctx context.Context, tenantID, productID string) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[productID]
	if !ok || p.TenantID != tenantID {
		return nil, errNotFound
	}
	return p, nil
}

func (r *mockWebinarRepo) CreateSignUp(ctx context.Context, s *domain.WebinarSignUp) (*domain.WebinarSignUp, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	stored := *s
	stored.ID = fmt.Sprintf("su-%d", r.seq)
	stored.CreatedAt = time.Now().UTC()
	r.signUps = append(r.signUps, &stored)
	out := stored
	return &out, nil
}

func (r *mockWebinarRepo) GetSignUpByEmail(ctx context.Context, tenantID, productID, email string) (*domain.WebinarSignUp, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.signUps) - 1; i >= 0; i-- {
		s := r.signUps[i]
		if s.TenantID == tenantID && s.ProductID == productID && s.AttendeeEmail == email {
			out := *s
			return &out, nil
		}
	}
	return nil, errNotFound
}

func (r *mockWebinarRepo) CancelSignUp(ctx context.Context, tenantID, productID, email string, refundCents int64, stripeRefundID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.signUps) - 1; i >= 0; i-- {
		s := r.signUps[i]
		if s.TenantID == tenantID && s.ProductID == productID && s.AttendeeEmail == email && s.CancelledAt == nil {
			now := time.Now().UTC()
			s.CancelledAt = &now
			s.RefundAmountCents = &refundCents
			if stripeRefundID != "" {
				s.StripeRefundID = &stripeRefundID
			}
			return true, nil
		}
	}
	return false, nil
}

type mockIdempotencyRepo struct {
	mu   sync.Mutex
	keys map[string]string
}

func newMockIdempotencyRepo() *mockIdempotencyRepo {
	return &mockIdempotencyRepo{keys: map[string]string{}}
}

func (r *mockIdempotencyRepo) CheckOrCreate(ctx context.Context, key, eventID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.keys[key]; ok {
		return existing, nil
	}
	if eventID != "" {
		r.keys[key] = eventID
	}
	return "", nil
}

func (r *mockIdempotencyRepo) CleanupExpired(ctx context.Context) (int64, error) { return 0, nil }

type refundCall struct {
	paymentIntentID string
	amountCents     int64
}

type mockRefundClient struct {
	mu    sync.Mutex
	calls []refundCall
	err   error
}

func (c *mockRefundClient) Refund(ctx context.Context, paymentIntentID string, amountCents int64) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return "", c.err
	}
	c.calls = append(c.calls, refundCall{paymentIntentID: paymentIntentID, amountCents: amountCents})
	return fmt.Sprintf("re_%d", len(c.calls)), nil
}

type mockMailer struct {
	mu            sync.Mutex
	confirmations []string
	cancellations []string
	reminders     []string
	registrations []string
}

func (m *mockMailer) SendBookingConfirmation(toEmail, toName, when, cancelURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confirmations = append(m.confirmations, toEmail)
	return nil
}

func (m *mockMailer) SendCancellationNotice(toEmail, toName string, refundCents int64, isFullRefund bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancellations = append(m.cancellations, toEmail)
	return nil
}

func (m *mockMailer) SendReminder(toEmail, toName, when string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reminders = append(m.reminders, toEmail)
	return nil
}

func (m *mockMailer) SendWebinarRegistration(toEmail, toName, productName string, sessions []string, cancelURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registrations = append(m.registrations, toEmail)
	return nil
}

type mockEventBus struct {
	mu        sync.Mutex
	published []string
}

func (b *mockEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, subject)
	return nil
}

func (b *mockEventBus) Subscribe(subject string, handler func(msg *events.Message)) error { return nil }

func (b *mockEventBus) QueueSubscribe(subject, queue string, handler func(msg *events.Message)) error {
	return nil
}

func (b *mockEventBus) Close() error { return nil }

func (b *mockEventBus) count(subject string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, s := range b.published {
		if s == subject {
			n++
		}
	}
	return n
}
