package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/slotwise/slotwise/internal/domain"
)

// ErrSlotTaken is the losing side of two concurrent bookings for the same
// slot. The insert is conditional on a partial unique index over
// (tenant_id, date, start_time) WHERE status <> 'cancelled', so exactly one
// writer wins and the check-then-act window is closed at the database.
var ErrSlotTaken = errors.New("slot already booked")

type EventRepository interface {
	InsertIfSlotFree(ctx context.Context, ev *domain.CalendarEvent) (*domain.CalendarEvent, error)
	GetByID(ctx context.Context, tenantID, id string) (*domain.CalendarEvent, error)
	ListByDate(ctx context.Context, tenantID, date string) ([]*domain.CalendarEvent, error)
	ListByStatus(ctx context.Context, tenantID string, status domain.EventStatus, limit, offset int) ([]*domain.CalendarEvent, error)
	ListDueReminders(ctx context.Context, windowEnd time.Time, limit int) ([]*domain.CalendarEvent, error)
	MarkReminderSent(ctx context.Context, id string) error
	Cancel(ctx context.Context, tenantID, id string, refundCents int64, stripeRefundID string) (bool, error)
}

type eventRepository struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) EventRepository {
	return &eventRepository{pool: pool}
}

const eventCols = `id, tenant_id, status, date, start_time, end_time,
product_id, attendee_name, attendee_email,
amount_paid_cents, stripe_payment_intent_id,
refund_amount_cents, stripe_refund_id, cancelled_at,
reminder_sent, created_at, updated_at`

func scanEvent(row pgx.Row) (*domain.CalendarEvent, error) {
	var e domain.CalendarEvent
	err := row.Scan(
		&e.ID, &e.TenantID, &e.Status, &e.Date, &e.StartTime, &e.EndTime,
		&e.ProductID, &e.AttendeeName, &e.AttendeeEmail,
		&e.AmountPaidCents, &e.StripePaymentIntentID,
		&e.RefundAmountCents, &e.StripeRefundID, &e.CancelledAt,
		&e.ReminderSent, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *eventRepository) InsertIfSlotFree(ctx context.Context, ev *domain.CalendarEvent) (*domain.CalendarEvent, error) {
	const q = `INSERT INTO calendar_events (
		id, tenant_id, status, date, start_time, end_time,
		product_id, attendee_name, attendee_email,
		amount_paid_cents, stripe_payment_intent_id, reminder_sent
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,false)
	ON CONFLICT (tenant_id, date, start_time) WHERE status <> 'cancelled' DO NOTHING
	RETURNING ` + eventCols

	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	row := r.pool.QueryRow(ctx, q,
		ev.ID, ev.TenantID, ev.Status, ev.Date, ev.StartTime, ev.EndTime,
		ev.ProductID, ev.AttendeeName, ev.AttendeeEmail,
		ev.AmountPaidCents, ev.StripePaymentIntentID,
	)
	created, err := scanEvent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		// DO NOTHING fired: a concurrent writer holds the slot.
		return nil, ErrSlotTaken
	}
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *eventRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.CalendarEvent, error) {
	const q = `SELECT ` + eventCols + ` FROM calendar_events WHERE tenant_id=$1 AND id=$2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanEvent(r.pool.QueryRow(ctx, q, tenantID, id))
}

func (r *eventRepository) ListByDate(ctx context.Context, tenantID, date string) ([]*domain.CalendarEvent, error) {
	const q = `SELECT ` + eventCols + ` FROM calendar_events
		WHERE tenant_id=$1 AND date=$2 ORDER BY start_time`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, tenantID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectEvents(rows)
}

func (r *eventRepository) ListByStatus(ctx context.Context, tenantID string, status domain.EventStatus, limit, offset int) ([]*domain.CalendarEvent, error) {
	const q = `SELECT ` + eventCols + ` FROM calendar_events
		WHERE tenant_id=$1 AND status=$2 ORDER BY start_time LIMIT $3 OFFSET $4`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, tenantID, status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectEvents(rows)
}

func (r *eventRepository) ListDueReminders(ctx context.Context, windowEnd time.Time, limit int) ([]*domain.CalendarEvent, error) {
	const q = `SELECT ` + eventCols + ` FROM calendar_events
		WHERE status IN ('scheduled','pending') AND reminder_sent=false
		AND start_time > now() AND start_time <= $1
		ORDER BY start_time LIMIT $2`
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, windowEnd, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectEvents(rows)
}

func (r *eventRepository) MarkReminderSent(ctx context.Context, id string) error {
	const q = `UPDATE calendar_events SET reminder_sent=true, updated_at=now() WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, id)
	return err
}

// Cancel transitions the event to cancelled and records the refund audit
// fields. Events are never deleted. The cancelled_at guard makes repeat
// cancellations no-ops, so refund issuance stays idempotent at this boundary.
func (r *eventRepository) Cancel(ctx context.Context, tenantID, id string, refundCents int64, stripeRefundID string) (bool, error) {
	const q = `UPDATE calendar_events
		SET status='cancelled', cancelled_at=now(), updated_at=now(),
		    refund_amount_cents=$3, stripe_refund_id=NULLIF($4,'')
		WHERE tenant_id=$1 AND id=$2 AND cancelled_at IS NULL`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tag, err := r.pool.Exec(ctx, q, tenantID, id, refundCents, stripeRefundID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func collectEvents(rows pgx.Rows) ([]*domain.CalendarEvent, error) {
	events := make([]*domain.CalendarEvent, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
