package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/slotwise/slotwise/internal/domain"
)

type WebinarRepository interface {
	GetProduct(ctx context.Context, tenantID, productID string) (*domain.Product, error)
	CreateSignUp(ctx context.Context, s *domain.WebinarSignUp) (*domain.WebinarSignUp, error)
	GetSignUpByEmail(ctx context.Context, tenantID, productID, email string) (*domain.WebinarSignUp, error)
	CancelSignUp(ctx context.Context, tenantID, productID, email string, refundCents int64, stripeRefundID string) (bool, error)
}

type webinarRepository struct {
	pool *pgxpool.Pool
}

func NewWebinarRepository(pool *pgxpool.Pool) WebinarRepository {
	return &webinarRepository{pool: pool}
}

func (r *webinarRepository) GetProduct(ctx context.Context, tenantID, productID string) (*domain.Product, error) {
	const q = `SELECT id, tenant_id, name, price_cents, schedule, created_at, updated_at
		FROM products WHERE tenant_id=$1 AND id=$2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var p domain.Product
	var rawSchedule []byte
	err := r.pool.QueryRow(ctx, q, tenantID, productID).Scan(
		&p.ID, &p.TenantID, &p.Name, &p.PriceCents, &rawSchedule, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(rawSchedule) > 0 {
		var s domain.WebinarSchedule
		if err := json.Unmarshal(rawSchedule, &s); err != nil {
			return nil, fmt.Errorf("corrupt schedule for product %s: %w", productID, err)
		}
		p.Schedule = &s
	}
	return &p, nil
}

const signUpCols = `id, tenant_id, product_id, attendee_name, attendee_email,
amount_paid_cents, stripe_payment_intent_id,
refund_amount_cents, stripe_refund_id, cancelled_at, created_at`

func scanSignUp(row pgx.Row) (*domain.WebinarSignUp, error) {
	var s domain.WebinarSignUp
	err := row.Scan(
		&s.ID, &s.TenantID, &s.ProductID, &s.AttendeeName, &s.AttendeeEmail,
		&s.AmountPaidCents, &s.StripePaymentIntentID,
		&s.RefundAmountCents, &s.StripeRefundID, &s.CancelledAt, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *webinarRepository) CreateSignUp(ctx context.Context, s *domain.WebinarSignUp) (*domain.WebinarSignUp, error) {
	const q = `INSERT INTO webinar_signups (
		id, tenant_id, product_id, attendee_name, attendee_email,
		amount_paid_cents, stripe_payment_intent_id
	) VALUES ($1,$2,$3,$4,$5,$6,$7)
	RETURNING ` + signUpCols

	if s.ID == "" {
		s.ID = uuid.NewString()
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanSignUp(r.pool.QueryRow(ctx, q,
		s.ID, s.TenantID, s.ProductID, s.AttendeeName, s.AttendeeEmail,
		s.AmountPaidCents, s.StripePaymentIntentID,
	))
}

func (r *webinarRepository) GetSignUpByEmail(ctx context.Context, tenantID, productID, email string) (*domain.WebinarSignUp, error) {
	const q = `SELECT ` + signUpCols + ` FROM webinar_signups
		WHERE tenant_id=$1 AND product_id=$2 AND attendee_email=$3
		ORDER BY created_at DESC LIMIT 1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanSignUp(r.pool.QueryRow(ctx, q, tenantID, productID, email))
}

// CancelSignUp stamps cancelled_at once; a second call affects zero rows.
func (r *webinarRepository) CancelSignUp(ctx context.Context, tenantID, productID, email string, refundCents int64, stripeRefundID string) (bool, error) {
	const q = `UPDATE webinar_signups
		SET cancelled_at=now(), refund_amount_cents=$4, stripe_refund_id=NULLIF($5,'')
		WHERE tenant_id=$1 AND product_id=$2 AND attendee_email=$3 AND cancelled_at IS NULL`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tag, err := r.pool.Exec(ctx, q, tenantID, productID, email, refundCents, stripeRefundID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
