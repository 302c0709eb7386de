package domain

import "time"

// RecurrenceSpec is the persisted shape of a recurrence rule, exactly as the
// settings UI stores it. Frequency gates which optional fields apply; the
// scheduling package converts it into a validated rule value before use.
type RecurrenceSpec struct {
	Frequency   string `json:"frequency"` // daily, weekly, monthly, yearly, weekday
	Interval    int    `json:"interval"`
	DaysOfWeek  []int  `json:"days_of_week,omitempty"` // 0=Sunday .. 6=Saturday, weekly only
	MonthlyMode string `json:"monthly_mode,omitempty"` // day_of_month or day_of_week

	// Exactly one terminator is set.
	EndAfterOccurrences *int    `json:"end_after_occurrences,omitempty"` // 1..52
	EndOnDate           *string `json:"end_on_date,omitempty"`           // YYYY-MM-DD, inclusive
}

// WebinarSchedule describes when a webinar runs, in the tenant's local time.
// Sessions are derived from it on demand; the schedule is the source of truth.
type WebinarSchedule struct {
	StartDate    string          `json:"start_date"` // YYYY-MM-DD
	StartTime    string          `json:"start_time"` // HH:mm local
	EndTime      string          `json:"end_time"`   // HH:mm local
	Recurrence   *RecurrenceSpec `json:"recurrence,omitempty"`
	SessionCount int             `json:"session_count"`
}

type Product struct {
	ID         string           `json:"id"`
	TenantID   string           `json:"tenant_id"`
	Name       string           `json:"name"`
	PriceCents int64            `json:"price_cents"`
	Schedule   *WebinarSchedule `json:"schedule,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

type WebinarSignUp struct {
	ID        string `json:"id"`
	TenantID  string `json:"tenant_id"`
	ProductID string `json:"product_id"`

	AttendeeName  string `json:"attendee_name"`
	AttendeeEmail string `json:"attendee_email"`

	AmountPaidCents       int64  `json:"amount_paid_cents"`
	StripePaymentIntentID string `json:"stripe_payment_intent_id,omitempty"`

	RefundAmountCents *int64     `json:"refund_amount_cents,omitempty"`
	StripeRefundID    *string    `json:"stripe_refund_id,omitempty"`
	CancelledAt       *time.Time `json:"cancelled_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
