package domain

import "time"

type EventStatus string

const (
	EventScheduled      EventStatus = "scheduled"
	EventPending        EventStatus = "pending"
	EventPendingPayment EventStatus = "pending_payment"
	EventCompleted      EventStatus = "completed"
	EventCancelled      EventStatus = "cancelled"
)

func ParseEventStatus(s string) (EventStatus, bool) {
	switch EventStatus(s) {
	case EventScheduled, EventPending, EventPendingPayment, EventCompleted, EventCancelled:
		return EventStatus(s), true
	default:
		return "", false
	}
}

// CalendarEvent is a booked appointment or a paid webinar seat. Events are
// never deleted; cancellation transitions Status and stamps CancelledAt.
type CalendarEvent struct {
	ID       string      `json:"id"`
	TenantID string      `json:"tenant_id"`
	Status   EventStatus `json:"status"`

	// Date is the business-local calendar date (YYYY-MM-DD); StartTime and
	// EndTime are absolute UTC instants. Slot-conflict checks key on Date.
	Date      string    `json:"date"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	ProductID *string `json:"product_id,omitempty"`

	AttendeeName  string `json:"attendee_name"`
	AttendeeEmail string `json:"attendee_email"`

	AmountPaidCents       int64  `json:"amount_paid_cents"`
	StripePaymentIntentID string `json:"stripe_payment_intent_id,omitempty"`

	RefundAmountCents *int64     `json:"refund_amount_cents,omitempty"`
	StripeRefundID    *string    `json:"stripe_refund_id,omitempty"`
	CancelledAt       *time.Time `json:"cancelled_at,omitempty"`

	ReminderSent bool `json:"reminder_sent"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Blocks reports whether the event still occupies its slot.
func (e *CalendarEvent) Blocks() bool {
	return e.Status != EventCancelled
}

type BookingReq struct {
	Date          string `json:"date"`
	StartTime     string `json:"start_time"` // local HH:mm
	AttendeeName  string `json:"attendee_name"`
	AttendeeEmail string `json:"attendee_email"`
	ProductID     string `json:"product_id,omitempty"`
}

type BookingRes struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	Date      string    `json:"date"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	CancelURL string    `json:"cancel_url"`
}
