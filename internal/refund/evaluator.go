// Package refund computes cancellation refund eligibility. Evaluation is
// pure and safe to repeat; whether a refund has already been issued is the
// caller's check (cancelled_at on the record), not ours.
package refund

import (
	"math"
	"time"
)

// Policy is a tenant's cancellation policy: the full-refund deadline in hours
// before start, and what a late cancellation still gets back. A nil
// LateRefundPercent means no refund past the deadline.
type Policy struct {
	DeadlineHours     int
	LateRefundPercent *int // 0..100
}

// Decision is derived, never stored as state. The caller persists only the
// refund amount and audit fields.
type Decision struct {
	IsBeforeDeadline  bool   `json:"is_before_deadline"`
	IsFullRefund      bool   `json:"is_full_refund"`
	RefundAmountCents int64  `json:"refund_amount_cents"`
	Reason            string `json:"reason"`
}

// Evaluate applies policy to a cancellation happening at now for an event
// starting at eventStartUTC. Cancelling exactly at the deadline still counts
// as before it. The refund never exceeds the amount paid, and a zero-amount
// booking yields a zero refund so callers can skip the payment provider
// entirely.
func Evaluate(eventStartUTC, now time.Time, paidAmountCents int64, policy Policy) Decision {
	hoursUntilStart := eventStartUTC.Sub(now).Hours()
	beforeDeadline := hoursUntilStart >= float64(policy.DeadlineHours)

	if paidAmountCents <= 0 {
		return Decision{
			IsBeforeDeadline: beforeDeadline,
			Reason:           "no payment on record, nothing to refund",
		}
	}

	if beforeDeadline {
		return Decision{
			IsBeforeDeadline:  true,
			IsFullRefund:      true,
			RefundAmountCents: paidAmountCents,
			Reason:            "cancelled before the cancellation deadline",
		}
	}

	if policy.LateRefundPercent == nil || *policy.LateRefundPercent <= 0 {
		return Decision{
			Reason: "cancelled past the deadline, policy grants no refund",
		}
	}

	pct := *policy.LateRefundPercent
	if pct > 100 {
		pct = 100
	}
	amount := int64(math.Round(float64(paidAmountCents) * float64(pct) / 100))
	if amount > paidAmountCents {
		amount = paidAmountCents
	}
	return Decision{
		IsFullRefund:      amount == paidAmountCents,
		RefundAmountCents: amount,
		Reason:            "cancelled past the deadline, partial refund per policy",
	}
}
