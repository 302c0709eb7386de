package domain

import "time"

// WorkingHours is a local open/close window, both "HH:mm".
type WorkingHours struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// BookingConfig is the tenant's scheduling setup. It is edited in the tenant
// settings UI and read-only everywhere else.
type BookingConfig struct {
	Timezone            string                        `json:"timezone"`
	Hours               map[time.Weekday]WorkingHours `json:"hours"`
	SlotDurationMinutes int                           `json:"slot_duration_minutes"`
	BufferMinutes       int                           `json:"buffer_minutes"`
	BlackoutDates       []string                      `json:"blackout_dates,omitempty"` // YYYY-MM-DD

	CancellationDeadlineHours int  `json:"cancellation_deadline_hours"`
	LateRefundPercent         *int `json:"late_refund_percent,omitempty"` // nil means no refund past deadline
}

// IsBlackout reports whether date (YYYY-MM-DD) is blocked out entirely.
func (c *BookingConfig) IsBlackout(date string) bool {
	for _, d := range c.BlackoutDates {
		if d == date {
			return true
		}
	}
	return false
}

type Tenant struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Email      string        `json:"email"`
	APIKeyHash string        `json:"-"`
	Config     BookingConfig `json:"config"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}
