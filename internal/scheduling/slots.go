package scheduling

import (
	"fmt"
	"time"

	"github.com/slotwise/slotwise/internal/domain"
)

// Slot is one candidate bookable interval. Start and End are UTC instants.
type Slot struct {
	Start     time.Time `json:"start_time"`
	End       time.Time `json:"end_time"`
	Available bool      `json:"available"`
}

// DualSlot carries pre-formatted display strings for the business zone and
// the visitor's zone so callers never re-derive timezone math from them.
type DualSlot struct {
	Slot
	BusinessTime string `json:"business_time"`
	VisitorTime  string `json:"visitor_time"`
}

const displayLayout = "Mon, 02 Jan 2006 15:04 MST"

// GenerateSlots walks the tenant's working-hours window for date and returns
// every candidate slot in chronological order, flagging the ones that collide
// with a non-cancelled event. A closed or blacked-out day yields an empty
// sequence. Pure: identical inputs reproduce identical slot boundaries.
func GenerateSlots(date string, cfg domain.BookingConfig, events []*domain.CalendarEvent) ([]Slot, error) {
	if cfg.SlotDurationMinutes <= 0 {
		return nil, fmt.Errorf("%w: slot duration %d", ErrInvalidConfig, cfg.SlotDurationMinutes)
	}
	if len(cfg.Hours) == 0 {
		return nil, fmt.Errorf("%w: no working hours configured", ErrInvalidConfig)
	}
	day, err := ParseDate(date)
	if err != nil {
		return nil, err
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, cfg.Timezone)
	}

	if cfg.IsBlackout(date) {
		return []Slot{}, nil
	}
	hours, open := cfg.Hours[day.Weekday()]
	if !open {
		return []Slot{}, nil
	}

	openMin, err := minutesOfDay(hours.Open)
	if err != nil {
		return nil, err
	}
	closeMin, err := minutesOfDay(hours.Close)
	if err != nil {
		return nil, err
	}
	if closeMin <= openMin {
		return nil, fmt.Errorf("%w: working hours %s-%s", ErrInvalidConfig, hours.Open, hours.Close)
	}

	step := cfg.SlotDurationMinutes + cfg.BufferMinutes
	slots := []Slot{}
	for startMin := openMin; startMin+cfg.SlotDurationMinutes <= closeMin; startMin += step {
		endMin := startMin + cfg.SlotDurationMinutes

		start, err := LocalToUTC(date, formatMinutes(startMin), cfg.Timezone)
		if err != nil {
			return nil, err
		}
		end, err := LocalToUTC(date, formatMinutes(endMin), cfg.Timezone)
		if err != nil {
			return nil, err
		}

		slots = append(slots, Slot{
			Start:     start,
			End:       end,
			Available: !overlapsAny(start, end, events),
		})
	}
	return slots, nil
}

// GenerateDualSlots is GenerateSlots plus display strings in the business
// timezone and the visitor's timezone, both rendered from the same UTC
// instant.
func GenerateDualSlots(date string, cfg domain.BookingConfig, events []*domain.CalendarEvent, visitorZone string) ([]DualSlot, error) {
	businessLoc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, cfg.Timezone)
	}
	visitorLoc, err := time.LoadLocation(visitorZone)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, visitorZone)
	}

	slots, err := GenerateSlots(date, cfg, events)
	if err != nil {
		return nil, err
	}

	dual := make([]DualSlot, 0, len(slots))
	for _, s := range slots {
		dual = append(dual, DualSlot{
			Slot:         s,
			BusinessTime: s.Start.In(businessLoc).Format(displayLayout),
			VisitorTime:  s.Start.In(visitorLoc).Format(displayLayout),
		})
	}
	return dual, nil
}

// overlapsAny reports a half-open collision: [a,b) and [c,d) overlap iff
// a < d && c < b. Cancelled events no longer block their slot.
func overlapsAny(start, end time.Time, events []*domain.CalendarEvent) bool {
	for _, ev := range events {
		if !ev.Blocks() {
			continue
		}
		if start.Before(ev.EndTime) && ev.StartTime.Before(end) {
			return true
		}
	}
	return false
}

func minutesOfDay(hhmm string) (int, error) {
	t, err := time.Parse(timeLayout, hhmm)
	if err != nil {
		return 0, fmt.Errorf("%w: bad time %q", ErrInvalidConfig, hhmm)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func formatMinutes(min int) string {
	return fmt.Sprintf("%02d:%02d", min/60, min%60)
}
