// Package scheduling implements the booking core: timezone conversion,
// recurrence expansion, slot generation and webinar session expansion. Every
// function here is pure; callers own persistence and I/O.
package scheduling

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidTimezone       = errors.New("scheduling: invalid timezone")
	ErrInvalidConfig         = errors.New("scheduling: invalid config")
	ErrInvalidRecurrenceRule = errors.New("scheduling: invalid recurrence rule")
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// ParseDate parses a YYYY-MM-DD civil date into UTC midnight.
func ParseDate(date string) (time.Time, error) {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad date %q", ErrInvalidConfig, date)
	}
	return t, nil
}

// FormatDate renders a civil date back to YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// LocalToUTC converts a civil date plus wall-clock time in an IANA zone into
// the absolute UTC instant, honouring whatever DST rule is in force on that
// specific date.
//
// The offset is derived by diffing two renderings of a reference instant
// (local noon UTC on the target date): its civil fields in UTC and its civil
// fields in the target zone, each re-read as if they were UTC. Fixed-offset
// arithmetic would be wrong on transition days, so the reference instant is
// computed per date, never cached. At the exact instant of a spring-forward
// gap or fall-back overlap there is no single correct mapping; this picks the
// offset in force at local noon.
func LocalToUTC(date, hhmm, ianaZone string) (time.Time, error) {
	day, err := ParseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	clock, err := time.Parse(timeLayout, hhmm)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad time %q", ErrInvalidConfig, hhmm)
	}

	loc, err := time.LoadLocation(ianaZone)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimezone, ianaZone)
	}

	offset := zoneOffsetOn(day, loc)

	// Read the caller's wall clock as if it were UTC, then remove the offset.
	naive := time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, time.UTC)
	return naive.Add(-offset), nil
}

// zoneOffsetOn computes loc's UTC offset on the given civil date. The
// reference instant is noon UTC, far enough from midnight that the civil date
// is stable in any zone.
func zoneOffsetOn(day time.Time, loc *time.Location) time.Duration {
	ref := time.Date(day.Year(), day.Month(), day.Day(), 12, 0, 0, 0, time.UTC)

	local := ref.In(loc)
	localAsUTC := time.Date(local.Year(), local.Month(), local.Day(),
		local.Hour(), local.Minute(), local.Second(), 0, time.UTC)

	return localAsUTC.Sub(ref)
}
