package scheduling

import (
	"fmt"
	"time"

	"github.com/slotwise/slotwise/internal/domain"
)

// Session is one concrete webinar occurrence. Date stays in the tenant's
// local calendar (slot-conflict checks key on it); Start and End are UTC.
type Session struct {
	Date  string    `json:"date"`
	Start time.Time `json:"start_time"`
	End   time.Time `json:"end_time"`
}

// ExpandSessions turns a webinar schedule into its concrete sessions. With no
// recurrence rule the schedule is a single session. With a rule, the explicit
// session count wins over the rule's own end condition: the expansion is
// driven to exactly SessionCount occurrences.
func ExpandSessions(schedule domain.WebinarSchedule, timezone string) ([]Session, error) {
	if schedule.Recurrence == nil {
		s, err := buildSession(schedule.StartDate, schedule.StartTime, schedule.EndTime, timezone)
		if err != nil {
			return nil, err
		}
		return []Session{s}, nil
	}

	count := schedule.SessionCount
	if count < 1 || count > 52 {
		return nil, fmt.Errorf("%w: session count %d", ErrInvalidConfig, count)
	}

	// Schedules may attach a bare rule and let the session count terminate
	// it; give ParseRule a terminator so validation passes either way.
	spec := *schedule.Recurrence
	if spec.EndAfterOccurrences == nil && spec.EndOnDate == nil {
		spec.EndAfterOccurrences = &count
	}
	rule, _, err := ParseRule(spec)
	if err != nil {
		return nil, err
	}
	start, err := ParseDate(schedule.StartDate)
	if err != nil {
		return nil, err
	}

	dates, err := Expand(start, rule, EndAfter(count))
	if err != nil {
		return nil, err
	}

	sessions := make([]Session, 0, len(dates))
	for _, d := range dates {
		s, err := buildSession(FormatDate(d), schedule.StartTime, schedule.EndTime, timezone)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

func buildSession(date, startHHmm, endHHmm, timezone string) (Session, error) {
	start, err := LocalToUTC(date, startHHmm, timezone)
	if err != nil {
		return Session{}, err
	}
	end, err := LocalToUTC(date, endHHmm, timezone)
	if err != nil {
		return Session{}, err
	}
	return Session{Date: date, Start: start, End: end}, nil
}
