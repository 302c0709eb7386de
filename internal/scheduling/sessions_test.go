package scheduling

import (
	"errors"
	"testing"
	"time"

	"github.com/slotwise/slotwise/internal/domain"
)

func TestExpandSessionsSingle(t *testing.T) {
	schedule := domain.WebinarSchedule{
		StartDate: "2024-01-15",
		StartTime: "08:00",
		EndTime:   "09:30",
	}

	sessions, err := ExpandSessions(schedule, "Australia/Sydney")
	if err != nil {
		t.Fatalf("ExpandSessions() error = %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("got %d sessions, want 1", len(sessions))
	}

	s := sessions[0]
	// Date stays in the tenant's calendar even though the UTC instant lands
	// on the previous day (Sydney is +11 in January).
	if s.Date != "2024-01-15" {
		t.Errorf("session date = %q, want 2024-01-15", s.Date)
	}
	if want := mustUTC(t, "2024-01-15", "08:00", "Australia/Sydney"); !s.Start.Equal(want) {
		t.Errorf("start = %v, want %v", s.Start, want)
	}
	if s.Start.UTC().Day() != 14 {
		t.Errorf("UTC start day = %d, want 14", s.Start.UTC().Day())
	}
	if got := s.End.Sub(s.Start); got != 90*time.Minute {
		t.Errorf("session length %v, want 90m", got)
	}
}

func TestExpandSessionsCountDrivesRule(t *testing.T) {
	two := 2
	tests := []struct {
		name string
		rec  *domain.RecurrenceSpec
	}{
		{
			name: "bare rule without end",
			rec:  &domain.RecurrenceSpec{Frequency: "weekly", DaysOfWeek: []int{1}},
		},
		{
			// The rule's own terminator says 2; the session count still wins.
			name: "rule end disagrees",
			rec:  &domain.RecurrenceSpec{Frequency: "weekly", DaysOfWeek: []int{1}, EndAfterOccurrences: &two},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schedule := domain.WebinarSchedule{
				StartDate:    "2024-03-04", // a Monday
				StartTime:    "18:00",
				EndTime:      "19:00",
				Recurrence:   tt.rec,
				SessionCount: 5,
			}
			sessions, err := ExpandSessions(schedule, "UTC")
			if err != nil {
				t.Fatalf("ExpandSessions() error = %v", err)
			}
			if len(sessions) != 5 {
				t.Fatalf("got %d sessions, want 5", len(sessions))
			}
			for i, s := range sessions {
				want := time.Date(2024, time.March, 4+7*i, 18, 0, 0, 0, time.UTC)
				if !s.Start.Equal(want) {
					t.Errorf("session %d start = %v, want %v", i, s.Start, want)
				}
			}
		})
	}
}

func TestExpandSessionsInvalidCount(t *testing.T) {
	schedule := domain.WebinarSchedule{
		StartDate:  "2024-03-04",
		StartTime:  "18:00",
		EndTime:    "19:00",
		Recurrence: &domain.RecurrenceSpec{Frequency: "weekly"},
	}

	for _, count := range []int{0, 53} {
		schedule.SessionCount = count
		if _, err := ExpandSessions(schedule, "UTC"); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("count %d: got %v, want ErrInvalidConfig", count, err)
		}
	}
}

func TestExpandSessionsBadZone(t *testing.T) {
	schedule := domain.WebinarSchedule{
		StartDate: "2024-03-04",
		StartTime: "18:00",
		EndTime:   "19:00",
	}
	if _, err := ExpandSessions(schedule, "Not/AZone"); !errors.Is(err, ErrInvalidTimezone) {
		t.Errorf("got %v, want ErrInvalidTimezone", err)
	}
}
