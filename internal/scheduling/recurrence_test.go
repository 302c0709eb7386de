package scheduling

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/slotwise/slotwise/internal/domain"
)

func d(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func expandDates(t *testing.T, start time.Time, rule Rule, end End) []string {
	t.Helper()
	got, err := Expand(start, rule, end)
	if err != nil {
		t.Fatalf("Expand() error = %v", err)
	}
	out := make([]string, len(got))
	for i, occ := range got {
		out[i] = FormatDate(occ)
	}
	return out
}

func TestExpandDaily(t *testing.T) {
	got := expandDates(t, d(2024, time.March, 1), Daily{Interval: 1}, EndAfter(4))
	want := []string{"2024-03-01", "2024-03-02", "2024-03-03", "2024-03-04"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("daily = %v, want %v", got, want)
	}

	got = expandDates(t, d(2024, time.March, 1), Daily{Interval: 3}, EndAfter(3))
	want = []string{"2024-03-01", "2024-03-04", "2024-03-07"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("daily interval 3 = %v, want %v", got, want)
	}
}

func TestExpandDailyEndOnInclusive(t *testing.T) {
	got := expandDates(t, d(2024, time.March, 1), Daily{Interval: 2}, EndOn(d(2024, time.March, 5)))
	// The end date is itself an occurrence and must be included.
	want := []string{"2024-03-01", "2024-03-03", "2024-03-05"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("daily end-on = %v, want %v", got, want)
	}
}

func TestExpandWeekly(t *testing.T) {
	// 2024-03-04 is a Monday.
	start := d(2024, time.March, 4)

	t.Run("default day from start", func(t *testing.T) {
		got := expandDates(t, start, Weekly{Interval: 1}, EndAfter(3))
		want := []string{"2024-03-04", "2024-03-11", "2024-03-18"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("weekly = %v, want %v", got, want)
		}
	})

	t.Run("multiple days", func(t *testing.T) {
		rule := Weekly{Interval: 1, Days: []time.Weekday{time.Monday, time.Friday}}
		got := expandDates(t, start, rule, EndAfter(4))
		want := []string{"2024-03-04", "2024-03-08", "2024-03-11", "2024-03-15"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("weekly mon/fri = %v, want %v", got, want)
		}
	})

	t.Run("biweekly skips the off week", func(t *testing.T) {
		rule := Weekly{Interval: 2, Days: []time.Weekday{time.Monday, time.Friday}}
		got := expandDates(t, start, rule, EndAfter(4))
		want := []string{"2024-03-04", "2024-03-08", "2024-03-18", "2024-03-22"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("biweekly = %v, want %v", got, want)
		}
	})
}

func TestExpandMonthlyClampsShortMonths(t *testing.T) {
	// Anchored on the 31st: February must clamp, not be skipped.
	got := expandDates(t, d(2024, time.January, 31), Monthly{Interval: 1, Mode: ByDayOfMonth}, EndAfter(5))
	want := []string{"2024-01-31", "2024-02-29", "2024-03-31", "2024-04-30", "2024-05-31"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("monthly clamp (leap year) = %v, want %v", got, want)
	}

	got = expandDates(t, d(2025, time.January, 31), Monthly{Interval: 1, Mode: ByDayOfMonth}, EndAfter(3))
	want = []string{"2025-01-31", "2025-02-28", "2025-03-31"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("monthly clamp (common year) = %v, want %v", got, want)
	}
}

func TestExpandMonthlyOrdinalWeekday(t *testing.T) {
	// 2023-12-19 is the 3rd Tuesday of December; run across a leap year.
	got := expandDates(t, d(2023, time.December, 19), Monthly{Interval: 1, Mode: ByDayOfWeek}, EndAfter(13))
	want := []string{
		"2023-12-19",
		"2024-01-16", "2024-02-20", "2024-03-19", "2024-04-16",
		"2024-05-21", "2024-06-18", "2024-07-16", "2024-08-20",
		"2024-09-17", "2024-10-15", "2024-11-19", "2024-12-17",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("3rd Tuesday = %v, want %v", got, want)
	}

	for _, occ := range got {
		day, err := ParseDate(occ)
		if err != nil {
			t.Fatal(err)
		}
		if day.Weekday() != time.Tuesday {
			t.Errorf("%s is a %s, want Tuesday", occ, day.Weekday())
		}
	}
}

func TestExpandMonthlyFifthOrdinalFallsBack(t *testing.T) {
	// 2024-03-29 is the 5th Friday of March; April 2024 has only four
	// Fridays, so the occurrence falls back to the last one.
	got := expandDates(t, d(2024, time.March, 29), Monthly{Interval: 1, Mode: ByDayOfWeek}, EndAfter(3))
	want := []string{"2024-03-29", "2024-04-26", "2024-05-31"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("5th Friday fallback = %v, want %v", got, want)
	}
}

func TestExpandYearly(t *testing.T) {
	got := expandDates(t, d(2024, time.February, 29), Yearly{Interval: 1}, EndAfter(3))
	// Feb 29 clamps to Feb 28 in common years.
	want := []string{"2024-02-29", "2025-02-28", "2026-02-28"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("yearly leap clamp = %v, want %v", got, want)
	}
}

func TestExpandWeekdays(t *testing.T) {
	// 2024-03-01 is a Friday; the weekend must be skipped.
	got := expandDates(t, d(2024, time.March, 1), Weekdays{}, EndAfter(4))
	want := []string{"2024-03-01", "2024-03-04", "2024-03-05", "2024-03-06"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("weekdays = %v, want %v", got, want)
	}
}

func TestExpandStrictlyIncreasing(t *testing.T) {
	rules := []struct {
		name string
		rule Rule
	}{
		{"daily", Daily{Interval: 1}},
		{"weekly", Weekly{Interval: 2, Days: []time.Weekday{time.Wednesday, time.Saturday}}},
		{"monthly day", Monthly{Interval: 1, Mode: ByDayOfMonth}},
		{"monthly ordinal", Monthly{Interval: 1, Mode: ByDayOfWeek}},
		{"weekdays", Weekdays{}},
	}
	for _, tt := range rules {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Expand(d(2024, time.January, 31), tt.rule, EndAfter(20))
			if err != nil {
				t.Fatal(err)
			}
			for i := 1; i < len(got); i++ {
				if !got[i-1].Before(got[i]) {
					t.Errorf("occurrences not strictly increasing at %d: %v, %v", i, got[i-1], got[i])
				}
			}
		})
	}
}

func TestExpandDeterministic(t *testing.T) {
	rule := Weekly{Interval: 2, Days: []time.Weekday{time.Monday, time.Thursday}}
	a, err := Expand(d(2024, time.June, 3), rule, EndAfter(10))
	if err != nil {
		t.Fatal(err)
	}
	b, err := Expand(d(2024, time.June, 3), rule, EndAfter(10))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("identical inputs diverged: %v vs %v", a, b)
	}
}

func TestEndValidation(t *testing.T) {
	if _, err := Expand(d(2024, time.March, 1), Daily{Interval: 1}, End{}); !errors.Is(err, ErrInvalidRecurrenceRule) {
		t.Errorf("no end variant: got %v, want ErrInvalidRecurrenceRule", err)
	}
	if _, err := Expand(d(2024, time.March, 1), Daily{Interval: 1}, EndAfter(53)); !errors.Is(err, ErrInvalidRecurrenceRule) {
		t.Errorf("count out of range: got %v, want ErrInvalidRecurrenceRule", err)
	}
	if _, err := Expand(d(2024, time.March, 1), Daily{Interval: 1}, EndAfter(-1)); !errors.Is(err, ErrInvalidRecurrenceRule) {
		t.Errorf("negative count: got %v, want ErrInvalidRecurrenceRule", err)
	}
}

func TestParseRule(t *testing.T) {
	count := func(n int) *int { return &n }
	dateStr := func(s string) *string { return &s }

	tests := []struct {
		name    string
		spec    domain.RecurrenceSpec
		want    Rule
		wantErr bool
	}{
		{
			name: "weekly with days",
			spec: domain.RecurrenceSpec{Frequency: "weekly", Interval: 2, DaysOfWeek: []int{1, 3}, EndAfterOccurrences: count(6)},
			want: Weekly{Interval: 2, Days: []time.Weekday{time.Monday, time.Wednesday}},
		},
		{
			name: "monthly default mode",
			spec: domain.RecurrenceSpec{Frequency: "monthly", EndAfterOccurrences: count(3)},
			want: Monthly{Interval: 1, Mode: ByDayOfMonth},
		},
		{
			name: "monthly ordinal mode",
			spec: domain.RecurrenceSpec{Frequency: "monthly", MonthlyMode: "day_of_week", EndAfterOccurrences: count(3)},
			want: Monthly{Interval: 1, Mode: ByDayOfWeek},
		},
		{
			name: "end on date",
			spec: domain.RecurrenceSpec{Frequency: "daily", EndOnDate: dateStr("2024-06-01")},
			want: Daily{Interval: 1},
		},
		{
			name:    "both end variants",
			spec:    domain.RecurrenceSpec{Frequency: "daily", EndAfterOccurrences: count(3), EndOnDate: dateStr("2024-06-01")},
			wantErr: true,
		},
		{
			name:    "no end variant",
			spec:    domain.RecurrenceSpec{Frequency: "daily"},
			wantErr: true,
		},
		{
			name:    "unknown frequency",
			spec:    domain.RecurrenceSpec{Frequency: "hourly", EndAfterOccurrences: count(3)},
			wantErr: true,
		},
		{
			name:    "weekday out of range",
			spec:    domain.RecurrenceSpec{Frequency: "weekly", DaysOfWeek: []int{7}, EndAfterOccurrences: count(3)},
			wantErr: true,
		},
		{
			name:    "unknown monthly mode",
			spec:    domain.RecurrenceSpec{Frequency: "monthly", MonthlyMode: "nth_blursday", EndAfterOccurrences: count(3)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, _, err := ParseRule(tt.spec)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidRecurrenceRule) {
					t.Errorf("ParseRule() error = %v, want ErrInvalidRecurrenceRule", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRule() error = %v", err)
			}
			if !reflect.DeepEqual(rule, tt.want) {
				t.Errorf("ParseRule() = %#v, want %#v", rule, tt.want)
			}
		})
	}
}
