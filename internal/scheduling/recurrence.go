package scheduling

import (
	"fmt"
	"sort"
	"time"

	"github.com/slotwise/slotwise/internal/domain"
)

// maxOccurrences caps date-bounded expansions so a distant end date cannot
// produce an unbounded sequence.
const maxOccurrences = 1000

// Rule is a validated recurrence rule. The variants are a closed set; invalid
// frequency/field combinations cannot be represented.
type Rule interface {
	isRule()
}

type Daily struct {
	Interval int
}

type Weekly struct {
	Interval int
	// Days defaults to the start date's weekday when empty.
	Days []time.Weekday
}

type MonthlyMode int

const (
	// ByDayOfMonth repeats the start's day number, clamped to short months.
	ByDayOfMonth MonthlyMode = iota
	// ByDayOfWeek repeats the start's ordinal weekday (e.g. 3rd Tuesday).
	ByDayOfWeek
)

type Monthly struct {
	Interval int
	Mode     MonthlyMode
}

type Yearly struct {
	Interval int
}

// Weekdays emits every Monday through Friday. Interval does not apply.
type Weekdays struct{}

func (Daily) isRule()    {}
func (Weekly) isRule()   {}
func (Monthly) isRule()  {}
func (Yearly) isRule()   {}
func (Weekdays) isRule() {}

// End terminates an expansion. Exactly one terminator is set: a bounded
// occurrence count or an inclusive final date.
type End struct {
	afterOccurrences int
	onDate           time.Time
}

func EndAfter(n int) End {
	return End{afterOccurrences: n}
}

func EndOn(date time.Time) End {
	return End{onDate: date}
}

func (e End) validate() error {
	if e.afterOccurrences != 0 && !e.onDate.IsZero() {
		return fmt.Errorf("%w: both end variants set", ErrInvalidRecurrenceRule)
	}
	if e.afterOccurrences == 0 && e.onDate.IsZero() {
		return fmt.Errorf("%w: no end variant set", ErrInvalidRecurrenceRule)
	}
	if e.afterOccurrences != 0 && (e.afterOccurrences < 1 || e.afterOccurrences > 52) {
		return fmt.Errorf("%w: occurrence count %d out of range 1..52", ErrInvalidRecurrenceRule, e.afterOccurrences)
	}
	return nil
}

// ParseRule converts a persisted recurrence spec into a validated rule and
// its end condition.
func ParseRule(spec domain.RecurrenceSpec) (Rule, End, error) {
	var end End
	switch {
	case spec.EndAfterOccurrences != nil && spec.EndOnDate != nil:
		return nil, end, fmt.Errorf("%w: both end variants set", ErrInvalidRecurrenceRule)
	case spec.EndAfterOccurrences != nil:
		end = EndAfter(*spec.EndAfterOccurrences)
	case spec.EndOnDate != nil:
		d, err := ParseDate(*spec.EndOnDate)
		if err != nil {
			return nil, end, fmt.Errorf("%w: bad end date %q", ErrInvalidRecurrenceRule, *spec.EndOnDate)
		}
		end = EndOn(d)
	default:
		return nil, end, fmt.Errorf("%w: no end variant set", ErrInvalidRecurrenceRule)
	}
	if err := end.validate(); err != nil {
		return nil, end, err
	}

	interval := spec.Interval
	if interval < 1 {
		interval = 1
	}

	switch spec.Frequency {
	case "daily":
		return Daily{Interval: interval}, end, nil
	case "weekly":
		days := make([]time.Weekday, 0, len(spec.DaysOfWeek))
		for _, d := range spec.DaysOfWeek {
			if d < 0 || d > 6 {
				return nil, end, fmt.Errorf("%w: weekday %d out of range", ErrInvalidRecurrenceRule, d)
			}
			days = append(days, time.Weekday(d))
		}
		return Weekly{Interval: interval, Days: days}, end, nil
	case "monthly":
		mode := ByDayOfMonth
		switch spec.MonthlyMode {
		case "", "day_of_month":
		case "day_of_week":
			mode = ByDayOfWeek
		default:
			return nil, end, fmt.Errorf("%w: unknown monthly mode %q", ErrInvalidRecurrenceRule, spec.MonthlyMode)
		}
		return Monthly{Interval: interval, Mode: mode}, end, nil
	case "yearly":
		return Yearly{Interval: interval}, end, nil
	case "weekday":
		return Weekdays{}, end, nil
	default:
		return nil, end, fmt.Errorf("%w: unknown frequency %q", ErrInvalidRecurrenceRule, spec.Frequency)
	}
}

// Expand produces the finite, strictly increasing occurrence dates of rule
// anchored at start (UTC midnight civil date). The first occurrence is the
// start date itself for every frequency except weekly with a day set that
// excludes it.
func Expand(start time.Time, rule Rule, end End) ([]time.Time, error) {
	if err := end.validate(); err != nil {
		return nil, err
	}
	start = midnight(start)

	var out []time.Time
	emit := func(d time.Time) bool {
		if !end.onDate.IsZero() && d.After(end.onDate) {
			return false
		}
		out = append(out, d)
		if end.afterOccurrences != 0 && len(out) >= end.afterOccurrences {
			return false
		}
		return len(out) < maxOccurrences
	}

	switch r := rule.(type) {
	case Daily:
		for d := start; ; d = d.AddDate(0, 0, r.Interval) {
			if !emit(d) {
				break
			}
		}
		return trimExpand(out), nil

	case Weekly:
		days := weekdaySet(r.Days, start.Weekday())
		// Week blocks are anchored on the Sunday of the start date's week.
		weekAnchor := start.AddDate(0, 0, -int(start.Weekday()))
		for d := start; ; d = d.AddDate(0, 0, 1) {
			weeks := int(d.Sub(weekAnchor).Hours()) / (24 * 7)
			if weeks%r.Interval != 0 {
				continue
			}
			if _, ok := days[d.Weekday()]; !ok {
				continue
			}
			if !emit(d) {
				break
			}
		}
		return trimExpand(out), nil

	case Monthly:
		if r.Mode == ByDayOfWeek {
			ordinal := (start.Day() + 6) / 7
			weekday := start.Weekday()
			for k := 0; ; k += r.Interval {
				d := nthWeekdayOfMonth(start.Year(), start.Month(), k, weekday, ordinal)
				if !emit(d) {
					break
				}
			}
			return trimExpand(out), nil
		}
		for k := 0; ; k += r.Interval {
			d := dayOfMonthClamped(start.Year(), start.Month(), k, start.Day())
			if !emit(d) {
				break
			}
		}
		return trimExpand(out), nil

	case Yearly:
		for k := 0; ; k += r.Interval {
			d := dayOfMonthClamped(start.Year()+k, start.Month(), 0, start.Day())
			if !emit(d) {
				break
			}
		}
		return trimExpand(out), nil

	case Weekdays:
		for d := start; ; d = d.AddDate(0, 0, 1) {
			if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
				continue
			}
			if !emit(d) {
				break
			}
		}
		return trimExpand(out), nil

	default:
		return nil, fmt.Errorf("%w: nil rule", ErrInvalidRecurrenceRule)
	}
}

// trimExpand keeps the emitted sequence strictly increasing; month-length
// clamping can land two nearby target months on the same day.
func trimExpand(dates []time.Time) []time.Time {
	if !sort.SliceIsSorted(dates, func(i, j int) bool { return dates[i].Before(dates[j]) }) {
		sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	}
	deduped := dates[:0]
	for i, d := range dates {
		if i == 0 || !d.Equal(dates[i-1]) {
			deduped = append(deduped, d)
		}
	}
	return deduped
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func weekdaySet(days []time.Weekday, fallback time.Weekday) map[time.Weekday]struct{} {
	set := make(map[time.Weekday]struct{}, len(days))
	for _, d := range days {
		set[d] = struct{}{}
	}
	if len(set) == 0 {
		set[fallback] = struct{}{}
	}
	return set
}

// dayOfMonthClamped returns day-of-month day in the month monthsAhead months
// after (year, month), clamped to the target month's length so an anchor on
// the 31st lands on Feb 28/29 instead of skipping February.
func dayOfMonthClamped(year int, month time.Month, monthsAhead, day int) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, monthsAhead, 0)
	if last := daysInMonth(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

// nthWeekdayOfMonth returns the ordinal-th weekday of the month monthsAhead
// months after (year, month). A missing 5th occurrence falls back to the
// month's last such weekday.
func nthWeekdayOfMonth(year int, month time.Month, monthsAhead int, weekday time.Weekday, ordinal int) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, monthsAhead, 0)
	offset := (int(weekday) - int(first.Weekday()) + 7) % 7
	day := 1 + offset + (ordinal-1)*7
	for day > daysInMonth(first.Year(), first.Month()) {
		day -= 7
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
