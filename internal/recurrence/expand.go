// Package recurrence expands recurring transaction schedules into concrete
// occurrence dates. Expansion is pure and re-run per request; no expansion
// state is ever persisted.
package recurrence

import (
	"time"

	"nassets/internal/core"
)

// Window is the inclusive date range expansion is computed over.
type Window struct {
	Start core.Date
	End   core.Date
}

// MonthWindow returns the window covering the whole given calendar month,
// respecting the real number of days (leap-year February included).
func MonthWindow(year, month int) (Window, error) {
	if month < 1 || month > 12 || year < 1 || year > 9999 {
		return Window{}, core.ErrInvalidPeriod
	}
	return Window{
		Start: core.NewDate(year, month, 1),
		End:   core.NewDate(year, month, daysInMonth(year, month)),
	}, nil
}

// Valid reports whether the window is well-formed: both bounds set and
// Start not after End.
func (w Window) Valid() bool {
	return !w.Start.IsZero() && !w.End.IsZero() && !w.Start.After(w.End.Time)
}

// Series describes the schedule carried by a transaction-like record.
type Series struct {
	Start core.Date
	Every core.RecurrenceType
	Until core.Date // zero = open-ended; ignored when Every is none
}

// Occurrence is one concrete calendar-dated instance produced by expansion.
type Occurrence struct {
	Date      core.Date
	Recurring bool
}

// Expand produces every occurrence of s whose date falls inside w, in
// ascending order. For a non-recurring series the anchor date is emitted
// iff it lies inside the window. For recurring series occurrences step
// forward from the anchor by the recurrence unit; the effective end bound
// is min(Until, w.End), and an Until preceding the anchor collapses the
// series to nothing. No occurrence is ever emitted before the anchor.
//
// A malformed window or an unknown recurrence type degrades to an empty
// result rather than failing.
func Expand(s Series, w Window) []Occurrence {
	if !w.Valid() || s.Start.IsZero() {
		return nil
	}

	if s.Every == core.RecurrenceNone {
		if s.Start.Before(w.Start.Time) || s.Start.After(w.End.Time) {
			return nil
		}
		return []Occurrence{{Date: s.Start, Recurring: false}}
	}

	if !s.Every.Valid() {
		return nil
	}

	bound := w.End
	if !s.Until.IsZero() && s.Until.Before(bound.Time) {
		bound = s.Until
	}
	if bound.Before(s.Start.Time) {
		return nil
	}

	var out []Occurrence
	for i := 0; ; i++ {
		d := step(s.Start, s.Every, i)
		if d.After(bound.Time) {
			break
		}
		if !d.Before(w.Start.Time) {
			out = append(out, Occurrence{Date: d, Recurring: true})
		}
	}
	return out
}

// step computes the n-th occurrence date of a series. Monthly and yearly
// steps are computed from the anchor each time rather than from the
// previous occurrence, so a clamped date (Jan 31 -> Feb 29) does not
// drift the anchor day for later months.
func step(start core.Date, every core.RecurrenceType, n int) core.Date {
	switch every {
	case core.RecurrenceDaily:
		return core.Date{Time: start.AddDate(0, 0, n)}
	case core.RecurrenceWeekly:
		return core.Date{Time: start.AddDate(0, 0, 7*n)}
	case core.RecurrenceMonthly:
		return addMonthsClamped(start, n)
	case core.RecurrenceYearly:
		return addMonthsClamped(start, 12*n)
	}
	return start
}

// addMonthsClamped advances d by the given number of calendar months,
// preserving the day-of-month where the target month has that day and
// clamping to the month's last day otherwise. time.AddDate is avoided
// here: it normalizes Jan 31 + 1 month to Mar 2/3 instead of clamping.
func addMonthsClamped(d core.Date, months int) core.Date {
	year, month, day := d.Date()
	total := year*12 + int(month) - 1 + months
	year, month = total/12, time.Month(total%12+1)
	if last := daysInMonth(year, int(month)); day > last {
		day = last
	}
	return core.NewDate(year, int(month), day)
}

func daysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
