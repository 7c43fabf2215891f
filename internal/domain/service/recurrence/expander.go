// Package recurrence expands recurrence rules into concrete occurrence
// dates. Everything in this package is pure: nothing here reads or writes
// the store, so expansion is safe to re-run on every read.
package recurrence

import (
	"time"

	"github.com/planday/planday/internal/domain/model"
	"github.com/planday/planday/internal/domain/model/pattern"
)

// Expand returns, in ascending order, every occurrence date the rule
// implies within [start, end] inclusive, excluding exception dates and
// dates past the rule's end condition.
//
// afterCompletion rules are never expanded speculatively; the next
// occurrence is created explicitly when the current one completes.
//
// De-duplication against already-materialized tasks is the caller's
// responsibility, not the expander's.
func Expand(rule pattern.Rule, exceptions *pattern.DateSet, start, end model.CalendarDate) []model.CalendarDate {
	if rule.Type == pattern.RecurrenceAfterCompletion {
		return nil
	}
	if rule.StartDate.IsZero() || end.Before(start) {
		return nil
	}

	// Occurrence counting starts at the rule's start date, not the window
	// start, so the walk always begins there.
	cursor := rule.StartDate
	last := end
	if rule.End.Type == pattern.EndOnDate && !rule.End.EndDate.IsZero() && rule.End.EndDate.Before(last) {
		last = rule.End.EndDate
	}

	var out []model.CalendarDate
	count := 0
	for d := cursor; !d.After(last); d = d.AddDays(1) {
		if !matches(rule, d) {
			continue
		}
		if exceptions != nil && exceptions.Contains(d) {
			continue
		}
		count++
		if rule.End.Type == pattern.EndOccurrences && rule.End.MaxOccurrences > 0 && count > rule.End.MaxOccurrences {
			break
		}
		if !d.Before(start) {
			out = append(out, d)
		}
	}
	return out
}

// NextOccurrenceAfter returns the first occurrence strictly after the given
// date, or the zero date when the rule generates none. Used when deleting
// the occurrence a recurring parent itself stands on.
func NextOccurrenceAfter(rule pattern.Rule, exceptions *pattern.DateSet, after model.CalendarDate) model.CalendarDate {
	// Two years of look-ahead covers every supported rule shape, including
	// yearly rules with multi-year intervals up to the usual editing range.
	horizon := after.AddDays(366 * 2 * maxInt(rule.IntervalOrDefault(), 1))
	dates := Expand(rule, exceptions, after.AddDays(1), horizon)
	if len(dates) == 0 {
		return model.CalendarDate{}
	}
	return dates[0]
}

// matches reports whether a single date satisfies the rule, ignoring
// exceptions and end conditions.
func matches(rule pattern.Rule, d model.CalendarDate) bool {
	if d.Before(rule.StartDate) {
		return false
	}
	interval := rule.IntervalOrDefault()

	switch rule.Type {
	case pattern.RecurrenceDaily:
		return d.DaysSince(rule.StartDate)%interval == 0

	case pattern.RecurrenceWeekly:
		if !weekdayIn(rule.DaysOfWeek, d.Weekday()) {
			return false
		}
		return weeksBetween(rule.StartDate, d)%interval == 0

	case pattern.RecurrenceMonthly:
		if d.MonthsSince(rule.StartDate)%interval != 0 {
			return false
		}
		switch {
		case rule.NthWeekday != nil:
			resolved, ok := resolveNthWeekday(d.Year(), d.Month(), *rule.NthWeekday)
			return ok && resolved == d
		case len(rule.SpecificDatesOfMonth) > 0:
			for _, day := range rule.SpecificDatesOfMonth {
				if d.Day() == day {
					return true
				}
			}
			return false
		default:
			return rule.DayOfMonth > 0 && d.Day() == rule.DayOfMonth
		}

	case pattern.RecurrenceYearly:
		if (d.Year()-rule.StartDate.Year())%interval != 0 {
			return false
		}
		return d.Month() == rule.MonthOfYear && d.Day() == rule.DayOfMonth

	default:
		return false
	}
}

// weeksBetween counts whole calendar weeks (Sunday-start) between the week
// containing a and the week containing b.
func weeksBetween(a, b model.CalendarDate) int {
	return b.DaysSince(weekStart(a)) / 7
}

// weekStart returns the Sunday on or before d.
func weekStart(d model.CalendarDate) model.CalendarDate {
	return d.AddDays(-int(d.Weekday()))
}

func weekdayIn(days []time.Weekday, w time.Weekday) bool {
	for _, d := range days {
		if d == w {
			return true
		}
	}
	return false
}

// resolveNthWeekday finds the n-th weekday of the given month. n = -1
// resolves to the last occurrence. ok is false when the month has no such
// day (e.g. a 5th Friday in a four-Friday month).
func resolveNthWeekday(year int, month time.Month, nth pattern.NthWeekday) (model.CalendarDate, bool) {
	first := model.NewCalendarDate(year, month, 1)
	lastDay := first.AddDays(daysInMonth(year, month) - 1)

	if nth.N == -1 {
		d := lastDay
		for d.Weekday() != nth.Weekday {
			d = d.AddDays(-1)
		}
		return d, true
	}

	// Offset from the first of the month to the first matching weekday.
	offset := (int(nth.Weekday) - int(first.Weekday()) + 7) % 7
	d := first.AddDays(offset + (nth.N-1)*7)
	if d.Month() != month {
		return model.CalendarDate{}, false
	}
	return d, true
}

func daysInMonth(year int, month time.Month) int {
	return model.NewCalendarDate(year, month+1, 1).AddDays(-1).Day()
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
