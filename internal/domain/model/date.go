package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the canonical wire form of a calendar date
const DateLayout = "2006-01-02"

// CalendarDate represents a local calendar day without any time-of-day or
// time zone component. A CalendarDate and its ISO "YYYY-MM-DD" string form
// compare equal everywhere in the application; parsing and formatting
// round-trip exactly.
//
// The zero value is "no date".
type CalendarDate struct {
	year  int
	month time.Month
	day   int
}

// NewCalendarDate creates a CalendarDate from year, month and day.
// The components are normalized the same way time.Date normalizes them,
// so NewCalendarDate(2026, 2, 30) yields 2026-03-02.
func NewCalendarDate(year int, month time.Month, day int) CalendarDate {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return CalendarDate{year: t.Year(), month: t.Month(), day: t.Day()}
}

// DateOf extracts the calendar day from a time value in its own location.
func DateOf(t time.Time) CalendarDate {
	return CalendarDate{year: t.Year(), month: t.Month(), day: t.Day()}
}

// ParseDate parses the canonical "YYYY-MM-DD" form.
func ParseDate(s string) (CalendarDate, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return CalendarDate{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// MustParseDate parses a date string and panics on failure. Test helper.
func MustParseDate(s string) CalendarDate {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// IsZero reports whether the date is unset.
func (d CalendarDate) IsZero() bool {
	return d == CalendarDate{}
}

// String returns the canonical "YYYY-MM-DD" form.
func (d CalendarDate) String() string {
	return d.Time().Format(DateLayout)
}

// Time returns the date as a time.Time at UTC midnight. It is used only for
// calendar arithmetic; the result must not be compared against wall-clock
// times from other locations.
func (d CalendarDate) Time() time.Time {
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, time.UTC)
}

// Year returns the calendar year.
func (d CalendarDate) Year() int { return d.year }

// Month returns the calendar month.
func (d CalendarDate) Month() time.Month { return d.month }

// Day returns the day of month.
func (d CalendarDate) Day() int { return d.day }

// Weekday returns the day of week (Sunday = 0).
func (d CalendarDate) Weekday() time.Weekday {
	return d.Time().Weekday()
}

// Before reports whether d is earlier than other.
func (d CalendarDate) Before(other CalendarDate) bool {
	return d.Time().Before(other.Time())
}

// After reports whether d is later than other.
func (d CalendarDate) After(other CalendarDate) bool {
	return d.Time().After(other.Time())
}

// AddDays returns the date n days after d (n may be negative).
func (d CalendarDate) AddDays(n int) CalendarDate {
	return DateOf(d.Time().AddDate(0, 0, n))
}

// DaysSince returns the number of whole days from other to d.
func (d CalendarDate) DaysSince(other CalendarDate) int {
	return int(d.Time().Sub(other.Time()) / (24 * time.Hour))
}

// MonthsSince returns the number of calendar months from other to d,
// ignoring the day-of-month component.
func (d CalendarDate) MonthsSince(other CalendarDate) int {
	return (d.year-other.year)*12 + int(d.month) - int(other.month)
}

// MarshalJSON encodes the date as its canonical string form.
func (d CalendarDate) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return json.Marshal("")
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes the canonical string form. An empty string decodes
// to the zero date.
func (d *CalendarDate) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = CalendarDate{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalDateSlice encodes a slice of dates as a JSON array of canonical
// date strings.
func MarshalDateSlice(dates []CalendarDate) ([]byte, error) {
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.String())
	}
	return json.Marshal(out)
}

// UnmarshalDateSlice decodes a JSON array of canonical date strings.
func UnmarshalDateSlice(data []byte) ([]CalendarDate, error) {
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	dates := make([]CalendarDate, 0, len(raw))
	for _, s := range raw {
		d, err := ParseDate(s)
		if err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, nil
}

// MarshalYAML encodes the date as its canonical string form.
func (d CalendarDate) MarshalYAML() (interface{}, error) {
	if d.IsZero() {
		return "", nil
	}
	return d.String(), nil
}

// UnmarshalYAML decodes the canonical string form.
func (d *CalendarDate) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		*d = CalendarDate{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
