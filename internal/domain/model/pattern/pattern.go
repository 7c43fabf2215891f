package pattern

import (
	"errors"
	"fmt"
	"time"

	"github.com/planday/planday/internal/domain/model"
)

// RecurrenceType classifies how a rule generates occurrence dates.
type RecurrenceType string

const (
	RecurrenceDaily   RecurrenceType = "daily"
	RecurrenceWeekly  RecurrenceType = "weekly"
	RecurrenceMonthly RecurrenceType = "monthly"
	RecurrenceYearly  RecurrenceType = "yearly"
	// RecurrenceAfterCompletion schedules the next occurrence relative to
	// the completion of the current one. It is never expanded ahead of time.
	RecurrenceAfterCompletion RecurrenceType = "afterCompletion"
)

// String returns the string representation
func (t RecurrenceType) String() string { return string(t) }

// IsValid validates the recurrence type
func (t RecurrenceType) IsValid() bool {
	switch t {
	case RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly, RecurrenceYearly, RecurrenceAfterCompletion:
		return true
	default:
		return false
	}
}

// EndType classifies how a rule terminates.
type EndType string

const (
	EndNever       EndType = "never"
	EndOnDate      EndType = "date"
	EndOccurrences EndType = "occurrences"
)

// EndCondition bounds the occurrences a rule generates.
type EndCondition struct {
	Type           EndType            `json:"type" yaml:"type"`
	EndDate        model.CalendarDate `json:"endDate,omitempty" yaml:"endDate,omitempty"`
	MaxOccurrences int                `json:"maxOccurrences,omitempty" yaml:"maxOccurrences,omitempty"`
}

// NthWeekday selects the n-th weekday of a month ("2nd Tuesday").
// N = -1 selects the last occurrence of the weekday in the month.
type NthWeekday struct {
	N       int          `json:"n" yaml:"n"`
	Weekday time.Weekday `json:"weekday" yaml:"weekday"`
}

// Rule is a recurrence rule independent of any single task.
type Rule struct {
	Type                 RecurrenceType     `json:"type" yaml:"type"`
	Interval             int                `json:"interval" yaml:"interval"`
	DaysOfWeek           []time.Weekday     `json:"daysOfWeek,omitempty" yaml:"daysOfWeek,omitempty"`
	DayOfMonth           int                `json:"dayOfMonth,omitempty" yaml:"dayOfMonth,omitempty"`
	MonthOfYear          time.Month         `json:"monthOfYear,omitempty" yaml:"monthOfYear,omitempty"`
	NthWeekday           *NthWeekday        `json:"nthWeekday,omitempty" yaml:"nthWeekday,omitempty"`
	SpecificDatesOfMonth []int              `json:"specificDatesOfMonth,omitempty" yaml:"specificDatesOfMonth,omitempty"`
	DaysAfterCompletion  int                `json:"daysAfterCompletion,omitempty" yaml:"daysAfterCompletion,omitempty"`
	End                  EndCondition       `json:"endCondition" yaml:"endCondition"`
	StartDate            model.CalendarDate `json:"startDate" yaml:"startDate"`
}

// Validate checks the structural invariants of a rule.
func (r Rule) Validate() error {
	if !r.Type.IsValid() {
		return fmt.Errorf("invalid recurrence type: %q", r.Type)
	}
	if r.Type != RecurrenceAfterCompletion {
		if r.Interval < 1 {
			return fmt.Errorf("interval must be positive, got %d", r.Interval)
		}
		if r.StartDate.IsZero() {
			return errors.New("start date is required")
		}
	}
	if r.Type == RecurrenceAfterCompletion && r.DaysAfterCompletion < 1 {
		return fmt.Errorf("daysAfterCompletion must be positive, got %d", r.DaysAfterCompletion)
	}
	if r.NthWeekday != nil {
		if r.NthWeekday.N < -1 || r.NthWeekday.N == 0 || r.NthWeekday.N > 5 {
			return fmt.Errorf("nthWeekday.n out of range: %d", r.NthWeekday.N)
		}
	}
	for _, d := range r.SpecificDatesOfMonth {
		if d < 1 || d > 31 {
			return fmt.Errorf("specificDatesOfMonth entry out of range: %d", d)
		}
	}
	return nil
}

// Interval filters express "every Nth" semantics; IntervalOrDefault guards
// against zero values that slipped past validation on legacy records.
func (r Rule) IntervalOrDefault() int {
	if r.Interval < 1 {
		return 1
	}
	return r.Interval
}

// DateSet is an ordered set of calendar dates. It is used for exception
// lists: adding a date that is already present, in either Date or ISO
// string form, leaves the set unchanged.
type DateSet struct {
	dates []model.CalendarDate
}

// NewDateSet creates a set from the given dates, deduplicating.
func NewDateSet(dates ...model.CalendarDate) DateSet {
	var s DateSet
	for _, d := range dates {
		s.Add(d)
	}
	return s
}

// Add inserts a date, keeping the set ordered. Duplicates are dropped.
func (s *DateSet) Add(d model.CalendarDate) bool {
	if d.IsZero() || s.Contains(d) {
		return false
	}
	i := 0
	for i < len(s.dates) && s.dates[i].Before(d) {
		i++
	}
	s.dates = append(s.dates, model.CalendarDate{})
	copy(s.dates[i+1:], s.dates[i:])
	s.dates[i] = d
	return true
}

// AddISO inserts a date given in "YYYY-MM-DD" form, normalizing it so that
// string and Date insertions of the same day collapse to one entry.
func (s *DateSet) AddISO(iso string) (bool, error) {
	d, err := model.ParseDate(iso)
	if err != nil {
		return false, err
	}
	return s.Add(d), nil
}

// Contains reports whether the set holds the date.
func (s *DateSet) Contains(d model.CalendarDate) bool {
	for _, e := range s.dates {
		if e == d {
			return true
		}
	}
	return false
}

// Dates returns the set contents in ascending order. The returned slice
// must not be mutated.
func (s *DateSet) Dates() []model.CalendarDate {
	return s.dates
}

// Len returns the number of dates in the set.
func (s *DateSet) Len() int { return len(s.dates) }

// MarshalJSON / UnmarshalJSON and the YAML equivalents encode the set as a
// plain dates array so records stay readable in their stored form.
func (s DateSet) MarshalJSON() ([]byte, error) {
	return model.MarshalDateSlice(s.dates)
}

// UnmarshalJSON decodes a dates array, deduplicating.
func (s *DateSet) UnmarshalJSON(data []byte) error {
	dates, err := model.UnmarshalDateSlice(data)
	if err != nil {
		return err
	}
	*s = NewDateSet(dates...)
	return nil
}

// Modification is a per-date field overlay applied to a virtual occurrence
// without materializing it. Nil fields are left untouched.
type Modification struct {
	Status      *model.Status `json:"status,omitempty" yaml:"status,omitempty"`
	Title       *string       `json:"title,omitempty" yaml:"title,omitempty"`
	Description *string       `json:"description,omitempty" yaml:"description,omitempty"`
}

// Recurrence is the legacy representation: a rule embedded directly in a
// parent task, together with its exception dates and per-date overlays.
// The migrator is the only component that converts it into a standalone
// RecurringPattern.
type Recurrence struct {
	Rule       `yaml:",inline"`
	Exceptions DateSet `json:"exceptions" yaml:"exceptions"`
	// InstanceModifications is keyed by the canonical ISO date string.
	InstanceModifications map[string]Modification `json:"instanceModifications,omitempty" yaml:"instanceModifications,omitempty"`
}

// AddException records a skipped date, deduplicated across Date and ISO
// string forms. It reports whether the set changed.
func (r *Recurrence) AddException(d model.CalendarDate) bool {
	return r.Exceptions.Add(d)
}

// ModificationFor returns the overlay recorded for a date, if any.
func (r *Recurrence) ModificationFor(d model.CalendarDate) (Modification, bool) {
	if r.InstanceModifications == nil {
		return Modification{}, false
	}
	m, ok := r.InstanceModifications[d.String()]
	return m, ok
}

// SetModification records an overlay for a date, replacing any previous one.
func (r *Recurrence) SetModification(d model.CalendarDate, m Modification) {
	if r.InstanceModifications == nil {
		r.InstanceModifications = make(map[string]Modification)
	}
	r.InstanceModifications[d.String()] = m
}

// RecurringPattern is the standalone representation: a rule plus the
// template fields its materialized instances inherit.
type RecurringPattern struct {
	ID          model.PatternID
	UserID      model.UserID
	Title       string
	Description string
	CategoryID  model.CategoryID
	Priority    model.Priority
	Rule        Rule
	Exceptions  DateSet
	// GeneratedUntil is the high-water mark of materialized generation:
	// instances at or before it have already been ensured.
	GeneratedUntil model.CalendarDate
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewRecurringPattern creates a validated pattern.
func NewRecurringPattern(id model.PatternID, userID model.UserID, title string, priority model.Priority, rule Rule) (*RecurringPattern, error) {
	if id == "" {
		return nil, errors.New("pattern ID cannot be empty")
	}
	if userID == "" {
		return nil, errors.New("user ID cannot be empty")
	}
	if title == "" {
		return nil, errors.New("title cannot be empty")
	}
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	now := time.Now()
	return &RecurringPattern{
		ID:        id,
		UserID:    userID,
		Title:     title,
		Priority:  priority,
		Rule:      rule,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// AddException records a skipped date on the pattern, deduplicated.
func (p *RecurringPattern) AddException(d model.CalendarDate) bool {
	return p.Exceptions.Add(d)
}

// EndBefore truncates the pattern so no occurrence exists on or after the
// given date. Used by "delete this and all future".
func (p *RecurringPattern) EndBefore(d model.CalendarDate) {
	p.Rule.End = EndCondition{Type: EndOnDate, EndDate: d.AddDays(-1)}
	p.UpdatedAt = time.Now()
}
