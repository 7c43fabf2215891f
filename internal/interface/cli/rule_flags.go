package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/planday/planday/internal/domain/model"
	"github.com/planday/planday/internal/domain/model/pattern"
)

// ruleFlags gathers the recurrence-related flags shared by `add` and the
// `recur` subcommands.
type ruleFlags struct {
	repeat     string
	days       string
	interval   int
	dayOfMonth int
	month      int
	after      int
	start      string
	until      string
	maxCount   int
}

func (f *ruleFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.repeat, "repeat", "", "Recurrence type: daily, weekly, monthly, yearly, after-completion")
	cmd.Flags().StringVar(&f.days, "days", "", "Weekdays for weekly recurrence, e.g. mon,wed,fri")
	cmd.Flags().IntVar(&f.interval, "interval", 1, "Recurrence interval (every N days/weeks/months/years)")
	cmd.Flags().IntVar(&f.dayOfMonth, "day-of-month", 0, "Day of month for monthly recurrence")
	cmd.Flags().IntVar(&f.month, "month", 0, "Month for yearly recurrence (1-12)")
	cmd.Flags().IntVar(&f.after, "after", 0, "Days after completion (after-completion recurrence)")
	cmd.Flags().StringVar(&f.start, "start", "", "Series start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.until, "until", "", "Series end date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&f.maxCount, "count", 0, "Maximum number of occurrences")
}

// set reports whether any recurrence was requested.
func (f *ruleFlags) set() bool {
	return f.repeat != ""
}

// build assembles and validates a recurrence rule from the flags.
func (f *ruleFlags) build(defaultStart model.CalendarDate) (pattern.Rule, error) {
	rule := pattern.Rule{
		Interval:  f.interval,
		StartDate: defaultStart,
	}

	switch strings.ToLower(f.repeat) {
	case "daily":
		rule.Type = pattern.RecurrenceDaily
	case "weekly":
		rule.Type = pattern.RecurrenceWeekly
		days, err := parseWeekdays(f.days)
		if err != nil {
			return pattern.Rule{}, err
		}
		rule.DaysOfWeek = days
	case "monthly":
		rule.Type = pattern.RecurrenceMonthly
		rule.DayOfMonth = f.dayOfMonth
	case "yearly":
		rule.Type = pattern.RecurrenceYearly
		rule.MonthOfYear = time.Month(f.month)
		rule.DayOfMonth = f.dayOfMonth
	case "after-completion":
		rule.Type = pattern.RecurrenceAfterCompletion
		rule.DaysAfterCompletion = f.after
	default:
		return pattern.Rule{}, fmt.Errorf("unknown recurrence type %q", f.repeat)
	}

	if f.start != "" {
		d, err := model.ParseDate(f.start)
		if err != nil {
			return pattern.Rule{}, fmt.Errorf("invalid --start: %w", err)
		}
		rule.StartDate = d
	}

	switch {
	case f.until != "" && f.maxCount > 0:
		return pattern.Rule{}, fmt.Errorf("--until and --count are mutually exclusive")
	case f.until != "":
		d, err := model.ParseDate(f.until)
		if err != nil {
			return pattern.Rule{}, fmt.Errorf("invalid --until: %w", err)
		}
		rule.End = pattern.EndCondition{Type: pattern.EndOnDate, EndDate: d}
	case f.maxCount > 0:
		rule.End = pattern.EndCondition{Type: pattern.EndOccurrences, MaxOccurrences: f.maxCount}
	default:
		rule.End = pattern.EndCondition{Type: pattern.EndNever}
	}

	if err := rule.Validate(); err != nil {
		return pattern.Rule{}, err
	}
	return rule, nil
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

func parseWeekdays(s string) ([]time.Weekday, error) {
	if s == "" {
		return nil, fmt.Errorf("weekly recurrence requires --days")
	}
	var out []time.Weekday
	for _, part := range strings.Split(s, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if len(name) > 3 {
			name = name[:3]
		}
		wd, ok := weekdayNames[name]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", part)
		}
		out = append(out, wd)
	}
	return out, nil
}
