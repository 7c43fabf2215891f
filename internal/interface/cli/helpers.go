package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/planday/planday/internal/domain/model"
	"github.com/planday/planday/internal/domain/model/task"
)

// dateOrToday parses a --date flag, defaulting to today.
func dateOrToday(s string) (model.CalendarDate, error) {
	if s == "" {
		return model.DateOf(time.Now()), nil
	}
	d, err := model.ParseDate(s)
	if err != nil {
		return model.CalendarDate{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, nil
}

// printTasks renders a day's task list, one line per task.
func printTasks(w io.Writer, tasks []*task.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "Nothing scheduled.")
		return
	}
	for _, t := range tasks {
		marker := " "
		switch t.Status {
		case model.StatusCompleted:
			marker = "x"
		case model.StatusInProgress:
			marker = "~"
		}
		line := fmt.Sprintf("[%s] %-4s %s", marker, t.Priority, t.Title)
		if t.ScheduledTime != "" {
			line += fmt.Sprintf(" (%s)", t.ScheduledTime)
		}
		if t.Virtual {
			line += "  [recurring]"
		} else {
			line += "  " + string(t.ID)
		}
		fmt.Fprintln(w, line)
	}
}

// parseLetter validates a priority letter flag.
func parseLetter(s string) (model.PriorityLetter, error) {
	l := model.PriorityLetter(s)
	if !l.IsValid() {
		return "", fmt.Errorf("invalid priority letter %q (want A-D)", s)
	}
	return l, nil
}
