package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/planday/planday/internal/domain/model"
)

// dbExecutor is satisfied by both *sql.DB and *sql.Tx so repositories can
// run inside an ambient transaction.
type dbExecutor interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// formatDate stores a CalendarDate as its ISO string, empty for zero.
func formatDate(d model.CalendarDate) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

func parseDate(s string) (model.CalendarDate, error) {
	if s == "" {
		return model.CalendarDate{}, nil
	}
	return model.ParseDate(s)
}
