package dayview

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planday/planday/internal/application/store"
	"github.com/planday/planday/internal/domain/model"
	"github.com/planday/planday/internal/domain/model/pattern"
	"github.com/planday/planday/internal/domain/model/task"
	"github.com/planday/planday/internal/infrastructure/repository/mock"
)

func setupView(t *testing.T) (*UseCase, *mock.MockTaskRepository, *mock.MockPatternRepository, *store.Store) {
	t.Helper()
	tasks := mock.NewMockTaskRepository()
	patterns := mock.NewMockPatternRepository()
	st := store.New()
	return &UseCase{Tasks: tasks, Patterns: patterns, Store: st}, tasks, patterns, st
}

func storedTask(t *testing.T, id, title, prio, iso string) *task.Task {
	t.Helper()
	p, err := model.ParsePriority(prio)
	require.NoError(t, err)
	tk, err := task.New(model.TaskID(id), "user-1", title, p, model.MustParseDate(iso))
	require.NoError(t, err)
	return tk
}

func TestDayView_LoadsAndResolves(t *testing.T) {
	uc, tasks, patterns, _ := setupView(t)
	date := model.MustParseDate("2026-02-02") // a Monday

	tasks.Seed(
		storedTask(t, "TASK-1", "Water plants", "A1", "2026-02-02"),
		storedTask(t, "TASK-2", "Plan dinner", "B1", "2026-02-02"),
	)

	prio, err := model.NewPriority(model.PriorityB, 2)
	require.NoError(t, err)
	rule := pattern.Rule{
		Type:       pattern.RecurrenceWeekly,
		Interval:   1,
		DaysOfWeek: []time.Weekday{time.Monday},
		StartDate:  model.MustParseDate("2026-01-05"),
	}
	p, err := pattern.NewRecurringPattern("PAT-1", "user-1", "Standup notes", prio, rule)
	require.NoError(t, err)
	patterns.Seed(p)

	visible, err := uc.Execute(context.Background(), Input{UserID: "user-1", Date: date})
	require.NoError(t, err)

	require.Len(t, visible, 3)
	assert.Equal(t, "Water plants", visible[0].Title)
	assert.Equal(t, "Plan dinner", visible[1].Title)
	assert.Equal(t, "Standup notes", visible[2].Title)
	assert.True(t, visible[2].Virtual)
}

func TestDayView_SecondCallServedFromStore(t *testing.T) {
	uc, tasks, _, st := setupView(t)
	date := model.MustParseDate("2026-02-02")

	tasks.Seed(storedTask(t, "TASK-1", "Water plants", "A1", "2026-02-02"))

	_, err := uc.Execute(context.Background(), Input{UserID: "user-1", Date: date})
	require.NoError(t, err)
	require.True(t, st.IsDateLoaded(date))

	// A write that bypasses the store must stay invisible until reload.
	tasks.Seed(storedTask(t, "TASK-2", "Plan dinner", "B1", "2026-02-02"))

	visible, err := uc.Execute(context.Background(), Input{UserID: "user-1", Date: date})
	require.NoError(t, err)
	assert.Len(t, visible, 1)

	visible, err = uc.Execute(context.Background(), Input{UserID: "user-1", Date: date, Reload: true})
	require.NoError(t, err)
	assert.Len(t, visible, 2)
}

func TestDayView_RequiresDate(t *testing.T) {
	uc, _, _, _ := setupView(t)
	_, err := uc.Execute(context.Background(), Input{UserID: "user-1"})
	assert.Error(t, err)
}
