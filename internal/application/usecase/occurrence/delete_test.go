package occurrence

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

func setupDelete(t *testing.T) (*DeleteOccurrenceUseCase, *store.Store, *mock.MockTaskRepository, *mock.MockPatternRepository) {
	t.Helper()
	s := store.New()
	tasks := mock.NewMockTaskRepository()
	patterns := mock.NewMockPatternRepository()
	uc := &DeleteOccurrenceUseCase{Tasks: tasks, Patterns: patterns, Store: s, Now: fixedNow}
	return uc, s, tasks, patterns
}

// Deleting the occurrence the parent itself stands on moves the parent to
// the next occurrence so the day view neither loses nor duplicates it.
func TestDeleteOccurrence_ThisOnly_ParentAdvances(t *testing.T) {
	uc, s, tasks, _ := setupDelete(t)
	parent := legacyParent(t)
	parent.Recurrence.Rule.DaysOfWeek = []time.Weekday{time.Monday}
	tasks.Seed(parent)
	s.UpsertTask(parent)

	err := uc.Execute(context.Background(), DeleteOccurrenceInput{
		UserID: "user-1", ParentID: parent.ID,
		Date: model.MustParseDate("2026-02-02"), Scope: ScopeThisOnly,
	})
	require.NoError(t, err)

	stored, _ := tasks.Stored(parent.ID)
	assert.Equal(t, model.MustParseDate("2026-02-09"), stored.ScheduledDate)
	assert.True(t, stored.Recurrence.Exceptions.Contains(model.MustParseDate("2026-02-02")))

	// The state container saw the same move.
	cached, ok := s.Task(parent.ID)
	require.True(t, ok)
	assert.Equal(t, model.MustParseDate("2026-02-09"), cached.ScheduledDate)
}

func TestDeleteOccurrence_ThisOnly_OtherDateLeavesParentInPlace(t *testing.T) {
	uc, _, tasks, _ := setupDelete(t)
	parent := legacyParent(t)
	tasks.Seed(parent)

	err := uc.Execute(context.Background(), DeleteOccurrenceInput{
		UserID: "user-1", ParentID: parent.ID,
		Date: model.MustParseDate("2026-02-04"), Scope: ScopeThisOnly,
	})
	require.NoError(t, err)

	stored, _ := tasks.Stored(parent.ID)
	assert.Equal(t, model.MustParseDate("2026-02-02"), stored.ScheduledDate)
	assert.True(t, stored.Recurrence.Exceptions.Contains(model.MustParseDate("2026-02-04")))
}

// With no next occurrence the exception alone hides the slot; the parent
// keeps its date rather than moving nowhere.
func TestDeleteOccurrence_ThisOnly_NoNextOccurrence(t *testing.T) {
	uc, _, tasks, _ := setupDelete(t)
	parent := legacyParent(t)
	parent.Recurrence.Rule.End = pattern.EndCondition{
		Type: pattern.EndOnDate, EndDate: model.MustParseDate("2026-02-03"),
	}
	tasks.Seed(parent)

	err := uc.Execute(context.Background(), DeleteOccurrenceInput{
		UserID: "user-1", ParentID: parent.ID,
		Date: model.MustParseDate("2026-02-02"), Scope: ScopeThisOnly,
	})
	require.NoError(t, err)

	stored, _ := tasks.Stored(parent.ID)
	assert.Equal(t, model.MustParseDate("2026-02-02"), stored.ScheduledDate)
	assert.True(t, stored.Recurrence.Exceptions.Contains(model.MustParseDate("2026-02-02")))
}

func TestDeleteOccurrence_Future_TruncatesSeries(t *testing.T) {
	uc, _, tasks, _ := setupDelete(t)
	parent := legacyParent(t)
	tasks.Seed(parent)

	err := uc.Execute(context.Background(), DeleteOccurrenceInput{
		UserID: "user-1", ParentID: parent.ID,
		Date: model.MustParseDate("2026-02-09"), Scope: ScopeThisAndFuture,
	})
	require.NoError(t, err)

	stored, _ := tasks.Stored(parent.ID)
	assert.Equal(t, pattern.EndOnDate, stored.Recurrence.Rule.End.Type)
	assert.Equal(t, model.MustParseDate("2026-02-08"), stored.Recurrence.Rule.End.EndDate)
}

func TestDeleteOccurrence_NotAParent(t *testing.T) {
	uc, _, tasks, _ := setupDelete(t)
	prio, err := model.NewPriority(model.PriorityC, 1)
	require.NoError(t, err)
	plain, err := task.New("TASK-plain", "user-1", "one-off", prio, model.MustParseDate("2026-02-02"))
	require.NoError(t, err)
	tasks.Seed(plain)

	err = uc.Execute(context.Background(), DeleteOccurrenceInput{
		UserID: "user-1", ParentID: plain.ID,
		Date: model.MustParseDate("2026-02-02"), Scope: ScopeThisOnly,
	})
	assert.ErrorIs(t, err, ErrNotRecurring)
}

func TestDeleteOccurrence_Pattern_ThisOnly(t *testing.T) {
	uc, s, tasks, patterns := setupDelete(t)
	p := weeklyPattern(t)
	patterns.Seed(p)
	s.UpsertPattern(p)

	// A materialized instance already sits on the slot.
	date := model.MustParseDate("2026-02-04")
	prio, err := model.NewPriority(model.PriorityB, 1)
	require.NoError(t, err)
	inst, err := task.New("TASK-inst", "user-1", p.Title, prio, date)
	require.NoError(t, err)
	inst.RecurringPatternID = p.ID
	inst.InstanceDate = date
	tasks.Seed(inst)
	s.UpsertTask(inst)

	err = uc.Execute(context.Background(), DeleteOccurrenceInput{
		UserID: "user-1", PatternID: p.ID, Date: date, Scope: ScopeThisOnly,
	})
	require.NoError(t, err)

	storedPattern, _ := patterns.Stored(p.ID)
	assert.True(t, storedPattern.Exceptions.Contains(date))

	storedInst, _ := tasks.Stored(inst.ID)
	assert.True(t, storedInst.IsDeleted(), "materialized instance removed from the day")
	assert.Empty(t, s.TasksVisibleOnDate(date))
}

func TestDeleteOccurrence_Pattern_Future(t *testing.T) {
	uc, _, _, patterns := setupDelete(t)
	p := weeklyPattern(t)
	patterns.Seed(p)

	err := uc.Execute(context.Background(), DeleteOccurrenceInput{
		UserID: "user-1", PatternID: p.ID,
		Date: model.MustParseDate("2026-03-02"), Scope: ScopeThisAndFuture,
	})
	require.NoError(t, err)

	stored, _ := patterns.Stored(p.ID)
	assert.Equal(t, pattern.EndOnDate, stored.Rule.End.Type)
	assert.Equal(t, model.MustParseDate("2026-03-01"), stored.Rule.End.EndDate)
}

func TestDeleteOccurrence_SourceRequired(t *testing.T) {
	uc, _, _, _ := setupDelete(t)

	err := uc.Execute(context.Background(), DeleteOccurrenceInput{
		UserID: "user-1", Date: model.MustParseDate("2026-02-02"), Scope: ScopeThisOnly,
	})
	assert.ErrorIs(t, err, ErrNoSource)
}
