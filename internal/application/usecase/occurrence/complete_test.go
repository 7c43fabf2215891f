package occurrence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planday/planday/internal/application/store"
	"github.com/planday/planday/internal/domain/model"
	"github.com/planday/planday/internal/domain/model/pattern"
	"github.com/planday/planday/internal/domain/model/task"
	"github.com/planday/planday/internal/infrastructure/repository/mock"
)

func afterCompletionRule(days int) pattern.Rule {
	return pattern.Rule{
		Type:                pattern.RecurrenceAfterCompletion,
		DaysAfterCompletion: days,
		End:                 pattern.EndCondition{Type: pattern.EndNever},
		StartDate:           model.MustParseDate("2026-01-01"),
	}
}

func setupChain(t *testing.T) (*ChainUseCase, *store.Store, *mock.MockTaskRepository, *mock.MockPatternRepository) {
	t.Helper()
	s := store.New()
	tasks := mock.NewMockTaskRepository()
	patterns := mock.NewMockPatternRepository()
	uc := &ChainUseCase{Tasks: tasks, Patterns: patterns, Store: s, Now: fixedNow, Rand: testRand()}
	return uc, s, tasks, patterns
}

// Chaining law: completing an afterCompletion task creates exactly one
// follow-up dated completion + interval, with no exception bookkeeping.
func TestChain_LegacyParent(t *testing.T) {
	uc, s, tasks, _ := setupChain(t)
	parent := legacyParent(t)
	parent.Recurrence.Rule = afterCompletionRule(7)
	tasks.Seed(parent)
	s.UpsertTask(parent)

	next, err := uc.Execute(context.Background(), ChainInput{
		UserID: "user-1", TaskID: parent.ID, CompletedOn: model.MustParseDate("2026-01-10"),
	})
	require.NoError(t, err)
	require.NotNil(t, next)

	assert.Equal(t, model.MustParseDate("2026-01-17"), next.ScheduledDate)
	assert.Equal(t, model.MustParseDate("2026-01-17"), next.InstanceDate)
	assert.Equal(t, parent.ID, next.RecurringParentID)
	assert.Equal(t, task.KindLegacyInstance, next.Kind())
	assert.Equal(t, model.StatusPending, next.Status)
	assert.Equal(t, 2, tasks.Len(), "exactly one new record")

	stored, _ := tasks.Stored(parent.ID)
	assert.Zero(t, stored.Recurrence.Exceptions.Len(), "no exception bookkeeping")
}

func TestChain_LegacyInstanceChainsOffParentRule(t *testing.T) {
	uc, _, tasks, _ := setupChain(t)
	parent := legacyParent(t)
	parent.Recurrence.Rule = afterCompletionRule(3)
	tasks.Seed(parent)

	prio, err := model.NewPriority(model.PriorityA, 1)
	require.NoError(t, err)
	inst, err := task.New("TASK-inst", "user-1", parent.Title, prio, model.MustParseDate("2026-01-10"))
	require.NoError(t, err)
	inst.RecurringParentID = parent.ID
	inst.IsRecurringInstance = true
	tasks.Seed(inst)

	next, err := uc.Execute(context.Background(), ChainInput{
		UserID: "user-1", TaskID: inst.ID, CompletedOn: model.MustParseDate("2026-01-10"),
	})
	require.NoError(t, err)
	assert.Equal(t, model.MustParseDate("2026-01-13"), next.ScheduledDate)
	assert.Equal(t, parent.ID, next.RecurringParentID, "siblings share the parent")
}

func TestChain_PatternInstance(t *testing.T) {
	uc, s, tasks, patterns := setupChain(t)
	p := weeklyPattern(t)
	p.Rule = afterCompletionRule(7)
	patterns.Seed(p)
	s.UpsertPattern(p)

	prio, err := model.NewPriority(model.PriorityB, 1)
	require.NoError(t, err)
	inst, err := task.New("TASK-inst", "user-1", p.Title, prio, model.MustParseDate("2026-01-10"))
	require.NoError(t, err)
	inst.RecurringPatternID = p.ID
	tasks.Seed(inst)

	next, err := uc.Execute(context.Background(), ChainInput{
		UserID: "user-1", TaskID: inst.ID, CompletedOn: model.MustParseDate("2026-01-10"),
	})
	require.NoError(t, err)
	assert.Equal(t, model.MustParseDate("2026-01-17"), next.ScheduledDate)
	assert.Equal(t, p.ID, next.RecurringPatternID)
	assert.Equal(t, task.KindPatternInstance, next.Kind())

	stored, _ := patterns.Stored(p.ID)
	assert.Zero(t, stored.Exceptions.Len())
}

func TestChain_FixedScheduleRejected(t *testing.T) {
	uc, _, tasks, _ := setupChain(t)
	parent := legacyParent(t) // weekly rule
	tasks.Seed(parent)

	_, err := uc.Execute(context.Background(), ChainInput{
		UserID: "user-1", TaskID: parent.ID, CompletedOn: model.MustParseDate("2026-02-02"),
	})
	assert.ErrorIs(t, err, ErrNotAfterComplete)
	assert.Equal(t, 1, tasks.Len())
}

func TestChain_PlainTaskRejected(t *testing.T) {
	uc, _, tasks, _ := setupChain(t)
	prio, err := model.NewPriority(model.PriorityC, 1)
	require.NoError(t, err)
	plain, err := task.New("TASK-plain", "user-1", "one-off", prio, model.MustParseDate("2026-01-10"))
	require.NoError(t, err)
	tasks.Seed(plain)

	_, err = uc.Execute(context.Background(), ChainInput{
		UserID: "user-1", TaskID: plain.ID, CompletedOn: model.MustParseDate("2026-01-10"),
	})
	assert.ErrorIs(t, err, ErrNotRecurring)
}

func TestChain_SeriesEndStopsChaining(t *testing.T) {
	uc, _, tasks, _ := setupChain(t)
	parent := legacyParent(t)
	rule := afterCompletionRule(7)
	rule.End = pattern.EndCondition{Type: pattern.EndOnDate, EndDate: model.MustParseDate("2026-01-15")}
	parent.Recurrence.Rule = rule
	tasks.Seed(parent)

	next, err := uc.Execute(context.Background(), ChainInput{
		UserID: "user-1", TaskID: parent.ID, CompletedOn: model.MustParseDate("2026-01-10"),
	})
	require.NoError(t, err)
	assert.Nil(t, next, "follow-up would land past the series end")
	assert.Equal(t, 1, tasks.Len())
}
