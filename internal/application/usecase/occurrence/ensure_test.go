package occurrence

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planday/planday/internal/application/store"
	"github.com/planday/planday/internal/domain/model"
	"github.com/planday/planday/internal/domain/model/pattern"
	"github.com/planday/planday/internal/infrastructure/repository/mock"
)

func dailyPattern(t *testing.T, id model.PatternID) *pattern.RecurringPattern {
	t.Helper()
	prio, err := model.NewPriority(model.PriorityB, 1)
	require.NoError(t, err)
	rule := pattern.Rule{
		Type:      pattern.RecurrenceDaily,
		Interval:  1,
		End:       pattern.EndCondition{Type: pattern.EndNever},
		StartDate: model.MustParseDate("2026-03-01"),
	}
	p, err := pattern.NewRecurringPattern(id, "user-1", "Journal", prio, rule)
	require.NoError(t, err)
	return p
}

func setupEnsure(t *testing.T) (*EnsureUseCase, *store.Store, *mock.MockTaskRepository, *mock.MockPatternRepository) {
	t.Helper()
	s := store.New()
	tasks := mock.NewMockTaskRepository()
	patterns := mock.NewMockPatternRepository()
	uc := &EnsureUseCase{Tasks: tasks, Patterns: patterns, Store: s, Now: fixedNow, Rand: testRand()}
	return uc, s, tasks, patterns
}

func TestEnsure_GeneratesAndAdvancesWaterMark(t *testing.T) {
	uc, s, tasks, patterns := setupEnsure(t)
	p := dailyPattern(t, "PAT-daily")
	patterns.Seed(p)
	s.UpsertPattern(p)

	n, err := uc.Execute(context.Background(), EnsureInput{
		UserID: "user-1", Until: model.MustParseDate("2026-03-03"),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, tasks.Len())

	stored, _ := patterns.Stored(p.ID)
	assert.Equal(t, model.MustParseDate("2026-03-03"), stored.GeneratedUntil)
	for _, d := range []string{"2026-03-01", "2026-03-02", "2026-03-03"} {
		assert.True(t, stored.Exceptions.Contains(model.MustParseDate(d)), "generated slot %s excepted", d)
	}

	// Each covered day shows exactly the stored instance, nothing virtual.
	visible := s.TasksVisibleOnDate(model.MustParseDate("2026-03-02"))
	require.Len(t, visible, 1)
	assert.False(t, visible[0].Virtual)
}

// Idempotence law: a second run over an already covered horizon writes
// nothing.
func TestEnsure_Idempotent(t *testing.T) {
	uc, _, tasks, patterns := setupEnsure(t)
	p := dailyPattern(t, "PAT-daily")
	patterns.Seed(p)

	until := model.MustParseDate("2026-03-03")
	_, err := uc.Execute(context.Background(), EnsureInput{UserID: "user-1", Until: until})
	require.NoError(t, err)

	n, err := uc.Execute(context.Background(), EnsureInput{UserID: "user-1", Until: until})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 3, tasks.Len())
}

func TestEnsure_ExtendingHorizonGeneratesOnlyTheGap(t *testing.T) {
	uc, _, tasks, patterns := setupEnsure(t)
	p := dailyPattern(t, "PAT-daily")
	patterns.Seed(p)

	_, err := uc.Execute(context.Background(), EnsureInput{UserID: "user-1", Until: model.MustParseDate("2026-03-03")})
	require.NoError(t, err)

	n, err := uc.Execute(context.Background(), EnsureInput{UserID: "user-1", Until: model.MustParseDate("2026-03-05")})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 5, tasks.Len())
}

func TestEnsure_AfterCompletionPatternsSkipped(t *testing.T) {
	uc, _, tasks, patterns := setupEnsure(t)
	p := dailyPattern(t, "PAT-chain")
	p.Rule = afterCompletionRule(7)
	patterns.Seed(p)

	n, err := uc.Execute(context.Background(), EnsureInput{UserID: "user-1", Until: model.MustParseDate("2026-03-03")})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, tasks.Len())

	stored, _ := patterns.Stored(p.ID)
	assert.True(t, stored.GeneratedUntil.IsZero(), "completion-driven series have no water mark")
}

// Cleanup law: when recording generation progress fails, the instances
// created in the same run are removed so a rerun starts clean.
func TestEnsure_UndoesInstancesWhenProgressWriteFails(t *testing.T) {
	uc, _, tasks, patterns := setupEnsure(t)
	p := dailyPattern(t, "PAT-daily")
	patterns.Seed(p)
	patterns.UpdateErr = errors.New("persistence unavailable")

	n, err := uc.Execute(context.Background(), EnsureInput{UserID: "user-1", Until: model.MustParseDate("2026-03-03")})
	require.Error(t, err)
	assert.Zero(t, n)
	assert.Zero(t, tasks.Len(), "created instances rolled back")
	assert.Len(t, tasks.HardDeleted, 3)

	var ce *ConsistencyError
	assert.False(t, errors.As(err, &ce))

	// With deletion also failing the disagreement is surfaced loudly.
	tasks.HardDeleteErr = errors.New("still down")
	_, err = uc.Execute(context.Background(), EnsureInput{UserID: "user-1", Until: model.MustParseDate("2026-03-03")})
	require.Error(t, err)
	require.True(t, errors.As(err, &ce))
}
