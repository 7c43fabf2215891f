package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planday/planday/internal/domain/model"
	"github.com/planday/planday/internal/domain/model/pattern"
	"github.com/planday/planday/internal/domain/model/task"
	"github.com/planday/planday/internal/domain/repository"
	"github.com/planday/planday/internal/infrastructure/transaction"
)

func sampleTask(t *testing.T, id model.TaskID, date string, prio string) *task.Task {
	t.Helper()
	p, err := model.ParsePriority(prio)
	require.NoError(t, err)
	tk, err := task.New(id, "user-1", "Water plants", p, model.MustParseDate(date))
	require.NoError(t, err)
	tk.Description = "the ficus too"
	tk.ScheduledTime = "08:30"
	tk.CreatedAt = time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	tk.UpdatedAt = tk.CreatedAt
	return tk
}

func TestTaskRepository_RoundTrip(t *testing.T) {
	repo := NewTaskRepository(newTestDB(t))
	ctx := context.Background()

	tk := sampleTask(t, "TASK-1", "2026-02-02", "A1")
	tk.Recurrence = &pattern.Recurrence{
		Rule: pattern.Rule{
			Type: pattern.RecurrenceWeekly, Interval: 1,
			DaysOfWeek: []time.Weekday{time.Monday, time.Wednesday},
			End:        pattern.EndCondition{Type: pattern.EndNever},
			StartDate:  model.MustParseDate("2026-02-02"),
		},
		Exceptions: pattern.NewDateSet(model.MustParseDate("2026-02-04")),
	}
	completed := time.Date(2026, 2, 2, 18, 0, 0, 0, time.UTC)
	tk.CompletedAt = &completed

	require.NoError(t, repo.Create(ctx, tk))

	got, err := repo.FindByID(ctx, "TASK-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, tk.Title, got.Title)
	assert.Equal(t, tk.Description, got.Description)
	assert.Equal(t, tk.Priority, got.Priority)
	assert.Equal(t, model.MustParseDate("2026-02-02"), got.ScheduledDate)
	assert.Equal(t, "08:30", got.ScheduledTime)
	require.NotNil(t, got.Recurrence)
	assert.Equal(t, pattern.RecurrenceWeekly, got.Recurrence.Rule.Type)
	assert.True(t, got.Recurrence.Exceptions.Contains(model.MustParseDate("2026-02-04")))
	require.NotNil(t, got.CompletedAt)
	assert.True(t, got.CompletedAt.Equal(completed))
	assert.Equal(t, task.KindLegacyParent, got.Kind())
}

func TestTaskRepository_FindByID_WrongUser(t *testing.T) {
	repo := NewTaskRepository(newTestDB(t))
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, sampleTask(t, "TASK-1", "2026-02-02", "A1")))

	_, err := repo.FindByID(ctx, "TASK-1", "user-2")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestTaskRepository_FindByDate_OrderAndFilter(t *testing.T) {
	repo := NewTaskRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, sampleTask(t, "TASK-b1", "2026-02-02", "B1")))
	require.NoError(t, repo.Create(ctx, sampleTask(t, "TASK-a2", "2026-02-02", "A2")))
	require.NoError(t, repo.Create(ctx, sampleTask(t, "TASK-a1", "2026-02-02", "A1")))
	require.NoError(t, repo.Create(ctx, sampleTask(t, "TASK-other", "2026-02-03", "A1")))
	hidden := sampleTask(t, "TASK-hidden", "2026-02-02", "A3")
	require.NoError(t, repo.Create(ctx, hidden))
	require.NoError(t, repo.SoftDelete(ctx, hidden.ID, "user-1"))

	got, err := repo.FindByDate(ctx, "user-1", model.MustParseDate("2026-02-02"))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, model.TaskID("TASK-a1"), got[0].ID)
	assert.Equal(t, model.TaskID("TASK-a2"), got[1].ID)
	assert.Equal(t, model.TaskID("TASK-b1"), got[2].ID)
}

func TestTaskRepository_FindByDateRange(t *testing.T) {
	repo := NewTaskRepository(newTestDB(t))
	ctx := context.Background()
	for _, date := range []string{"2026-02-01", "2026-02-03", "2026-02-05"} {
		require.NoError(t, repo.Create(ctx, sampleTask(t, model.TaskID("TASK-"+date), date, "A1")))
	}

	got, err := repo.FindByDateRange(ctx, "user-1",
		model.MustParseDate("2026-02-02"), model.MustParseDate("2026-02-05"))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, model.MustParseDate("2026-02-03"), got[0].ScheduledDate)
	assert.Equal(t, model.MustParseDate("2026-02-05"), got[1].ScheduledDate)
}

func TestTaskRepository_FindRecurringParentsAndInstances(t *testing.T) {
	repo := NewTaskRepository(newTestDB(t))
	ctx := context.Background()

	parent := sampleTask(t, "TASK-parent", "2026-02-02", "A1")
	parent.Recurrence = &pattern.Recurrence{Rule: pattern.Rule{
		Type: pattern.RecurrenceDaily, Interval: 1,
		End:       pattern.EndCondition{Type: pattern.EndNever},
		StartDate: model.MustParseDate("2026-02-02"),
	}}
	require.NoError(t, repo.Create(ctx, parent))

	child := sampleTask(t, "TASK-child", "2026-02-03", "A1")
	child.RecurringParentID = parent.ID
	child.IsRecurringInstance = true
	child.InstanceDate = child.ScheduledDate
	require.NoError(t, repo.Create(ctx, child))

	patInst := sampleTask(t, "TASK-pat", "2026-02-04", "A1")
	patInst.RecurringPatternID = "PAT-1"
	patInst.InstanceDate = patInst.ScheduledDate
	require.NoError(t, repo.Create(ctx, patInst))

	parents, err := repo.FindRecurringParents(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, parents, 1)
	assert.Equal(t, parent.ID, parents[0].ID)

	children, err := repo.FindInstancesByParent(ctx, parent.ID, "user-1")
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, child.ID, children[0].ID)

	instances, err := repo.FindInstancesByPattern(ctx, "PAT-1", "user-1")
	require.NoError(t, err)
	require.Len(t, instances, 1)
	assert.Equal(t, patInst.ID, instances[0].ID)
}

func TestTaskRepository_UpdateMissingRow(t *testing.T) {
	repo := NewTaskRepository(newTestDB(t))
	err := repo.Update(context.Background(), sampleTask(t, "TASK-ghost", "2026-02-02", "A1"))
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestTaskRepository_SoftDeleteRestoreHardDelete(t *testing.T) {
	repo := NewTaskRepository(newTestDB(t))
	ctx := context.Background()
	tk := sampleTask(t, "TASK-1", "2026-02-02", "A1")
	require.NoError(t, repo.Create(ctx, tk))

	require.NoError(t, repo.SoftDelete(ctx, tk.ID, "user-1"))
	got, err := repo.FindByID(ctx, tk.ID, "user-1")
	require.NoError(t, err)
	assert.True(t, got.IsDeleted())

	// Soft-deleting twice is a no-op target, so it reports not found.
	assert.ErrorIs(t, repo.SoftDelete(ctx, tk.ID, "user-1"), repository.ErrNotFound)

	require.NoError(t, repo.Restore(ctx, tk.ID, "user-1"))
	got, err = repo.FindByID(ctx, tk.ID, "user-1")
	require.NoError(t, err)
	assert.False(t, got.IsDeleted())

	require.NoError(t, repo.HardDelete(ctx, tk.ID, "user-1"))
	_, err = repo.FindByID(ctx, tk.ID, "user-1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

// Batch law: a mid-batch failure applies none of the updates.
func TestTaskRepository_BatchUpdateAtomic(t *testing.T) {
	repo := NewTaskRepository(newTestDB(t))
	ctx := context.Background()

	a := sampleTask(t, "TASK-a", "2026-02-02", "A1")
	b := sampleTask(t, "TASK-b", "2026-02-02", "A2")
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	a.Priority = model.Priority{Letter: model.PriorityA, Number: 2}
	b.Priority = model.Priority{Letter: model.PriorityA, Number: 1}
	ghost := sampleTask(t, "TASK-ghost", "2026-02-02", "A3")

	err := repo.BatchUpdate(ctx, []*task.Task{a, b, ghost})
	require.ErrorIs(t, err, repository.ErrNotFound)

	got, err := repo.FindByID(ctx, a.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Priority.Number, "failed batch left no partial writes")

	require.NoError(t, repo.BatchUpdate(ctx, []*task.Task{a, b}))
	got, err = repo.FindByID(ctx, a.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Priority.Number)
}

func TestTaskRepository_JoinsAmbientTransaction(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()
	mgr := transaction.NewManager(db)

	err := mgr.InTransaction(ctx, func(txCtx context.Context) error {
		if err := repo.Create(txCtx, sampleTask(t, "TASK-tx", "2026-02-02", "A1")); err != nil {
			return err
		}
		return assert.AnError
	})
	require.Error(t, err)

	_, err = repo.FindByID(ctx, "TASK-tx", "user-1")
	assert.ErrorIs(t, err, repository.ErrNotFound, "rolled back with the transaction")
}
