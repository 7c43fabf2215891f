package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planday/planday/internal/domain/model"
	"github.com/planday/planday/internal/domain/model/pattern"
)

func newTestTask(t *testing.T) *Task {
	t.Helper()
	tk, err := New("TASK-01", "user-1", "Water plants", model.Priority{Letter: model.PriorityA, Number: 1}, model.MustParseDate("2026-02-02"))
	require.NoError(t, err)
	return tk
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		id       model.TaskID
		userID   model.UserID
		title    string
		priority model.Priority
		wantErr  bool
	}{
		{name: "valid", id: "TASK-01", userID: "u", title: "x", priority: model.Priority{Letter: model.PriorityA, Number: 1}},
		{name: "empty id", id: "", userID: "u", title: "x", priority: model.Priority{Letter: model.PriorityA, Number: 1}, wantErr: true},
		{name: "empty user", id: "TASK-01", userID: "", title: "x", priority: model.Priority{Letter: model.PriorityA, Number: 1}, wantErr: true},
		{name: "empty title", id: "TASK-01", userID: "u", title: "", priority: model.Priority{Letter: model.PriorityA, Number: 1}, wantErr: true},
		{name: "bad priority", id: "TASK-01", userID: "u", title: "x", priority: model.Priority{Letter: "Z", Number: 1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.id, tt.userID, tt.title, tt.priority, model.MustParseDate("2026-02-02"))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestTask_Kind(t *testing.T) {
	base := newTestTask(t)
	assert.Equal(t, KindPlain, base.Kind())

	parent := newTestTask(t)
	parent.Recurrence = &pattern.Recurrence{Rule: pattern.Rule{Type: pattern.RecurrenceDaily, Interval: 1, StartDate: model.MustParseDate("2026-02-02")}}
	assert.Equal(t, KindLegacyParent, parent.Kind())

	legacy := newTestTask(t)
	legacy.IsRecurringInstance = true
	legacy.RecurringParentID = "TASK-00"
	legacy.InstanceDate = model.MustParseDate("2026-02-04")
	assert.Equal(t, KindLegacyInstance, legacy.Kind())

	inst := newTestTask(t)
	inst.RecurringPatternID = "PAT-01"
	inst.InstanceDate = model.MustParseDate("2026-02-04")
	assert.Equal(t, KindPatternInstance, inst.Kind())
}

func TestTask_Validate_MutualExclusivity(t *testing.T) {
	tk := newTestTask(t)
	require.NoError(t, tk.Validate())

	// Parent and instance at once is invalid.
	tk.Recurrence = &pattern.Recurrence{Rule: pattern.Rule{Type: pattern.RecurrenceDaily, Interval: 1, StartDate: model.MustParseDate("2026-02-02")}}
	tk.IsRecurringInstance = true
	tk.RecurringParentID = "TASK-00"
	assert.Error(t, tk.Validate())

	// Legacy instance and pattern instance at once is invalid.
	tk = newTestTask(t)
	tk.RecurringPatternID = "PAT-01"
	tk.RecurringParentID = "TASK-00"
	tk.IsRecurringInstance = true
	assert.Error(t, tk.Validate())

	// Instance flag without any parent reference is invalid.
	tk = newTestTask(t)
	tk.IsRecurringInstance = true
	assert.Error(t, tk.Validate())
}

func TestTask_SoftDeleteRestore(t *testing.T) {
	tk := newTestTask(t)
	now := time.Now()

	assert.False(t, tk.IsDeleted())
	tk.SoftDelete(now)
	assert.True(t, tk.IsDeleted())

	tk.Restore(now.Add(time.Minute))
	assert.False(t, tk.IsDeleted())
}

func TestTask_CycleStatus(t *testing.T) {
	tk := newTestTask(t)
	now := time.Now()

	tk.CycleStatus(now)
	assert.Equal(t, model.StatusInProgress, tk.Status)
	assert.Nil(t, tk.CompletedAt)

	tk.CycleStatus(now)
	assert.Equal(t, model.StatusCompleted, tk.Status)
	require.NotNil(t, tk.CompletedAt)
	assert.Equal(t, now, *tk.CompletedAt)

	tk.CycleStatus(now)
	assert.Equal(t, model.StatusPending, tk.Status)
	assert.Nil(t, tk.CompletedAt)
}

func TestTask_Clone(t *testing.T) {
	tk := newTestTask(t)
	cp := tk.Clone()

	cp.Priority = model.Priority{Letter: model.PriorityB, Number: 3}
	assert.Equal(t, model.PriorityA, tk.Priority.Letter)
	assert.Equal(t, 1, tk.Priority.Number)
}
