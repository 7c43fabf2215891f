package repository

import (
	"context"
	"errors"

	"github.com/planday/planday/internal/domain/model"
	"github.com/planday/planday/internal/domain/model/task"
)

// ErrNotFound is returned when a requested record does not exist or is not
// visible to the requesting user.
var ErrNotFound = errors.New("not found")

// TaskRepository is the persistence boundary for tasks. Implementations are
// asynchronous from the engine's point of view: every call is fallible and
// idempotent on id. The engine owns no transport details.
type TaskRepository interface {
	// FindByID retrieves a task owned by the user.
	FindByID(ctx context.Context, id model.TaskID, userID model.UserID) (*task.Task, error)

	// FindByDate retrieves the user's tasks scheduled on the date,
	// excluding soft-deleted ones.
	FindByDate(ctx context.Context, userID model.UserID, date model.CalendarDate) ([]*task.Task, error)

	// FindByDateRange retrieves the user's tasks scheduled in
	// [start, end] inclusive, excluding soft-deleted ones.
	FindByDateRange(ctx context.Context, userID model.UserID, start, end model.CalendarDate) ([]*task.Task, error)

	// FindRecurringParents retrieves the user's legacy recurring parent
	// tasks (embedded recurrence, not instances).
	FindRecurringParents(ctx context.Context, userID model.UserID) ([]*task.Task, error)

	// FindInstancesByPattern retrieves materialized instances of a pattern.
	FindInstancesByPattern(ctx context.Context, patternID model.PatternID, userID model.UserID) ([]*task.Task, error)

	// FindInstancesByParent retrieves legacy instances of a recurring
	// parent task.
	FindInstancesByParent(ctx context.Context, parentID model.TaskID, userID model.UserID) ([]*task.Task, error)

	// Create persists a new task.
	Create(ctx context.Context, t *task.Task) error

	// Update persists changes to an existing task.
	Update(ctx context.Context, t *task.Task) error

	// BatchUpdate persists changes to several tasks in one call.
	BatchUpdate(ctx context.Context, tasks []*task.Task) error

	// SoftDelete marks a task deleted, reversibly.
	SoftDelete(ctx context.Context, id model.TaskID, userID model.UserID) error

	// Restore clears a soft delete.
	Restore(ctx context.Context, id model.TaskID, userID model.UserID) error

	// HardDelete removes a task permanently. Used for materialization
	// rollback and legacy cleanup.
	HardDelete(ctx context.Context, id model.TaskID, userID model.UserID) error
}
