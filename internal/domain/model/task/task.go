package task

import (
	"errors"
	"fmt"
	"time"

	"github.com/planday/planday/internal/domain/model"
	"github.com/planday/planday/internal/domain/model/pattern"
)

// Kind is the tagged recurrence variant of a task. The four variants are
// mutually exclusive; Validate enforces the exclusivity.
type Kind string

const (
	// KindPlain is an ordinary one-off task.
	KindPlain Kind = "plain"
	// KindLegacyParent carries an embedded recurrence rule and is itself
	// the visible occurrence on its scheduled date.
	KindLegacyParent Kind = "legacy_parent"
	// KindLegacyInstance is a materialized occurrence of a legacy parent.
	KindLegacyInstance Kind = "legacy_instance"
	// KindPatternInstance is a materialized occurrence of a standalone
	// recurring pattern.
	KindPatternInstance Kind = "pattern_instance"
)

// Task is the single record shape for plain tasks, recurring parents and
// materialized occurrences. Virtual occurrences produced by expansion use
// the same shape with Virtual set; only the materializer ever persists one.
type Task struct {
	ID          model.TaskID
	UserID      model.UserID
	Title       string
	Description string
	CategoryID  model.CategoryID
	Priority    model.Priority
	Status      model.Status

	// ScheduledDate is required for visibility; a task without one never
	// appears in a day view.
	ScheduledDate model.CalendarDate
	ScheduledTime string // optional "HH:MM"

	// Legacy embedded recurrence (parent side).
	Recurrence *pattern.Recurrence

	// Pattern-based instance linkage.
	RecurringPatternID model.PatternID

	// Legacy instance linkage.
	IsRecurringInstance bool
	RecurringParentID   model.TaskID

	// InstanceDate is the occurrence date a materialized instance stands for.
	InstanceDate model.CalendarDate

	CompletedAt *time.Time
	DeletedAt   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Virtual marks an unpersisted occurrence computed by the expander.
	// It is never stored.
	Virtual bool
}

// New creates a plain task with validation.
func New(id model.TaskID, userID model.UserID, title string, priority model.Priority, scheduledDate model.CalendarDate) (*Task, error) {
	if id == "" {
		return nil, errors.New("task ID cannot be empty")
	}
	if userID == "" {
		return nil, errors.New("user ID cannot be empty")
	}
	if title == "" {
		return nil, errors.New("title cannot be empty")
	}
	if !priority.Letter.IsValid() || priority.Number < 1 {
		return nil, fmt.Errorf("%w: %s", model.ErrInvalidPriority, priority)
	}
	now := time.Now()
	return &Task{
		ID:            id,
		UserID:        userID,
		Title:         title,
		Priority:      priority,
		Status:        model.StatusPending,
		ScheduledDate: scheduledDate,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Kind returns the recurrence variant of the task.
func (t *Task) Kind() Kind {
	switch {
	case t.RecurringPatternID != "":
		return KindPatternInstance
	case t.IsRecurringInstance || t.RecurringParentID != "":
		return KindLegacyInstance
	case t.Recurrence != nil:
		return KindLegacyParent
	default:
		return KindPlain
	}
}

// Validate checks the mutual-exclusivity invariant of the recurrence
// variants and basic field validity.
func (t *Task) Validate() error {
	if t.ID == "" {
		return errors.New("task ID cannot be empty")
	}
	if t.UserID == "" {
		return errors.New("user ID cannot be empty")
	}
	if t.Title == "" {
		return errors.New("title cannot be empty")
	}
	if !t.Status.IsValid() {
		return fmt.Errorf("invalid status: %q", t.Status)
	}

	variants := 0
	if t.Recurrence != nil {
		variants++
	}
	if t.RecurringPatternID != "" {
		variants++
	}
	if t.IsRecurringInstance || t.RecurringParentID != "" {
		variants++
	}
	if variants > 1 {
		return fmt.Errorf("task %s mixes recurrence variants", t.ID)
	}
	if t.Recurrence != nil && t.IsRecurringInstance {
		return fmt.Errorf("task %s is both recurring parent and instance", t.ID)
	}
	if t.IsRecurringInstance && t.RecurringParentID == "" && t.RecurringPatternID == "" {
		return fmt.Errorf("instance task %s has no parent reference", t.ID)
	}
	return nil
}

// IsDeleted reports whether the task is soft-deleted.
func (t *Task) IsDeleted() bool {
	return t.DeletedAt != nil
}

// SoftDelete marks the task deleted. It is reversible via Restore.
func (t *Task) SoftDelete(now time.Time) {
	t.DeletedAt = &now
	t.UpdatedAt = now
}

// Restore clears a soft delete.
func (t *Task) Restore(now time.Time) {
	t.DeletedAt = nil
	t.UpdatedAt = now
}

// CycleStatus advances the status one step and stamps or clears the
// completion timestamp accordingly.
func (t *Task) CycleStatus(now time.Time) {
	t.Status = t.Status.Next()
	if t.Status == model.StatusCompleted {
		t.CompletedAt = &now
	} else {
		t.CompletedAt = nil
	}
	t.UpdatedAt = now
}

// Complete marks the task completed at the given time.
func (t *Task) Complete(now time.Time) {
	t.Status = model.StatusCompleted
	t.CompletedAt = &now
	t.UpdatedAt = now
}

// Clone returns a deep-enough copy for snapshot purposes: scalars are
// copied, the embedded recurrence is shared since snapshots never mutate it.
func (t *Task) Clone() *Task {
	cp := *t
	return &cp
}
