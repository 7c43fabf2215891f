// Package occurrence implements the effectful side of recurrence: turning
// virtual occurrences into persisted tasks, deleting single occurrences,
// and chaining afterCompletion tasks. The expander stays pure; only this
// package writes occurrence records.
package occurrence

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/planday/planday/internal/application/store"
	"github.com/planday/planday/internal/application/usecase/reorder"
	"github.com/planday/planday/internal/domain/model"
	"github.com/planday/planday/internal/domain/model/pattern"
	"github.com/planday/planday/internal/domain/model/task"
	"github.com/planday/planday/internal/domain/repository"
	"github.com/planday/planday/internal/domain/service/recurrence"
)

// Overrides are caller-supplied fields applied over the inherited template
// when materializing. Nil fields inherit.
type Overrides struct {
	Title          *string
	Description    *string
	Status         *model.Status
	PriorityNumber *int
	ScheduledTime  *string
}

// MaterializeInput names one virtual occurrence. Exactly one of ParentID
// (legacy) or PatternID must be set.
type MaterializeInput struct {
	UserID    model.UserID
	ParentID  model.TaskID
	PatternID model.PatternID
	Date      model.CalendarDate
	Overrides Overrides
}

// MaterializeUseCase persists a virtual occurrence as an independent task
// and records an exception on its source so the expander skips the date
// thereafter. The two writes are not transactional: a failed exception
// write is compensated by hard-deleting the just-created instance, and a
// failed compensation surfaces as a ConsistencyError.
type MaterializeUseCase struct {
	Tasks    repository.TaskRepository
	Patterns repository.PatternRepository
	Store    *store.Store
	Now      func() time.Time // time provider (for testing)
	Rand     io.Reader        // random source for ULID generation (for testing)
}

// Execute materializes one occurrence and returns the created task.
func (uc *MaterializeUseCase) Execute(ctx context.Context, in MaterializeInput) (*task.Task, error) {
	switch {
	case in.ParentID != "" && in.PatternID == "":
		return uc.materializeLegacy(ctx, in)
	case in.PatternID != "" && in.ParentID == "":
		return uc.materializePattern(ctx, in)
	default:
		return nil, ErrNoSource
	}
}

func (uc *MaterializeUseCase) materializeLegacy(ctx context.Context, in MaterializeInput) (*task.Task, error) {
	parent, err := uc.Tasks.FindByID(ctx, in.ParentID, in.UserID)
	if err != nil {
		return nil, err
	}
	if parent.Kind() != task.KindLegacyParent {
		return nil, fmt.Errorf("%w: %s", ErrNotRecurring, in.ParentID)
	}
	rec := parent.Recurrence
	if !isOccurrence(rec.Rule, &rec.Exceptions, in.Date) {
		return nil, fmt.Errorf("%w: %s on %s", ErrNotAnOccurrence, in.ParentID, in.Date)
	}

	inst := uc.buildInstance(in, parent.Title, parent.Description, parent.CategoryID, parent.Priority, parent.ScheduledTime)
	inst.RecurringParentID = parent.ID
	inst.IsRecurringInstance = true
	if mod, ok := rec.ModificationFor(in.Date); ok {
		applyModificationOverrides(inst, mod, in.Overrides)
	}

	if err := uc.Tasks.Create(ctx, inst); err != nil {
		return nil, fmt.Errorf("create instance failed: %w", err)
	}

	parent.Recurrence.AddException(in.Date)
	parent.UpdatedAt = uc.Now()
	if err := uc.Tasks.Update(ctx, parent); err != nil {
		return nil, uc.compensate(ctx, inst, in.UserID, err)
	}

	uc.commit(inst, parent, nil)
	return inst, nil
}

func (uc *MaterializeUseCase) materializePattern(ctx context.Context, in MaterializeInput) (*task.Task, error) {
	p, err := uc.Patterns.FindByID(ctx, in.PatternID, in.UserID)
	if err != nil {
		return nil, err
	}
	if !isOccurrence(p.Rule, &p.Exceptions, in.Date) {
		return nil, fmt.Errorf("%w: %s on %s", ErrNotAnOccurrence, in.PatternID, in.Date)
	}

	inst := uc.buildInstance(in, p.Title, p.Description, p.CategoryID, p.Priority, "")
	inst.RecurringPatternID = p.ID

	if err := uc.Tasks.Create(ctx, inst); err != nil {
		return nil, fmt.Errorf("create instance failed: %w", err)
	}

	p.AddException(in.Date)
	p.UpdatedAt = uc.Now()
	if err := uc.Patterns.Update(ctx, p); err != nil {
		return nil, uc.compensate(ctx, inst, in.UserID, err)
	}

	uc.commit(inst, nil, p)
	return inst, nil
}

// buildInstance assembles the instance record from template fields and
// overrides, computing the priority number via the "next available" rule
// unless an explicit number is supplied.
func (uc *MaterializeUseCase) buildInstance(in MaterializeInput, title, description string, categoryID model.CategoryID, prio model.Priority, scheduledTime string) *task.Task {
	number := prio.Number
	if in.Overrides.PriorityNumber != nil {
		number = *in.Overrides.PriorityNumber
	} else if uc.Store != nil {
		number = reorder.NextNumber(uc.Store.StoredTasksOnDate(in.Date), prio.Letter)
	}

	inst := newInstance(uc.Now(), uc.Rand, in.UserID, in.Date, title, description, categoryID,
		model.Priority{Letter: prio.Letter, Number: number}, scheduledTime)

	if in.Overrides.Title != nil {
		inst.Title = *in.Overrides.Title
	}
	if in.Overrides.Description != nil {
		inst.Description = *in.Overrides.Description
	}
	if in.Overrides.Status != nil {
		inst.Status = *in.Overrides.Status
	}
	if in.Overrides.ScheduledTime != nil {
		inst.ScheduledTime = *in.Overrides.ScheduledTime
	}
	return inst
}

// newInstance assembles a fresh instance record scheduled on date with the
// given template fields.
func newInstance(now time.Time, rnd io.Reader, userID model.UserID, date model.CalendarDate, title, description string, categoryID model.CategoryID, prio model.Priority, scheduledTime string) *task.Task {
	return &task.Task{
		ID:            model.TaskID("TASK-" + ulid.MustNew(ulid.Timestamp(now), rnd).String()),
		UserID:        userID,
		Title:         title,
		Description:   description,
		CategoryID:    categoryID,
		Priority:      prio,
		Status:        model.StatusPending,
		ScheduledDate: date,
		ScheduledTime: scheduledTime,
		InstanceDate:  date,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// compensate hard-deletes the instance created in step two after the
// exception write of step three failed. The instance and its source must
// never be left disagreeing: a failed delete escalates to a
// ConsistencyError instead of being swallowed.
func (uc *MaterializeUseCase) compensate(ctx context.Context, inst *task.Task, userID model.UserID, cause error) error {
	if delErr := uc.Tasks.HardDelete(ctx, inst.ID, userID); delErr != nil {
		return &ConsistencyError{TaskID: inst.ID, Cause: cause, RollbackErr: delErr}
	}
	return fmt.Errorf("record exception failed: %w", cause)
}

// commit publishes the confirmed records into the state container.
func (uc *MaterializeUseCase) commit(inst *task.Task, parent *task.Task, p *pattern.RecurringPattern) {
	if uc.Store == nil {
		return
	}
	uc.Store.UpsertTask(inst)
	if parent != nil {
		uc.Store.UpsertTask(parent)
	}
	if p != nil {
		uc.Store.UpsertPattern(p)
	}
}

// applyModificationOverrides merges a stored per-date overlay under the
// caller's explicit overrides: the overlay applies first, explicit
// overrides win.
func applyModificationOverrides(t *task.Task, mod pattern.Modification, ov Overrides) {
	if mod.Status != nil && ov.Status == nil {
		t.Status = *mod.Status
	}
	if mod.Title != nil && ov.Title == nil {
		t.Title = *mod.Title
	}
	if mod.Description != nil && ov.Description == nil {
		t.Description = *mod.Description
	}
}

func isOccurrence(rule pattern.Rule, exceptions *pattern.DateSet, d model.CalendarDate) bool {
	if rule.Type == pattern.RecurrenceAfterCompletion {
		// afterCompletion occurrences are created by completion, not by
		// expansion; materializing one directly is always a caller error.
		return false
	}
	return len(recurrence.Expand(rule, exceptions, d, d)) == 1
}
