package occurrence

import (
	"context"
	"fmt"
	"time"

	"github.com/planday/planday/internal/application/store"
	"github.com/planday/planday/internal/domain/model"
	"github.com/planday/planday/internal/domain/model/pattern"
	"github.com/planday/planday/internal/domain/model/task"
	"github.com/planday/planday/internal/domain/repository"
	"github.com/planday/planday/internal/domain/service/recurrence"
)

// DeleteScope selects how much of a series a deletion affects.
type DeleteScope string

const (
	// ScopeThisOnly removes a single occurrence via an exception.
	ScopeThisOnly DeleteScope = "this"
	// ScopeThisAndFuture truncates the series the day before the
	// occurrence.
	ScopeThisAndFuture DeleteScope = "future"
)

// DeleteOccurrenceInput names the occurrence to delete. Exactly one of
// ParentID or PatternID must be set.
type DeleteOccurrenceInput struct {
	UserID    model.UserID
	ParentID  model.TaskID
	PatternID model.PatternID
	Date      model.CalendarDate
	Scope     DeleteScope
}

// DeleteOccurrenceUseCase removes one occurrence or a series tail without
// disturbing the rest of the series.
type DeleteOccurrenceUseCase struct {
	Tasks    repository.TaskRepository
	Patterns repository.PatternRepository
	Store    *store.Store
	Now      func() time.Time
}

// Execute applies the deletion.
func (uc *DeleteOccurrenceUseCase) Execute(ctx context.Context, in DeleteOccurrenceInput) error {
	switch {
	case in.ParentID != "" && in.PatternID == "":
		return uc.deleteLegacy(ctx, in)
	case in.PatternID != "" && in.ParentID == "":
		return uc.deletePattern(ctx, in)
	default:
		return ErrNoSource
	}
}

func (uc *DeleteOccurrenceUseCase) deleteLegacy(ctx context.Context, in DeleteOccurrenceInput) error {
	parent, err := uc.Tasks.FindByID(ctx, in.ParentID, in.UserID)
	if err != nil {
		return err
	}
	if parent.Kind() != task.KindLegacyParent {
		return fmt.Errorf("%w: %s", ErrNotRecurring, in.ParentID)
	}
	rec := parent.Recurrence

	switch in.Scope {
	case ScopeThisAndFuture:
		rec.Rule.End = endBefore(in.Date)

	default: // ScopeThisOnly
		rec.AddException(in.Date)

		// When the parent itself stands on the deleted slot it must move
		// to the next occurrence, or it would either vanish from the day
		// view or duplicate. With no next occurrence the exception alone
		// hides the slot.
		if parent.ScheduledDate == in.Date {
			if next := recurrence.NextOccurrenceAfter(rec.Rule, &rec.Exceptions, in.Date); !next.IsZero() {
				parent.ScheduledDate = next
			}
		}
	}

	parent.UpdatedAt = uc.Now()
	if err := uc.Tasks.Update(ctx, parent); err != nil {
		return err
	}
	if uc.Store != nil {
		uc.Store.UpsertTask(parent)
	}
	return nil
}

func (uc *DeleteOccurrenceUseCase) deletePattern(ctx context.Context, in DeleteOccurrenceInput) error {
	p, err := uc.Patterns.FindByID(ctx, in.PatternID, in.UserID)
	if err != nil {
		return err
	}

	switch in.Scope {
	case ScopeThisAndFuture:
		p.EndBefore(in.Date)
	default:
		p.AddException(in.Date)
	}

	p.UpdatedAt = uc.Now()
	if err := uc.Patterns.Update(ctx, p); err != nil {
		return err
	}

	// An already-materialized instance on the slot is removed too;
	// the exception only stops future regeneration.
	if in.Scope == ScopeThisOnly {
		if err := uc.removeMaterialized(ctx, in, p.ID); err != nil {
			return err
		}
	}

	if uc.Store != nil {
		uc.Store.UpsertPattern(p)
	}
	return nil
}

// endBefore truncates a rule so the given date and everything after it
// falls outside the series.
func endBefore(d model.CalendarDate) pattern.EndCondition {
	return pattern.EndCondition{Type: pattern.EndOnDate, EndDate: d.AddDays(-1)}
}

func (uc *DeleteOccurrenceUseCase) removeMaterialized(ctx context.Context, in DeleteOccurrenceInput, patternID model.PatternID) error {
	instances, err := uc.Tasks.FindInstancesByPattern(ctx, patternID, in.UserID)
	if err != nil {
		return err
	}
	for _, inst := range instances {
		if inst.InstanceDate != in.Date || inst.IsDeleted() {
			continue
		}
		if err := uc.Tasks.SoftDelete(ctx, inst.ID, in.UserID); err != nil {
			return err
		}
		if uc.Store != nil {
			deleted := inst.Clone()
			deleted.SoftDelete(uc.Now())
			uc.Store.UpsertTask(deleted)
		}
	}
	return nil
}
