package occurrence

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/planday/planday/internal/application/store"
	"github.com/planday/planday/internal/application/usecase/reorder"
	"github.com/planday/planday/internal/domain/model"
	"github.com/planday/planday/internal/domain/model/pattern"
	"github.com/planday/planday/internal/domain/model/task"
	"github.com/planday/planday/internal/domain/repository"
)

// ChainInput identifies a just-completed task whose series schedules the
// next occurrence relative to completion.
type ChainInput struct {
	UserID model.UserID
	TaskID model.TaskID
	// CompletedOn anchors the interval. Zero means the date of Now().
	CompletedOn model.CalendarDate
}

// ChainUseCase creates the follow-up instance of an afterCompletion
// series. Unlike fixed-schedule materialization this involves no exception
// bookkeeping: the series has no precomputed slots to suppress, so the
// only write is the new instance itself.
type ChainUseCase struct {
	Tasks    repository.TaskRepository
	Patterns repository.PatternRepository
	Store    *store.Store
	Now      func() time.Time // time provider (for testing)
	Rand     io.Reader        // random source for ULID generation (for testing)
}

// Execute creates and returns the follow-up instance. It returns
// ErrNotAfterComplete when the task's source rule is not afterCompletion,
// and (nil, nil) when the series end condition leaves nothing to create.
func (uc *ChainUseCase) Execute(ctx context.Context, in ChainInput) (*task.Task, error) {
	t, err := uc.Tasks.FindByID(ctx, in.TaskID, in.UserID)
	if err != nil {
		return nil, err
	}

	src, err := uc.resolveSource(ctx, t, in.UserID)
	if err != nil {
		return nil, err
	}
	if src.rule.Type != pattern.RecurrenceAfterCompletion {
		return nil, fmt.Errorf("%w: %s", ErrNotAfterComplete, in.TaskID)
	}

	base := in.CompletedOn
	if base.IsZero() {
		base = model.DateOf(uc.Now())
	}
	next := base.AddDays(src.rule.DaysAfterCompletion)
	if src.rule.End.Type == pattern.EndOnDate && next.After(src.rule.End.EndDate) {
		return nil, nil
	}

	number := src.priority.Number
	if uc.Store != nil {
		number = reorder.NextNumber(uc.Store.StoredTasksOnDate(next), src.priority.Letter)
	}
	inst := newInstance(uc.Now(), uc.Rand, in.UserID, next, src.title, src.description, src.categoryID,
		model.Priority{Letter: src.priority.Letter, Number: number}, src.scheduledTime)
	inst.RecurringParentID = src.parentID
	inst.IsRecurringInstance = src.parentID != ""
	inst.RecurringPatternID = src.patternID

	if err := uc.Tasks.Create(ctx, inst); err != nil {
		return nil, fmt.Errorf("create follow-up instance failed: %w", err)
	}
	if uc.Store != nil {
		uc.Store.UpsertTask(inst)
	}
	return inst, nil
}

// chainSource carries the rule and template fields the follow-up instance
// inherits, plus the link back to its series.
type chainSource struct {
	rule          pattern.Rule
	title         string
	description   string
	categoryID    model.CategoryID
	priority      model.Priority
	scheduledTime string
	parentID      model.TaskID
	patternID     model.PatternID
}

func (uc *ChainUseCase) resolveSource(ctx context.Context, t *task.Task, userID model.UserID) (chainSource, error) {
	switch t.Kind() {
	case task.KindLegacyParent:
		return chainSource{
			rule:          t.Recurrence.Rule,
			title:         t.Title,
			description:   t.Description,
			categoryID:    t.CategoryID,
			priority:      t.Priority,
			scheduledTime: t.ScheduledTime,
			parentID:      t.ID,
		}, nil

	case task.KindLegacyInstance:
		parent, err := uc.Tasks.FindByID(ctx, t.RecurringParentID, userID)
		if err != nil {
			return chainSource{}, err
		}
		if parent.Recurrence == nil {
			return chainSource{}, fmt.Errorf("%w: %s", ErrNotRecurring, parent.ID)
		}
		return chainSource{
			rule:          parent.Recurrence.Rule,
			title:         parent.Title,
			description:   parent.Description,
			categoryID:    parent.CategoryID,
			priority:      parent.Priority,
			scheduledTime: parent.ScheduledTime,
			parentID:      parent.ID,
		}, nil

	case task.KindPatternInstance:
		p, err := uc.Patterns.FindByID(ctx, t.RecurringPatternID, userID)
		if err != nil {
			return chainSource{}, err
		}
		return chainSource{
			rule:        p.Rule,
			title:       p.Title,
			description: p.Description,
			categoryID:  p.CategoryID,
			priority:    p.Priority,
			patternID:   p.ID,
		}, nil

	default:
		return chainSource{}, fmt.Errorf("%w: %s", ErrNotRecurring, t.ID)
	}
}
