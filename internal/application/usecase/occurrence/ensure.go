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
	"github.com/planday/planday/internal/domain/service/recurrence"
)

// EnsureInput asks for every active pattern to have persisted instances up
// to and including Until.
type EnsureInput struct {
	UserID model.UserID
	Until  model.CalendarDate
}

// EnsureUseCase eagerly generates pattern instances ahead of time so a day
// view needs no expansion for already-covered dates. A second run over the
// same horizon is a no-op: each pattern tracks how far it has been
// generated, and every generated slot is recorded as an exception so the
// expander never offers it again.
type EnsureUseCase struct {
	Tasks    repository.TaskRepository
	Patterns repository.PatternRepository
	Store    *store.Store
	Now      func() time.Time
	Rand     io.Reader
}

// Execute generates missing instances and returns how many were created.
func (uc *EnsureUseCase) Execute(ctx context.Context, in EnsureInput) (int, error) {
	patterns, err := uc.Patterns.FindActive(ctx, in.UserID)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, p := range patterns {
		n, err := uc.ensurePattern(ctx, in, p)
		created += n
		if err != nil {
			return created, fmt.Errorf("pattern %s: %w", p.ID, err)
		}
	}
	return created, nil
}

func (uc *EnsureUseCase) ensurePattern(ctx context.Context, in EnsureInput, p *pattern.RecurringPattern) (int, error) {
	if p.Rule.Type == pattern.RecurrenceAfterCompletion {
		// Completion drives these series; there is nothing to pregenerate.
		return 0, nil
	}
	if !p.GeneratedUntil.IsZero() && !in.Until.After(p.GeneratedUntil) {
		return 0, nil
	}

	from := p.Rule.StartDate
	if !p.GeneratedUntil.IsZero() {
		from = p.GeneratedUntil.AddDays(1)
	}
	dates := recurrence.Expand(p.Rule, &p.Exceptions, from, in.Until)

	// Instances may already exist for some slots even without an exception
	// on record, e.g. after a partially applied earlier run.
	existing, err := uc.Tasks.FindInstancesByPattern(ctx, p.ID, in.UserID)
	if err != nil {
		return 0, err
	}
	covered := make(map[model.CalendarDate]struct{}, len(existing))
	for _, inst := range existing {
		covered[inst.InstanceDate] = struct{}{}
	}

	var made []*task.Task
	for _, d := range dates {
		if _, ok := covered[d]; ok {
			p.AddException(d)
			continue
		}
		number := p.Priority.Number
		if uc.Store != nil {
			number = reorder.NextNumber(uc.Store.StoredTasksOnDate(d), p.Priority.Letter)
		}
		inst := newInstance(uc.Now(), uc.Rand, in.UserID, d, p.Title, p.Description, p.CategoryID,
			model.Priority{Letter: p.Priority.Letter, Number: number}, "")
		inst.RecurringPatternID = p.ID

		if err := uc.Tasks.Create(ctx, inst); err != nil {
			return 0, uc.undo(ctx, made, in.UserID, fmt.Errorf("create instance failed: %w", err))
		}
		made = append(made, inst)
		p.AddException(d)
	}

	p.GeneratedUntil = in.Until
	p.UpdatedAt = uc.Now()
	if err := uc.Patterns.Update(ctx, p); err != nil {
		return 0, uc.undo(ctx, made, in.UserID, fmt.Errorf("record generation progress failed: %w", err))
	}

	if uc.Store != nil {
		for _, inst := range made {
			uc.Store.UpsertTask(inst)
		}
		uc.Store.UpsertPattern(p)
	}
	return len(made), nil
}

// undo removes instances created before a later write failed, so reruns
// start from a clean slate. A failed removal escalates like a failed
// materialization rollback.
func (uc *EnsureUseCase) undo(ctx context.Context, made []*task.Task, userID model.UserID, cause error) error {
	for _, inst := range made {
		if delErr := uc.Tasks.HardDelete(ctx, inst.ID, userID); delErr != nil {
			return &ConsistencyError{TaskID: inst.ID, Cause: cause, RollbackErr: delErr}
		}
	}
	return cause
}
