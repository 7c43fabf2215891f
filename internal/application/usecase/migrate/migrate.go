// Package migrate converts legacy recurring parents (task-embedded rules)
// into standalone patterns with materialized instances. Each parent is
// migrated independently; one failing parent never aborts the batch.
package migrate

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/planday/planday/internal/application/store"
	"github.com/planday/planday/internal/domain/model"
	"github.com/planday/planday/internal/domain/model/pattern"
	"github.com/planday/planday/internal/domain/model/task"
	"github.com/planday/planday/internal/domain/repository"
	"github.com/planday/planday/internal/domain/service/recurrence"
)

// DefaultHorizonDays bounds eager instance generation during migration.
const DefaultHorizonDays = 90

// TaskError records which parent failed and why.
type TaskError struct {
	TaskID model.TaskID
	Err    error
}

func (e TaskError) Error() string {
	return fmt.Sprintf("migrate %s: %v", e.TaskID, e.Err)
}

// Result reports what the batch accomplished. Failures holds one entry per
// parent that could not be migrated; the rest of the batch still counts.
type Result struct {
	PatternsCreated   int
	InstancesCreated  int
	InstancesRelinked int
	Failures          []TaskError
}

// LegacyPatternsUseCase migrates every legacy recurring parent of a user.
type LegacyPatternsUseCase struct {
	Tasks    repository.TaskRepository
	Patterns repository.PatternRepository
	Store    *store.Store
	// HorizonDays caps eager generation; zero means DefaultHorizonDays.
	HorizonDays int
	Now         func() time.Time
	Rand        io.Reader
}

// Input scopes the batch to one user.
type Input struct {
	UserID model.UserID
}

// Execute migrates all legacy parents and reports per-parent outcomes. The
// returned error covers only the initial listing; conversion failures land
// in Result.Failures.
func (uc *LegacyPatternsUseCase) Execute(ctx context.Context, in Input) (*Result, error) {
	parents, err := uc.Tasks.FindRecurringParents(ctx, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("list recurring parents: %w", err)
	}

	res := &Result{}
	for _, parent := range parents {
		created, relinked, err := uc.migrateParent(ctx, in.UserID, parent)
		if err != nil {
			res.Failures = append(res.Failures, TaskError{TaskID: parent.ID, Err: err})
			continue
		}
		res.PatternsCreated++
		res.InstancesCreated += created
		res.InstancesRelinked += relinked
	}
	return res, nil
}

func (uc *LegacyPatternsUseCase) migrateParent(ctx context.Context, userID model.UserID, parent *task.Task) (created, relinked int, err error) {
	rec := parent.Recurrence
	if rec == nil {
		return 0, 0, fmt.Errorf("task %s has no embedded recurrence", parent.ID)
	}

	now := uc.Now()
	p, err := pattern.NewRecurringPattern(
		model.PatternID("PAT-"+ulid.MustNew(ulid.Timestamp(now), uc.Rand).String()),
		userID, parent.Title, parent.Priority, rec.Rule,
	)
	if err != nil {
		return 0, 0, fmt.Errorf("build pattern: %w", err)
	}
	p.Description = parent.Description
	p.CategoryID = parent.CategoryID
	p.CreatedAt = now
	p.UpdatedAt = now
	for _, d := range rec.Exceptions.Dates() {
		p.AddException(d)
	}
	// The parent keeps standing on its own slot as a materialized
	// instance, so that date must never generate a twin.
	p.AddException(parent.ScheduledDate)

	if err := uc.Patterns.Create(ctx, p); err != nil {
		return 0, 0, fmt.Errorf("create pattern: %w", err)
	}

	instances, err := uc.generateAhead(ctx, p, rec, userID, now)
	if err != nil {
		return 0, 0, uc.abandon(ctx, p, instances, nil, parent.ID, userID, err)
	}

	children, err := uc.relinkChildren(ctx, parent.ID, p.ID, userID)
	if err != nil {
		return 0, 0, uc.abandon(ctx, p, instances, children, parent.ID, userID, err)
	}

	// Convert the parent last: once its embedded rule is gone there is no
	// way back, so everything else must already be in place.
	parent.Recurrence = nil
	parent.RecurringPatternID = p.ID
	parent.InstanceDate = parent.ScheduledDate
	parent.UpdatedAt = now
	if err := uc.Tasks.Update(ctx, parent); err != nil {
		return 0, 0, uc.abandon(ctx, p, instances, children, parent.ID, userID, fmt.Errorf("convert parent: %w", err))
	}

	if uc.Store != nil {
		uc.Store.UpsertPattern(p)
		uc.Store.UpsertTask(parent)
		for _, inst := range instances {
			uc.Store.UpsertTask(inst)
		}
	}
	return len(instances), len(children), nil
}

// generateAhead materializes the rule's occurrences for the horizon,
// carrying over any per-date modification overlays the legacy rule held.
func (uc *LegacyPatternsUseCase) generateAhead(ctx context.Context, p *pattern.RecurringPattern, rec *pattern.Recurrence, userID model.UserID, now time.Time) ([]*task.Task, error) {
	if p.Rule.Type == pattern.RecurrenceAfterCompletion {
		// Nothing to pregenerate; the next instance appears on completion.
		return nil, nil
	}

	horizon := uc.HorizonDays
	if horizon <= 0 {
		horizon = DefaultHorizonDays
	}
	from := model.DateOf(now)
	until := from.AddDays(horizon)
	dates := recurrence.Expand(p.Rule, &p.Exceptions, from, until)

	var made []*task.Task
	for _, d := range dates {
		inst := &task.Task{
			ID:                 model.TaskID("TASK-" + ulid.MustNew(ulid.Timestamp(now), uc.Rand).String()),
			UserID:             userID,
			Title:              p.Title,
			Description:        p.Description,
			CategoryID:         p.CategoryID,
			Priority:           p.Priority,
			Status:             model.StatusPending,
			ScheduledDate:      d,
			InstanceDate:       d,
			RecurringPatternID: p.ID,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if mod, ok := rec.ModificationFor(d); ok {
			if mod.Title != nil {
				inst.Title = *mod.Title
			}
			if mod.Description != nil {
				inst.Description = *mod.Description
			}
			if mod.Status != nil {
				inst.Status = *mod.Status
			}
		}
		if err := uc.Tasks.Create(ctx, inst); err != nil {
			return made, fmt.Errorf("generate instance on %s: %w", d, err)
		}
		made = append(made, inst)
		p.AddException(d)
	}

	p.GeneratedUntil = until
	if err := uc.Patterns.Update(ctx, p); err != nil {
		return made, fmt.Errorf("record generation progress: %w", err)
	}
	return made, nil
}

// relinkChildren moves existing legacy instances under the new pattern and
// returns the children actually updated, for rollback.
func (uc *LegacyPatternsUseCase) relinkChildren(ctx context.Context, parentID model.TaskID, patternID model.PatternID, userID model.UserID) ([]*task.Task, error) {
	children, err := uc.Tasks.FindInstancesByParent(ctx, parentID, userID)
	if err != nil {
		return nil, fmt.Errorf("list legacy instances: %w", err)
	}

	var relinked []*task.Task
	for _, child := range children {
		child.RecurringParentID = ""
		child.IsRecurringInstance = false
		child.RecurringPatternID = patternID
		if child.InstanceDate.IsZero() {
			child.InstanceDate = child.ScheduledDate
		}
		child.UpdatedAt = uc.Now()
		if err := uc.Tasks.Update(ctx, child); err != nil {
			return relinked, fmt.Errorf("relink instance %s: %w", child.ID, err)
		}
		if uc.Store != nil {
			uc.Store.UpsertTask(child)
		}
		relinked = append(relinked, child)
	}
	return relinked, nil
}

// abandon rolls back a half-migrated parent: generated instances are
// removed, relinked children point back at the parent, and the new pattern
// is dropped, so a rerun can start over. The parent's own record was not
// yet touched at any point abandon is reachable from. Rollback errors are
// secondary to the original cause and only annotate it.
func (uc *LegacyPatternsUseCase) abandon(ctx context.Context, p *pattern.RecurringPattern, instances, relinked []*task.Task, parentID model.TaskID, userID model.UserID, cause error) error {
	for _, inst := range instances {
		if err := uc.Tasks.HardDelete(ctx, inst.ID, userID); err != nil {
			return fmt.Errorf("%w (cleanup incomplete: instance %s left behind: %v)", cause, inst.ID, err)
		}
	}
	for _, child := range relinked {
		child.RecurringPatternID = ""
		child.RecurringParentID = parentID
		child.IsRecurringInstance = true
		if err := uc.Tasks.Update(ctx, child); err != nil {
			return fmt.Errorf("%w (cleanup incomplete: instance %s still relinked: %v)", cause, child.ID, err)
		}
		if uc.Store != nil {
			uc.Store.UpsertTask(child)
		}
	}
	if err := uc.Patterns.Delete(ctx, p.ID, userID); err != nil {
		return fmt.Errorf("%w (cleanup incomplete: pattern %s left behind: %v)", cause, p.ID, err)
	}
	return cause
}
