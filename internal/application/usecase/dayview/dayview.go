// Package dayview loads a day's data into the state container and
// returns the resolved visible task list for that day.
package dayview

import (
	"context"
	"fmt"

	"github.com/planday/planday/internal/application/store"
	"github.com/planday/planday/internal/domain/model"
	"github.com/planday/planday/internal/domain/model/task"
	"github.com/planday/planday/internal/domain/repository"
)

// UseCase resolves the visible task list for a single day. Fetches are
// deduplicated through the store's in-flight tracking, so concurrent
// callers for the same day issue at most one repository round trip.
type UseCase struct {
	Tasks    repository.TaskRepository
	Patterns repository.PatternRepository
	Store    *store.Store
}

// Input identifies the day to resolve.
type Input struct {
	UserID model.UserID
	Date   model.CalendarDate
	Reload bool // force a refetch even when the day is already loaded
}

// Execute returns the day's visible tasks: stored tasks plus virtual
// occurrences from recurring sources, sorted by priority.
func (uc *UseCase) Execute(ctx context.Context, in Input) ([]*task.Task, error) {
	if in.Date.IsZero() {
		return nil, fmt.Errorf("date is required")
	}

	if in.Reload || !uc.Store.IsDateLoaded(in.Date) {
		if err := uc.load(ctx, in.UserID, in.Date); err != nil {
			return nil, err
		}
	}
	return uc.Store.TasksVisibleOnDate(in.Date), nil
}

func (uc *UseCase) load(ctx context.Context, userID model.UserID, date model.CalendarDate) error {
	key := store.KeyTasksForDate(date)
	if !uc.Store.BeginFetch(key) {
		// Another caller is already fetching this day; serve what the
		// store has rather than issuing a duplicate request.
		return nil
	}
	defer uc.Store.EndFetch(key)

	tasks, err := uc.Tasks.FindByDate(ctx, userID, date)
	if err != nil {
		return fmt.Errorf("load tasks for %s: %w", date, err)
	}
	uc.Store.ReplaceTasksForDate(date, tasks)

	// Recurring sources live outside the per-date index but feed the
	// day's virtual occurrences.
	parents, err := uc.Tasks.FindRecurringParents(ctx, userID)
	if err != nil {
		return fmt.Errorf("load recurring parents: %w", err)
	}
	for _, p := range parents {
		uc.Store.UpsertTask(p)
	}

	patterns, err := uc.Patterns.FindActive(ctx, userID)
	if err != nil {
		return fmt.Errorf("load active patterns: %w", err)
	}
	for _, p := range patterns {
		uc.Store.UpsertPattern(p)
	}
	return nil
}
