// Package taskops carries the plain create/update/delete lifecycle of
// tasks and patterns: the operations that need no recurrence mechanics of
// their own but feed the store and trigger chaining on completion.
package taskops

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/text/unicode/norm"

	"github.com/planday/planday/internal/application/store"
	"github.com/planday/planday/internal/application/usecase/occurrence"
	"github.com/planday/planday/internal/application/usecase/reorder"
	"github.com/planday/planday/internal/domain/model"
	"github.com/planday/planday/internal/domain/model/pattern"
	"github.com/planday/planday/internal/domain/model/task"
	"github.com/planday/planday/internal/domain/repository"
)

// ErrEmptyTitle rejects tasks and patterns with no usable title.
var ErrEmptyTitle = errors.New("taskops: title must not be empty")

// Service bundles the task lifecycle operations. Chain may be nil when
// completion chaining is not wanted (migrations, imports).
type Service struct {
	Tasks    repository.TaskRepository
	Patterns repository.PatternRepository
	Store    *store.Store
	Chain    *occurrence.ChainUseCase
	Now      func() time.Time
	Rand     io.Reader
}

// CreateTaskInput describes a new task. A zero Number picks the next free
// number in the letter band on the scheduled date.
type CreateTaskInput struct {
	UserID        model.UserID
	Title         string
	Description   string
	CategoryID    model.CategoryID
	Letter        model.PriorityLetter
	Number        int
	ScheduledDate model.CalendarDate
	ScheduledTime string
	// Rule, when set, makes the task a recurring parent.
	Rule *pattern.Rule
}

// CreateTask validates, normalizes and persists a new task.
func (s *Service) CreateTask(ctx context.Context, in CreateTaskInput) (*task.Task, error) {
	title := norm.NFC.String(in.Title)
	if title == "" {
		return nil, ErrEmptyTitle
	}

	number := in.Number
	if number == 0 {
		number = s.nextNumber(in.ScheduledDate, in.Letter)
	}
	prio, err := model.NewPriority(in.Letter, number)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	id := model.TaskID("TASK-" + ulid.MustNew(ulid.Timestamp(now), s.Rand).String())
	t, err := task.New(id, in.UserID, title, prio, in.ScheduledDate)
	if err != nil {
		return nil, err
	}
	t.Description = norm.NFC.String(in.Description)
	t.CategoryID = in.CategoryID
	t.ScheduledTime = in.ScheduledTime
	t.CreatedAt = now
	t.UpdatedAt = now

	if in.Rule != nil {
		if err := in.Rule.Validate(); err != nil {
			return nil, fmt.Errorf("recurrence rule: %w", err)
		}
		t.Recurrence = &pattern.Recurrence{Rule: *in.Rule}
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	if err := s.Tasks.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create task failed: %w", err)
	}
	if s.Store != nil {
		s.Store.UpsertTask(t)
	}
	return t, nil
}

// UpdateTaskInput carries partial edits; nil fields stay untouched.
type UpdateTaskInput struct {
	UserID        model.UserID
	TaskID        model.TaskID
	Title         *string
	Description   *string
	CategoryID    *model.CategoryID
	ScheduledDate *model.CalendarDate
	ScheduledTime *string
}

// UpdateTask applies the edits and persists the result.
func (s *Service) UpdateTask(ctx context.Context, in UpdateTaskInput) (*task.Task, error) {
	t, err := s.Tasks.FindByID(ctx, in.TaskID, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		title := norm.NFC.String(*in.Title)
		if title == "" {
			return nil, ErrEmptyTitle
		}
		t.Title = title
	}
	if in.Description != nil {
		t.Description = norm.NFC.String(*in.Description)
	}
	if in.CategoryID != nil {
		t.CategoryID = *in.CategoryID
	}
	if in.ScheduledDate != nil {
		t.ScheduledDate = *in.ScheduledDate
	}
	if in.ScheduledTime != nil {
		t.ScheduledTime = *in.ScheduledTime
	}
	t.UpdatedAt = s.Now()

	if err := s.Tasks.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("update task failed: %w", err)
	}
	if s.Store != nil {
		s.Store.UpsertTask(t)
	}
	return t, nil
}

// CycleStatus moves a task one step along pending → in_progress →
// completed → pending. Entering completed on an afterCompletion series
// also creates the follow-up instance; the follow-up is returned alongside
// the updated task and is nil otherwise.
func (s *Service) CycleStatus(ctx context.Context, userID model.UserID, id model.TaskID) (*task.Task, *task.Task, error) {
	t, err := s.Tasks.FindByID(ctx, id, userID)
	if err != nil {
		return nil, nil, err
	}

	now := s.Now()
	t.CycleStatus(now)
	t.UpdatedAt = now
	if err := s.Tasks.Update(ctx, t); err != nil {
		return nil, nil, fmt.Errorf("update status failed: %w", err)
	}
	if s.Store != nil {
		s.Store.UpsertTask(t)
	}

	if t.Status != model.StatusCompleted || s.Chain == nil {
		return t, nil, nil
	}
	next, err := s.Chain.Execute(ctx, occurrence.ChainInput{
		UserID: userID, TaskID: id, CompletedOn: model.DateOf(now),
	})
	if err != nil {
		// Fixed-schedule and plain tasks complete without a follow-up.
		if errors.Is(err, occurrence.ErrNotAfterComplete) || errors.Is(err, occurrence.ErrNotRecurring) {
			return t, nil, nil
		}
		return t, nil, err
	}
	return t, next, nil
}

// SoftDeleteTask hides a task without losing it.
func (s *Service) SoftDeleteTask(ctx context.Context, userID model.UserID, id model.TaskID) error {
	t, err := s.Tasks.FindByID(ctx, id, userID)
	if err != nil {
		return err
	}
	if err := s.Tasks.SoftDelete(ctx, id, userID); err != nil {
		return err
	}
	if s.Store != nil {
		t.SoftDelete(s.Now())
		s.Store.UpsertTask(t)
	}
	return nil
}

// RestoreTask clears a soft delete and puts the task back in its day.
func (s *Service) RestoreTask(ctx context.Context, userID model.UserID, id model.TaskID) error {
	t, err := s.Tasks.FindByID(ctx, id, userID)
	if err != nil {
		return err
	}
	if err := s.Tasks.Restore(ctx, id, userID); err != nil {
		return err
	}
	if s.Store != nil {
		t.Restore(s.Now())
		s.Store.UpsertTask(t)
	}
	return nil
}

// HardDeleteTask removes a task permanently.
func (s *Service) HardDeleteTask(ctx context.Context, userID model.UserID, id model.TaskID) error {
	if err := s.Tasks.HardDelete(ctx, id, userID); err != nil {
		return err
	}
	if s.Store != nil {
		s.Store.RemoveTask(id)
	}
	return nil
}

func (s *Service) nextNumber(d model.CalendarDate, letter model.PriorityLetter) int {
	if s.Store == nil {
		return 1
	}
	return reorder.NextNumber(s.Store.StoredTasksOnDate(d), letter)
}
