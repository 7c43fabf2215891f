// Package reorder implements the priority ordering engine and the
// optimistic reorder transaction around it.
package reorder

import (
	"errors"
	"fmt"
	"sort"

	"github.com/planday/planday/internal/domain/model"
	"github.com/planday/planday/internal/domain/model/task"
)

// Validation errors, rejected before any write.
var (
	ErrTaskNotFound     = errors.New("reorder: task not in live index")
	ErrWrongLetter      = errors.New("reorder: task belongs to a different letter")
	ErrReorderInFlight  = errors.New("reorder: previous reorder not yet confirmed")
	ErrDuplicateTaskIDs = errors.New("reorder: duplicate task id in order")
)

// Update is one task's new priority key.
type Update struct {
	TaskID   model.TaskID
	Priority model.Priority
}

// TaskLookup resolves ids against the live index.
type TaskLookup interface {
	Task(id model.TaskID) (*task.Task, bool)
}

// NextNumber returns the next available priority number for a letter among
// the given tasks: 1 + max(existing numbers). Gaps are ignored; insertion
// always appends.
func NextNumber(tasks []*task.Task, letter model.PriorityLetter) int {
	max := 0
	for _, t := range tasks {
		if t.Priority.Letter == letter && t.Priority.Number > max {
			max = t.Priority.Number
		}
	}
	return max + 1
}

// ReorderToFillGaps renumbers every letter group of one day's tasks to the
// dense sequence 1..n, preserving the current relative order. Only tasks
// whose number actually changes are returned, minimizing writes.
func ReorderToFillGaps(tasksForDate []*task.Task) (updates []Update, hasChanges bool) {
	byLetter := make(map[model.PriorityLetter][]*task.Task)
	for _, t := range tasksForDate {
		byLetter[t.Priority.Letter] = append(byLetter[t.Priority.Letter], t)
	}

	for _, group := range byLetter {
		sort.SliceStable(group, func(i, j int) bool {
			if group[i].Priority.Number != group[j].Priority.Number {
				return group[i].Priority.Number < group[j].Priority.Number
			}
			return group[i].ID < group[j].ID
		})
		for i, t := range group {
			want := i + 1
			if t.Priority.Number != want {
				updates = append(updates, Update{
					TaskID:   t.ID,
					Priority: model.Priority{Letter: t.Priority.Letter, Number: want},
				})
			}
		}
	}
	return updates, len(updates) > 0
}

// ApplyExplicitOrder assigns numbers 1..n by position for a user-supplied
// ordering of one letter group. It fails, before any write, when an id is
// absent from the live index, appears twice, or belongs to a different
// letter than declared.
func ApplyExplicitOrder(orderedIDs []model.TaskID, letter model.PriorityLetter, lookup TaskLookup) ([]Update, error) {
	if !letter.IsValid() {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidPriority, letter)
	}

	seen := make(map[model.TaskID]struct{}, len(orderedIDs))
	updates := make([]Update, 0, len(orderedIDs))
	for i, id := range orderedIDs {
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTaskIDs, id)
		}
		seen[id] = struct{}{}

		t, ok := lookup.Task(id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
		}
		if t.Priority.Letter != letter {
			return nil, fmt.Errorf("%w: %s is %s, order declares %s", ErrWrongLetter, id, t.Priority.Letter, letter)
		}
		updates = append(updates, Update{
			TaskID:   id,
			Priority: model.Priority{Letter: letter, Number: i + 1},
		})
	}
	return updates, nil
}
