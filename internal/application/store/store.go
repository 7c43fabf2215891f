// Package store holds the normalized in-memory state the engine operates
// over: tasks by id, patterns by id, and a date-keyed secondary index.
// Mutations flow through a single add/remove path so the primary table and
// the date index can never diverge. Read selectors are pure and re-derive
// visible lists, including virtual occurrences, on every call.
package store

import (
	"sort"
	"sync"

	"github.com/planday/planday/internal/domain/model"
	"github.com/planday/planday/internal/domain/model/pattern"
	"github.com/planday/planday/internal/domain/model/task"
	"github.com/planday/planday/internal/domain/service/recurrence"
)

// ResourceKey identifies one fetchable resource category for in-flight
// request tracking.
type ResourceKey string

// KeyTasksForDate returns the fetch key for a single day's tasks.
func KeyTasksForDate(d model.CalendarDate) ResourceKey {
	return ResourceKey("tasks:" + d.String())
}

// Fetch keys for the singleton resource categories.
const (
	KeyRecurringParents ResourceKey = "recurring-parents"
	KeyPatterns         ResourceKey = "recurring-patterns"
	KeyCategories       ResourceKey = "categories"
)

// Store is the normalized state container.
type Store struct {
	mu sync.RWMutex

	tasks      map[model.TaskID]*task.Task
	patterns   map[model.PatternID]*pattern.RecurringPattern
	categories map[model.CategoryID]*model.Category

	// byDate maps a scheduled date to the ids of tasks visible on it.
	byDate map[model.CalendarDate]map[model.TaskID]struct{}

	// loadedDates records which days have been fetched at least once.
	loadedDates map[model.CalendarDate]struct{}

	// inFlight suppresses duplicate concurrent fetches per resource key.
	// Completion order between distinct requests is not tracked: whichever
	// fetch commits last wins on its key.
	inFlight map[ResourceKey]struct{}
}

// New creates an empty store.
func New() *Store {
	return &Store{
		tasks:       make(map[model.TaskID]*task.Task),
		patterns:    make(map[model.PatternID]*pattern.RecurringPattern),
		categories:  make(map[model.CategoryID]*model.Category),
		byDate:      make(map[model.CalendarDate]map[model.TaskID]struct{}),
		loadedDates: make(map[model.CalendarDate]struct{}),
		inFlight:    make(map[ResourceKey]struct{}),
	}
}

// addToIndex and removeFromIndex are the only functions that touch byDate.

func (s *Store) addToIndex(t *task.Task) {
	if t.ScheduledDate.IsZero() {
		return
	}
	ids, ok := s.byDate[t.ScheduledDate]
	if !ok {
		ids = make(map[model.TaskID]struct{})
		s.byDate[t.ScheduledDate] = ids
	}
	ids[t.ID] = struct{}{}
}

func (s *Store) removeFromIndex(t *task.Task) {
	if t.ScheduledDate.IsZero() {
		return
	}
	if ids, ok := s.byDate[t.ScheduledDate]; ok {
		delete(ids, t.ID)
		if len(ids) == 0 {
			delete(s.byDate, t.ScheduledDate)
		}
	}
}

// UpsertTask commits a task into the primary table and the date index.
// A task carrying a soft-delete marker is dropped from the index instead.
func (s *Store) UpsertTask(t *task.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.tasks[t.ID]; ok {
		s.removeFromIndex(prev)
	}
	s.tasks[t.ID] = t
	if !t.IsDeleted() {
		s.addToIndex(t)
	}
}

// RemoveTask drops a task from both structures.
func (s *Store) RemoveTask(id model.TaskID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.tasks[id]; ok {
		s.removeFromIndex(t)
		delete(s.tasks, id)
	}
}

// Task returns the task by id, if present.
func (s *Store) Task(id model.TaskID) (*task.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	return t, ok
}

// ReplaceTasksForDate commits a fetched day: previous entries for the date
// are dropped and the fetched set is indexed, then the date is marked
// loaded. Last writer wins per date key.
func (s *Store) ReplaceTasksForDate(date model.CalendarDate, tasks []*task.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ids, ok := s.byDate[date]; ok {
		for id := range ids {
			delete(s.tasks, id)
		}
		delete(s.byDate, date)
	}
	for _, t := range tasks {
		s.tasks[t.ID] = t
		if !t.IsDeleted() {
			s.addToIndex(t)
		}
	}
	s.loadedDates[date] = struct{}{}
}

// UpsertPattern commits a recurring pattern.
func (s *Store) UpsertPattern(p *pattern.RecurringPattern) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patterns[p.ID] = p
}

// RemovePattern drops a pattern.
func (s *Store) RemovePattern(id model.PatternID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.patterns, id)
}

// Pattern returns the pattern by id, if present.
func (s *Store) Pattern(id model.PatternID) (*pattern.RecurringPattern, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.patterns[id]
	return p, ok
}

// UpsertCategory commits a category.
func (s *Store) UpsertCategory(c *model.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[c.ID] = c
}

// BeginFetch marks a resource key in flight. It returns false when a fetch
// for the key is already running, in which case the caller must not issue
// a duplicate request.
func (s *Store) BeginFetch(key ResourceKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[key]; busy {
		return false
	}
	s.inFlight[key] = struct{}{}
	return true
}

// EndFetch clears the in-flight mark for a key.
func (s *Store) EndFetch(key ResourceKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, key)
}

// IsDateLoaded reports whether the day has been fetched at least once.
func (s *Store) IsDateLoaded(date model.CalendarDate) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.loadedDates[date]
	return ok
}

// ActiveRecurringPatterns returns the active patterns, ordered by id for
// stable output.
func (s *Store) ActiveRecurringPatterns() []*pattern.RecurringPattern {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*pattern.RecurringPattern
	for _, p := range s.patterns {
		if p.Active {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// StoredTasksOnDate returns the persisted (non-virtual) tasks indexed on a
// date, unsorted. Reordering operates on these only; virtual occurrences
// have no priority number to renumber.
func (s *Store) StoredTasksOnDate(date model.CalendarDate) []*task.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*task.Task
	for id := range s.byDate[date] {
		if t := s.tasks[id]; t != nil && !t.IsDeleted() {
			out = append(out, t)
		}
	}
	return out
}

// TasksVisibleOnDate resolves the visible task list for one day: stored
// tasks scheduled on the date, plus virtual occurrences implied by legacy
// recurring parents and active patterns, deduplicated against materialized
// instances, with delete-status tasks filtered out, sorted by priority.
func (s *Store) TasksVisibleOnDate(date model.CalendarDate) []*task.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*task.Task
	for id := range s.byDate[date] {
		t := s.tasks[id]
		if t == nil || t.Status == model.StatusDelete || t.IsDeleted() {
			continue
		}
		out = append(out, t)
	}

	out = append(out, s.virtualLegacyOccurrences(date)...)
	out = append(out, s.virtualPatternOccurrences(date)...)

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority.Less(out[j].Priority)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// virtualLegacyOccurrences computes unpersisted occurrences of legacy
// recurring parents for a date. Callers must hold at least a read lock.
func (s *Store) virtualLegacyOccurrences(date model.CalendarDate) []*task.Task {
	var out []*task.Task
	for _, parent := range s.tasks {
		if parent.Kind() != task.KindLegacyParent || parent.IsDeleted() {
			continue
		}
		rec := parent.Recurrence
		// The parent is itself the visible occurrence on its own slot.
		if parent.ScheduledDate == date {
			continue
		}
		if len(recurrence.Expand(rec.Rule, &rec.Exceptions, date, date)) == 0 {
			continue
		}
		if s.hasMaterializedInstance(parent.ID, "", date) {
			continue
		}
		out = append(out, virtualFromParent(parent, date))
	}
	return out
}

// virtualPatternOccurrences computes unpersisted occurrences of active
// patterns for a date. Callers must hold at least a read lock.
func (s *Store) virtualPatternOccurrences(date model.CalendarDate) []*task.Task {
	var out []*task.Task
	for _, p := range s.patterns {
		if !p.Active {
			continue
		}
		if len(recurrence.Expand(p.Rule, &p.Exceptions, date, date)) == 0 {
			continue
		}
		if s.hasMaterializedInstance("", p.ID, date) {
			continue
		}
		out = append(out, virtualFromPattern(p, date))
	}
	return out
}

func (s *Store) hasMaterializedInstance(parentID model.TaskID, patternID model.PatternID, date model.CalendarDate) bool {
	for _, t := range s.tasks {
		if t.InstanceDate != date {
			continue
		}
		if parentID != "" && t.RecurringParentID == parentID {
			return true
		}
		if patternID != "" && t.RecurringPatternID == patternID {
			return true
		}
	}
	return false
}

// virtualFromParent builds the display-only occurrence a legacy parent
// implies for a date, with any per-date overlay merged in. The synthesized
// id exists only for list identity and is never persisted.
func virtualFromParent(parent *task.Task, date model.CalendarDate) *task.Task {
	v := parent.Clone()
	v.ID = model.TaskID(string(parent.ID) + "#" + date.String())
	v.Recurrence = nil
	v.ScheduledDate = date
	v.InstanceDate = date
	v.RecurringParentID = parent.ID
	v.IsRecurringInstance = true
	v.Status = model.StatusPending
	v.CompletedAt = nil
	v.Virtual = true

	if mod, ok := parent.Recurrence.ModificationFor(date); ok {
		applyModification(v, mod)
	}
	return v
}

// virtualFromPattern builds the display-only occurrence a pattern implies
// for a date.
func virtualFromPattern(p *pattern.RecurringPattern, date model.CalendarDate) *task.Task {
	return &task.Task{
		ID:                 model.TaskID(string(p.ID) + "#" + date.String()),
		UserID:             p.UserID,
		Title:              p.Title,
		Description:        p.Description,
		CategoryID:         p.CategoryID,
		Priority:           p.Priority,
		Status:             model.StatusPending,
		ScheduledDate:      date,
		RecurringPatternID: p.ID,
		InstanceDate:       date,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
		Virtual:            true,
	}
}

func applyModification(t *task.Task, mod pattern.Modification) {
	if mod.Status != nil {
		t.Status = *mod.Status
	}
	if mod.Title != nil {
		t.Title = *mod.Title
	}
	if mod.Description != nil {
		t.Description = *mod.Description
	}
}
