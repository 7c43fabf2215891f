// Package mock provides scripted in-memory repositories for tests,
// including per-method failure injection for compensation paths.
package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/planday/planday/internal/domain/model"
	"github.com/planday/planday/internal/domain/model/pattern"
	"github.com/planday/planday/internal/domain/model/task"
	"github.com/planday/planday/internal/domain/repository"
)

// MockTaskRepository is an in-memory implementation of TaskRepository.
// Setting one of the *Err fields makes the corresponding method fail.
type MockTaskRepository struct {
	mu    sync.RWMutex
	tasks map[model.TaskID]*task.Task

	CreateErr      error
	UpdateErr      error
	BatchUpdateErr error
	SoftDeleteErr  error
	HardDeleteErr  error

	// HardDeleted records the ids passed to HardDelete, in order.
	HardDeleted []model.TaskID
}

// NewMockTaskRepository creates an empty mock task repository.
func NewMockTaskRepository() *MockTaskRepository {
	return &MockTaskRepository{tasks: make(map[model.TaskID]*task.Task)}
}

// Seed inserts tasks directly, bypassing failure injection.
func (m *MockTaskRepository) Seed(tasks ...*task.Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range tasks {
		m.tasks[t.ID] = t.Clone()
	}
}

// Stored returns the current stored copy of a task.
func (m *MockTaskRepository) Stored(id model.TaskID) (*task.Task, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tasks[id]
	return t, ok
}

// Len returns the number of stored tasks.
func (m *MockTaskRepository) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tasks)
}

func (m *MockTaskRepository) FindByID(ctx context.Context, id model.TaskID, userID model.UserID) (*task.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tasks[id]
	if !ok || t.UserID != userID {
		return nil, fmt.Errorf("%w: task %s", repository.ErrNotFound, id)
	}
	return t.Clone(), nil
}

func (m *MockTaskRepository) FindByDate(ctx context.Context, userID model.UserID, date model.CalendarDate) ([]*task.Task, error) {
	return m.FindByDateRange(ctx, userID, date, date)
}

func (m *MockTaskRepository) FindByDateRange(ctx context.Context, userID model.UserID, start, end model.CalendarDate) ([]*task.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*task.Task
	for _, t := range m.tasks {
		if t.UserID != userID || t.IsDeleted() || t.ScheduledDate.IsZero() {
			continue
		}
		if t.ScheduledDate.Before(start) || t.ScheduledDate.After(end) {
			continue
		}
		out = append(out, t.Clone())
	}
	return out, nil
}

func (m *MockTaskRepository) FindRecurringParents(ctx context.Context, userID model.UserID) ([]*task.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*task.Task
	for _, t := range m.tasks {
		if t.UserID == userID && !t.IsDeleted() && t.Kind() == task.KindLegacyParent {
			out = append(out, t.Clone())
		}
	}
	return out, nil
}

func (m *MockTaskRepository) FindInstancesByPattern(ctx context.Context, patternID model.PatternID, userID model.UserID) ([]*task.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*task.Task
	for _, t := range m.tasks {
		if t.UserID == userID && t.RecurringPatternID == patternID {
			out = append(out, t.Clone())
		}
	}
	return out, nil
}

func (m *MockTaskRepository) FindInstancesByParent(ctx context.Context, parentID model.TaskID, userID model.UserID) ([]*task.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*task.Task
	for _, t := range m.tasks {
		if t.UserID == userID && t.RecurringParentID == parentID {
			out = append(out, t.Clone())
		}
	}
	return out, nil
}

func (m *MockTaskRepository) Create(ctx context.Context, t *task.Task) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[t.ID] = t.Clone()
	return nil
}

func (m *MockTaskRepository) Update(ctx context.Context, t *task.Task) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[t.ID]; !ok {
		return fmt.Errorf("%w: task %s", repository.ErrNotFound, t.ID)
	}
	m.tasks[t.ID] = t.Clone()
	return nil
}

func (m *MockTaskRepository) BatchUpdate(ctx context.Context, tasks []*task.Task) error {
	if m.BatchUpdateErr != nil {
		return m.BatchUpdateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range tasks {
		m.tasks[t.ID] = t.Clone()
	}
	return nil
}

func (m *MockTaskRepository) SoftDelete(ctx context.Context, id model.TaskID, userID model.UserID) error {
	if m.SoftDeleteErr != nil {
		return m.SoftDeleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok || t.UserID != userID {
		return fmt.Errorf("%w: task %s", repository.ErrNotFound, id)
	}
	cp := t.Clone()
	now := cp.UpdatedAt
	cp.SoftDelete(now)
	m.tasks[id] = cp
	return nil
}

func (m *MockTaskRepository) Restore(ctx context.Context, id model.TaskID, userID model.UserID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok || t.UserID != userID {
		return fmt.Errorf("%w: task %s", repository.ErrNotFound, id)
	}
	cp := t.Clone()
	cp.Restore(cp.UpdatedAt)
	m.tasks[id] = cp
	return nil
}

func (m *MockTaskRepository) HardDelete(ctx context.Context, id model.TaskID, userID model.UserID) error {
	if m.HardDeleteErr != nil {
		return m.HardDeleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[id]; !ok {
		return fmt.Errorf("%w: task %s", repository.ErrNotFound, id)
	}
	delete(m.tasks, id)
	m.HardDeleted = append(m.HardDeleted, id)
	return nil
}

// MockPatternRepository is an in-memory implementation of PatternRepository.
type MockPatternRepository struct {
	mu       sync.RWMutex
	patterns map[model.PatternID]*pattern.RecurringPattern

	CreateErr error
	UpdateErr error
	DeleteErr error
}

// NewMockPatternRepository creates an empty mock pattern repository.
func NewMockPatternRepository() *MockPatternRepository {
	return &MockPatternRepository{patterns: make(map[model.PatternID]*pattern.RecurringPattern)}
}

// Seed inserts patterns directly, bypassing failure injection.
func (m *MockPatternRepository) Seed(patterns ...*pattern.RecurringPattern) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range patterns {
		cp := *p
		m.patterns[p.ID] = &cp
	}
}

// Stored returns the current stored copy of a pattern.
func (m *MockPatternRepository) Stored(id model.PatternID) (*pattern.RecurringPattern, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.patterns[id]
	return p, ok
}

// Len returns the number of stored patterns.
func (m *MockPatternRepository) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.patterns)
}

func (m *MockPatternRepository) FindByID(ctx context.Context, id model.PatternID, userID model.UserID) (*pattern.RecurringPattern, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.patterns[id]
	if !ok || p.UserID != userID {
		return nil, fmt.Errorf("%w: pattern %s", repository.ErrNotFound, id)
	}
	cp := *p
	return &cp, nil
}

func (m *MockPatternRepository) FindActive(ctx context.Context, userID model.UserID) ([]*pattern.RecurringPattern, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*pattern.RecurringPattern
	for _, p := range m.patterns {
		if p.UserID == userID && p.Active {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockPatternRepository) Create(ctx context.Context, p *pattern.RecurringPattern) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.patterns[p.ID] = &cp
	return nil
}

func (m *MockPatternRepository) Update(ctx context.Context, p *pattern.RecurringPattern) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.patterns[p.ID]; !ok {
		return fmt.Errorf("%w: pattern %s", repository.ErrNotFound, p.ID)
	}
	cp := *p
	m.patterns[p.ID] = &cp
	return nil
}

func (m *MockPatternRepository) Delete(ctx context.Context, id model.PatternID, userID model.UserID) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.patterns[id]; !ok {
		return fmt.Errorf("%w: pattern %s", repository.ErrNotFound, id)
	}
	delete(m.patterns, id)
	return nil
}
