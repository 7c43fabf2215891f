package reorder

import (
	"context"
	"sync"

	"github.com/planday/planday/internal/application/store"
	"github.com/planday/planday/internal/domain/model"
	"github.com/planday/planday/internal/domain/model/task"
	"github.com/planday/planday/internal/domain/repository"
)

// Manager wraps a reorder gesture in an optimistic transaction:
// snapshot → apply to the store immediately → persist → confirm or roll
// back. The rollback buffer is a single arena slot, exclusive per gesture;
// a second reorder is rejected while one is unconfirmed.
type Manager struct {
	Store *store.Store
	Repo  repository.TaskRepository

	mu     sync.Mutex
	buffer map[model.TaskID]model.Priority // nil when idle
}

// NewManager creates a reorder manager over the store and repository.
func NewManager(s *store.Store, repo repository.TaskRepository) *Manager {
	return &Manager{Store: s, Repo: repo}
}

// ApplyOrder runs one explicit-order gesture for a letter group. On
// persistence failure every affected task's priority is restored to its
// pre-gesture value exactly, and the error is surfaced.
func (m *Manager) ApplyOrder(ctx context.Context, userID model.UserID, orderedIDs []model.TaskID, letter model.PriorityLetter) error {
	updates, err := ApplyExplicitOrder(orderedIDs, letter, m.Store)
	if err != nil {
		return err
	}
	return m.run(ctx, userID, updates)
}

// FillGaps renumbers one day's letter groups densely and persists only the
// changed tasks. A no-op day issues no writes at all.
func (m *Manager) FillGaps(ctx context.Context, userID model.UserID, date model.CalendarDate) (bool, error) {
	updates, hasChanges := ReorderToFillGaps(m.Store.StoredTasksOnDate(date))
	if !hasChanges {
		return false, nil
	}
	if err := m.run(ctx, userID, updates); err != nil {
		return false, err
	}
	return true, nil
}

// run executes the snapshot / optimistic-apply / persist sequence.
func (m *Manager) run(ctx context.Context, userID model.UserID, updates []Update) error {
	if err := m.begin(updates); err != nil {
		return err
	}

	changed := make([]*task.Task, 0, len(updates))
	for _, u := range updates {
		if t, ok := m.Store.Task(u.TaskID); ok {
			next := t.Clone()
			next.Priority = u.Priority
			m.Store.UpsertTask(next)
			changed = append(changed, next)
		}
	}

	if err := m.Repo.BatchUpdate(ctx, changed); err != nil {
		m.rollback()
		return err
	}

	m.confirm()
	return nil
}

// begin snapshots the previous priorities into the rollback buffer. It
// fails when a gesture is already in flight.
func (m *Manager) begin(updates []Update) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.buffer != nil {
		return ErrReorderInFlight
	}
	buf := make(map[model.TaskID]model.Priority, len(updates))
	for _, u := range updates {
		if t, ok := m.Store.Task(u.TaskID); ok {
			buf[t.ID] = t.Priority
		}
	}
	m.buffer = buf
	return nil
}

// confirm discards the rollback buffer after successful persistence.
func (m *Manager) confirm() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buffer = nil
}

// rollback restores every snapshotted priority and discards the buffer.
func (m *Manager) rollback() {
	m.mu.Lock()
	buf := m.buffer
	m.buffer = nil
	m.mu.Unlock()

	for id, prev := range buf {
		if t, ok := m.Store.Task(id); ok {
			restored := t.Clone()
			restored.Priority = prev
			m.Store.UpsertTask(restored)
		}
	}
}
