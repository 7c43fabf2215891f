package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/planday/planday/internal/domain/model"
	"github.com/planday/planday/internal/domain/model/pattern"
	"github.com/planday/planday/internal/domain/model/task"
	"github.com/planday/planday/internal/domain/repository"
	"github.com/planday/planday/internal/infrastructure/transaction"
)

const taskColumns = `id, user_id, title, description, category_id,
	priority_letter, priority_number, status, scheduled_date, scheduled_time,
	recurrence, recurring_pattern_id, is_recurring_instance, recurring_parent_id,
	instance_date, completed_at, deleted_at, created_at, updated_at`

// TaskRepositoryImpl implements repository.TaskRepository with SQLite.
type TaskRepositoryImpl struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) repository.TaskRepository {
	return &TaskRepositoryImpl{db: db}
}

// getDB returns the appropriate database executor from context.
func (r *TaskRepositoryImpl) getDB(ctx context.Context) dbExecutor {
	if tx, ok := transaction.GetTxFromContext(ctx); ok {
		return tx
	}
	return r.db
}

func (r *TaskRepositoryImpl) FindByID(ctx context.Context, id model.TaskID, userID model.UserID) (*task.Task, error) {
	query := "SELECT " + taskColumns + " FROM tasks WHERE id = ? AND user_id = ?"
	t, err := scanTask(r.getDB(ctx).QueryRowContext(ctx, query, string(id), string(userID)))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("task %s: %w", id, repository.ErrNotFound)
	}
	return t, err
}

func (r *TaskRepositoryImpl) FindByDate(ctx context.Context, userID model.UserID, date model.CalendarDate) ([]*task.Task, error) {
	query := "SELECT " + taskColumns + ` FROM tasks
		WHERE user_id = ? AND scheduled_date = ? AND deleted_at IS NULL
		ORDER BY priority_letter, priority_number, id`
	return r.queryTasks(ctx, query, string(userID), date.String())
}

func (r *TaskRepositoryImpl) FindByDateRange(ctx context.Context, userID model.UserID, start, end model.CalendarDate) ([]*task.Task, error) {
	query := "SELECT " + taskColumns + ` FROM tasks
		WHERE user_id = ? AND scheduled_date >= ? AND scheduled_date <= ? AND deleted_at IS NULL
		ORDER BY scheduled_date, priority_letter, priority_number, id`
	return r.queryTasks(ctx, query, string(userID), start.String(), end.String())
}

func (r *TaskRepositoryImpl) FindRecurringParents(ctx context.Context, userID model.UserID) ([]*task.Task, error) {
	query := "SELECT " + taskColumns + ` FROM tasks
		WHERE user_id = ? AND recurrence IS NOT NULL AND deleted_at IS NULL
		ORDER BY id`
	return r.queryTasks(ctx, query, string(userID))
}

func (r *TaskRepositoryImpl) FindInstancesByPattern(ctx context.Context, patternID model.PatternID, userID model.UserID) ([]*task.Task, error) {
	query := "SELECT " + taskColumns + ` FROM tasks
		WHERE user_id = ? AND recurring_pattern_id = ?
		ORDER BY instance_date, id`
	return r.queryTasks(ctx, query, string(userID), string(patternID))
}

func (r *TaskRepositoryImpl) FindInstancesByParent(ctx context.Context, parentID model.TaskID, userID model.UserID) ([]*task.Task, error) {
	query := "SELECT " + taskColumns + ` FROM tasks
		WHERE user_id = ? AND recurring_parent_id = ?
		ORDER BY instance_date, id`
	return r.queryTasks(ctx, query, string(userID), string(parentID))
}

func (r *TaskRepositoryImpl) Create(ctx context.Context, t *task.Task) error {
	args, err := taskArgs(t)
	if err != nil {
		return err
	}
	query := `INSERT INTO tasks (` + taskColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.getDB(ctx).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert task failed: %w", err)
	}
	return nil
}

func (r *TaskRepositoryImpl) Update(ctx context.Context, t *task.Task) error {
	args, err := taskArgs(t)
	if err != nil {
		return err
	}
	query := `UPDATE tasks SET
		title = ?, description = ?, category_id = ?,
		priority_letter = ?, priority_number = ?, status = ?,
		scheduled_date = ?, scheduled_time = ?, recurrence = ?,
		recurring_pattern_id = ?, is_recurring_instance = ?, recurring_parent_id = ?,
		instance_date = ?, completed_at = ?, deleted_at = ?, created_at = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`
	// taskArgs orders id and user_id first; rotate them to the WHERE clause.
	rotated := append(append([]interface{}{}, args[2:]...), args[0], args[1])
	res, err := r.getDB(ctx).ExecContext(ctx, query, rotated...)
	if err != nil {
		return fmt.Errorf("update task failed: %w", err)
	}
	return requireRow(res, string(t.ID))
}

func (r *TaskRepositoryImpl) BatchUpdate(ctx context.Context, tasks []*task.Task) error {
	// Join the ambient transaction if there is one, otherwise run the
	// batch in its own so a mid-batch failure leaves nothing applied.
	if _, ok := transaction.GetTxFromContext(ctx); ok {
		return r.batchUpdate(ctx, tasks)
	}
	return transaction.NewManager(r.db).InTransaction(ctx, func(txCtx context.Context) error {
		return r.batchUpdate(txCtx, tasks)
	})
}

func (r *TaskRepositoryImpl) batchUpdate(ctx context.Context, tasks []*task.Task) error {
	for _, t := range tasks {
		if err := r.Update(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func (r *TaskRepositoryImpl) SoftDelete(ctx context.Context, id model.TaskID, userID model.UserID) error {
	now := formatTime(time.Now())
	res, err := r.getDB(ctx).ExecContext(ctx,
		"UPDATE tasks SET deleted_at = ?, updated_at = ? WHERE id = ? AND user_id = ? AND deleted_at IS NULL",
		now, now, string(id), string(userID))
	if err != nil {
		return fmt.Errorf("soft delete task failed: %w", err)
	}
	return requireRow(res, string(id))
}

func (r *TaskRepositoryImpl) Restore(ctx context.Context, id model.TaskID, userID model.UserID) error {
	res, err := r.getDB(ctx).ExecContext(ctx,
		"UPDATE tasks SET deleted_at = NULL, updated_at = ? WHERE id = ? AND user_id = ? AND deleted_at IS NOT NULL",
		formatTime(time.Now()), string(id), string(userID))
	if err != nil {
		return fmt.Errorf("restore task failed: %w", err)
	}
	return requireRow(res, string(id))
}

func (r *TaskRepositoryImpl) HardDelete(ctx context.Context, id model.TaskID, userID model.UserID) error {
	res, err := r.getDB(ctx).ExecContext(ctx,
		"DELETE FROM tasks WHERE id = ? AND user_id = ?", string(id), string(userID))
	if err != nil {
		return fmt.Errorf("delete task failed: %w", err)
	}
	return requireRow(res, string(id))
}

func (r *TaskRepositoryImpl) queryTasks(ctx context.Context, query string, args ...interface{}) ([]*task.Task, error) {
	rows, err := r.getDB(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks failed: %w", err)
	}
	defer rows.Close()

	var out []*task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks failed: %w", err)
	}
	return out, nil
}

func requireRow(res sql.Result, id string) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected failed: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("task %s: %w", id, repository.ErrNotFound)
	}
	return nil
}

// taskArgs flattens a task into column order, marshaling the embedded
// recurrence to JSON.
func taskArgs(t *task.Task) ([]interface{}, error) {
	var recurrenceJSON interface{}
	if t.Recurrence != nil {
		b, err := json.Marshal(t.Recurrence)
		if err != nil {
			return nil, fmt.Errorf("marshal recurrence failed: %w", err)
		}
		recurrenceJSON = string(b)
	}

	var completedAt, deletedAt interface{}
	if t.CompletedAt != nil {
		completedAt = formatTime(*t.CompletedAt)
	}
	if t.DeletedAt != nil {
		deletedAt = formatTime(*t.DeletedAt)
	}

	return []interface{}{
		string(t.ID), string(t.UserID), t.Title, t.Description, string(t.CategoryID),
		string(t.Priority.Letter), t.Priority.Number, string(t.Status),
		formatDate(t.ScheduledDate), t.ScheduledTime,
		recurrenceJSON, string(t.RecurringPatternID), t.IsRecurringInstance, string(t.RecurringParentID),
		formatDate(t.InstanceDate), completedAt, deletedAt,
		formatTime(t.CreatedAt), formatTime(t.UpdatedAt),
	}, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner) (*task.Task, error) {
	var (
		id, userID, title, description, categoryID     string
		letter, status, scheduledDate, scheduledTime   string
		number                                         int
		recurrenceJSON                                 sql.NullString
		patternID, parentID, instanceDate              string
		isInstance                                     bool
		completedAt, deletedAt                         sql.NullString
		createdAt, updatedAt                           string
	)

	err := row.Scan(
		&id, &userID, &title, &description, &categoryID,
		&letter, &number, &status, &scheduledDate, &scheduledTime,
		&recurrenceJSON, &patternID, &isInstance, &parentID,
		&instanceDate, &completedAt, &deletedAt, &createdAt, &updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan task failed: %w", err)
	}

	t := &task.Task{
		ID:                  model.TaskID(id),
		UserID:              model.UserID(userID),
		Title:               title,
		Description:         description,
		CategoryID:          model.CategoryID(categoryID),
		Priority:            model.Priority{Letter: model.PriorityLetter(letter), Number: number},
		Status:              model.Status(status),
		ScheduledTime:       scheduledTime,
		RecurringPatternID:  model.PatternID(patternID),
		IsRecurringInstance: isInstance,
		RecurringParentID:   model.TaskID(parentID),
	}

	if t.ScheduledDate, err = parseDate(scheduledDate); err != nil {
		return nil, fmt.Errorf("parse scheduled_date failed: %w", err)
	}
	if t.InstanceDate, err = parseDate(instanceDate); err != nil {
		return nil, fmt.Errorf("parse instance_date failed: %w", err)
	}
	if recurrenceJSON.Valid {
		var rec pattern.Recurrence
		if err := json.Unmarshal([]byte(recurrenceJSON.String), &rec); err != nil {
			return nil, fmt.Errorf("unmarshal recurrence failed: %w", err)
		}
		t.Recurrence = &rec
	}
	if completedAt.Valid {
		ts, err := parseTime(completedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse completed_at failed: %w", err)
		}
		t.CompletedAt = &ts
	}
	if deletedAt.Valid {
		ts, err := parseTime(deletedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse deleted_at failed: %w", err)
		}
		t.DeletedAt = &ts
	}
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at failed: %w", err)
	}
	if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at failed: %w", err)
	}
	return t, nil
}
