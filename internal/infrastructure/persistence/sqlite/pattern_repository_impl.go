package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/planday/planday/internal/domain/model"
	"github.com/planday/planday/internal/domain/model/pattern"
	"github.com/planday/planday/internal/domain/repository"
	"github.com/planday/planday/internal/infrastructure/transaction"
)

const patternColumns = `id, user_id, title, description, category_id,
	priority_letter, priority_number, rule, exceptions, generated_until,
	active, created_at, updated_at`

// PatternRepositoryImpl implements repository.PatternRepository with SQLite.
type PatternRepositoryImpl struct {
	db *sql.DB
}

func NewPatternRepository(db *sql.DB) repository.PatternRepository {
	return &PatternRepositoryImpl{db: db}
}

func (r *PatternRepositoryImpl) getDB(ctx context.Context) dbExecutor {
	if tx, ok := transaction.GetTxFromContext(ctx); ok {
		return tx
	}
	return r.db
}

func (r *PatternRepositoryImpl) FindByID(ctx context.Context, id model.PatternID, userID model.UserID) (*pattern.RecurringPattern, error) {
	query := "SELECT " + patternColumns + " FROM recurring_patterns WHERE id = ? AND user_id = ?"
	p, err := scanPattern(r.getDB(ctx).QueryRowContext(ctx, query, string(id), string(userID)))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("pattern %s: %w", id, repository.ErrNotFound)
	}
	return p, err
}

func (r *PatternRepositoryImpl) FindActive(ctx context.Context, userID model.UserID) ([]*pattern.RecurringPattern, error) {
	query := "SELECT " + patternColumns + ` FROM recurring_patterns
		WHERE user_id = ? AND active = 1
		ORDER BY id`

	rows, err := r.getDB(ctx).QueryContext(ctx, query, string(userID))
	if err != nil {
		return nil, fmt.Errorf("query patterns failed: %w", err)
	}
	defer rows.Close()

	var out []*pattern.RecurringPattern
	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate patterns failed: %w", err)
	}
	return out, nil
}

func (r *PatternRepositoryImpl) Create(ctx context.Context, p *pattern.RecurringPattern) error {
	args, err := patternArgs(p)
	if err != nil {
		return err
	}
	query := `INSERT INTO recurring_patterns (` + patternColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.getDB(ctx).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert pattern failed: %w", err)
	}
	return nil
}

func (r *PatternRepositoryImpl) Update(ctx context.Context, p *pattern.RecurringPattern) error {
	args, err := patternArgs(p)
	if err != nil {
		return err
	}
	query := `UPDATE recurring_patterns SET
		title = ?, description = ?, category_id = ?,
		priority_letter = ?, priority_number = ?, rule = ?, exceptions = ?,
		generated_until = ?, active = ?, created_at = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`
	rotated := append(append([]interface{}{}, args[2:]...), args[0], args[1])
	res, err := r.getDB(ctx).ExecContext(ctx, query, rotated...)
	if err != nil {
		return fmt.Errorf("update pattern failed: %w", err)
	}
	return requirePatternRow(res, string(p.ID))
}

func (r *PatternRepositoryImpl) Delete(ctx context.Context, id model.PatternID, userID model.UserID) error {
	res, err := r.getDB(ctx).ExecContext(ctx,
		"DELETE FROM recurring_patterns WHERE id = ? AND user_id = ?", string(id), string(userID))
	if err != nil {
		return fmt.Errorf("delete pattern failed: %w", err)
	}
	return requirePatternRow(res, string(id))
}

func requirePatternRow(res sql.Result, id string) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected failed: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("pattern %s: %w", id, repository.ErrNotFound)
	}
	return nil
}

func patternArgs(p *pattern.RecurringPattern) ([]interface{}, error) {
	ruleJSON, err := json.Marshal(p.Rule)
	if err != nil {
		return nil, fmt.Errorf("marshal rule failed: %w", err)
	}
	exceptionsJSON, err := json.Marshal(p.Exceptions)
	if err != nil {
		return nil, fmt.Errorf("marshal exceptions failed: %w", err)
	}

	return []interface{}{
		string(p.ID), string(p.UserID), p.Title, p.Description, string(p.CategoryID),
		string(p.Priority.Letter), p.Priority.Number,
		string(ruleJSON), string(exceptionsJSON), formatDate(p.GeneratedUntil),
		p.Active, formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
	}, nil
}

func scanPattern(row rowScanner) (*pattern.RecurringPattern, error) {
	var (
		id, userID, title, description, categoryID string
		letter                                     string
		number                                     int
		ruleJSON, exceptionsJSON, generatedUntil   string
		active                                     bool
		createdAt, updatedAt                       string
	)

	err := row.Scan(
		&id, &userID, &title, &description, &categoryID,
		&letter, &number, &ruleJSON, &exceptionsJSON, &generatedUntil,
		&active, &createdAt, &updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan pattern failed: %w", err)
	}

	p := &pattern.RecurringPattern{
		ID:          model.PatternID(id),
		UserID:      model.UserID(userID),
		Title:       title,
		Description: description,
		CategoryID:  model.CategoryID(categoryID),
		Priority:    model.Priority{Letter: model.PriorityLetter(letter), Number: number},
		Active:      active,
	}

	if err := json.Unmarshal([]byte(ruleJSON), &p.Rule); err != nil {
		return nil, fmt.Errorf("unmarshal rule failed: %w", err)
	}
	if err := json.Unmarshal([]byte(exceptionsJSON), &p.Exceptions); err != nil {
		return nil, fmt.Errorf("unmarshal exceptions failed: %w", err)
	}
	if p.GeneratedUntil, err = parseDate(generatedUntil); err != nil {
		return nil, fmt.Errorf("parse generated_until failed: %w", err)
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at failed: %w", err)
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at failed: %w", err)
	}
	return p, nil
}
