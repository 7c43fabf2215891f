// Package transaction provides context-scoped SQLite transactions so
// repositories can join an ambient transaction without knowing about it.
package transaction

import (
	"context"
	"database/sql"
	"fmt"
)

// Manager runs functions inside SQLite transactions.
type Manager struct {
	db *sql.DB
}

func NewManager(db *sql.DB) *Manager {
	return &Manager{db: db}
}

// InTransaction executes fn within a transaction. Repositories called with
// the derived context execute against the same transaction; any error
// rolls everything back.
func (m *Manager) InTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction failed: %w", err)
	}

	txCtx := context.WithValue(ctx, txKey{}, tx)
	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit failed: %w", err)
	}
	return nil
}

// txKey is used as a key for storing the transaction in context.
type txKey struct{}

// GetTxFromContext retrieves the ambient transaction, if any.
func GetTxFromContext(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(*sql.Tx)
	return tx, ok
}
