package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type txKey struct{}

// Querier is the subset of *sql.DB and *sql.Tx the repositories use. It
// lets repository methods run unchanged inside or outside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxManager runs a function inside a database transaction.
type TxManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type sqlTxManager struct {
	db *sql.DB
}

// NewTxManager wraps db in a TxManager.
func NewTxManager(db *sql.DB) TxManager {
	return &sqlTxManager{db: db}
}

// WithTx begins a transaction, stores it in the context for Resolve, and
// commits when fn returns nil. A rollback failure is reported alongside
// the original error rather than masking it.
func (m *sqlTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback transaction: %w", rbErr))
		}
		return err
	}

	return tx.Commit()
}

// Resolve returns the transaction carried by ctx, or db when the caller is
// running outside WithTx.
func Resolve(ctx context.Context, db *sql.DB) Querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return db
}
