package database

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	var sawTx bool
	err := NewTxManager(db).WithTx(context.Background(), func(ctx context.Context) error {
		_, sawTx = ctx.Value(txKey{}).(*sql.Tx)
		return nil
	})

	assert.NoError(t, err)
	assert.True(t, sawTx, "transaction should be placed in the context")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	err := NewTxManager(db).WithTx(context.Background(), func(ctx context.Context) error {
		return assert.AnError
	})

	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_BeginFailure(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin().WillReturnError(assert.AnError)

	err := NewTxManager(db).WithTx(context.Background(), func(ctx context.Context) error {
		t.Fatal("fn must not run when the transaction cannot start")
		return nil
	})

	assert.ErrorContains(t, err, "begin transaction")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_RollbackFailureJoinsErrors(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback().WillReturnError(sql.ErrConnDone)

	err := NewTxManager(db).WithTx(context.Background(), func(ctx context.Context) error {
		return assert.AnError
	})

	assert.ErrorIs(t, err, assert.AnError)
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolve(t *testing.T) {
	db, mock := newMockDB(t)

	t.Run("outside a transaction it returns the pool", func(t *testing.T) {
		querier := Resolve(context.Background(), db)
		assert.Equal(t, db, querier)
	})

	t.Run("inside a transaction it returns the tx", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectCommit()

		err := NewTxManager(db).WithTx(context.Background(), func(ctx context.Context) error {
			querier := Resolve(ctx, db)
			assert.IsType(t, &sql.Tx{}, querier)
			return nil
		})
		assert.NoError(t, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
