package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTxManager_RunInTx(t *testing.T) {
	t.Run("Commit", func(t *testing.T) {
		db, mock := newMockDB(t)
		tm := NewTxManager(db)
		resources := NewResourceRepository(db)
		id := uuid.New()

		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE`).WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id))
		mock.ExpectCommit()

		err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
			return resources.LockForUpdate(ctx, id)
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Rollback On Error", func(t *testing.T) {
		db, mock := newMockDB(t)
		tm := NewTxManager(db)
		boom := errors.New("boom")

		mock.ExpectBegin()
		mock.ExpectRollback()

		err := tm.RunInTx(context.Background(), func(ctx context.Context) error { return boom })
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Rollback On Panic", func(t *testing.T) {
		db, mock := newMockDB(t)
		tm := NewTxManager(db)

		mock.ExpectBegin()
		mock.ExpectRollback()

		assert.Panics(t, func() {
			_ = tm.RunInTx(context.Background(), func(ctx context.Context) error { panic("boom") })
		})
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Nested Joins Outer", func(t *testing.T) {
		db, mock := newMockDB(t)
		tm := NewTxManager(db)

		mock.ExpectBegin()
		mock.ExpectCommit()

		err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
			return tm.RunInTx(ctx, func(ctx context.Context) error { return nil })
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
