package database

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/deskhub/facility-backend/internal/apperr"
	"github.com/deskhub/facility-backend/internal/models"
	"github.com/deskhub/facility-backend/internal/policy"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

var userRowColumns = []string{
	"id", "username", "email", "first_name", "last_name", "password_hash",
	"last_login_at", "created_at", "updated_at",
}

func TestUserRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	now := time.Now()

	t.Run("Success", func(t *testing.T) {
		u := &models.User{ID: uuid.New(), Username: "alice", Email: "alice@example.com", PasswordHash: "hash", CreatedAt: now, UpdatedAt: now}

		mock.ExpectExec(`INSERT INTO users`).
			WithArgs(sqlmock.AnyArg(), "alice", "alice@example.com", "", "", "hash", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		require.NoError(t, repo.Create(ctx, u))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Duplicate Username", func(t *testing.T) {
		u := &models.User{ID: uuid.New(), Username: "alice"}

		mock.ExpectExec(`INSERT INTO users`).
			WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})

		err := repo.Create(ctx, u)
		assert.ErrorIs(t, err, apperr.ErrUsernameTaken)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO users`).WillReturnError(fmt.Errorf("database error"))

		err := repo.Create(ctx, &models.User{ID: uuid.New(), Username: "bob"})
		require.Error(t, err)
		assert.NotErrorIs(t, err, apperr.ErrUsernameTaken)
		assert.Contains(t, err.Error(), "failed to create user")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_GetByUsername(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	t.Run("Found", func(t *testing.T) {
		id := uuid.New()
		now := time.Now()
		mock.ExpectQuery(`SELECT (.+) FROM users WHERE username = \$1`).
			WithArgs("alice").
			WillReturnRows(sqlmock.NewRows(userRowColumns).
				AddRow(id, "alice", "a@example.com", "Alice", "Smith", "hash", nil, now, now))

		u, err := repo.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, id, u.ID)
		assert.Equal(t, "Alice Smith", u.FullName())
		assert.Nil(t, u.LastLoginAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM users WHERE username = \$1`).
			WithArgs("ghost").
			WillReturnError(sql.ErrNoRows)

		u, err := repo.GetByUsername(ctx, "ghost")
		assert.Nil(t, u)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_Update_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(`UPDATE users`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.User{ID: uuid.New()})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepository_EnsureDefault(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProfileRepository(db)
	now := time.Now()
	userID := uuid.New()

	// The insert is a no-op when a staff profile already exists; the stored row wins.
	mock.ExpectExec(`INSERT INTO user_profiles (.+) ON CONFLICT \(user_id\) DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT (.+) FROM user_profiles WHERE user_id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{
			"user_id", "role", "account_status", "phone_number", "address",
			"company_name", "profile_picture_url", "created_at", "updated_at",
		}).AddRow(userID, "staff", "active", "", "", "", "", now, now))

	p, err := repo.EnsureDefault(context.Background(), models.DefaultProfile(userID, now))
	require.NoError(t, err)
	assert.Equal(t, policy.RoleStaff, p.Role)
	assert.Equal(t, models.AccountStatusActive, p.AccountStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepository_SetStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProfileRepository(db)
	ctx := context.Background()

	mock.ExpectExec(`UPDATE user_profiles SET account_status`).
		WithArgs("suspended", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.SetStatus(ctx, uuid.New(), models.AccountStatusSuspended, time.Now()))

	mock.ExpectExec(`UPDATE user_profiles SET account_status`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.SetStatus(ctx, uuid.New(), models.AccountStatusActive, time.Now()), apperr.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}
