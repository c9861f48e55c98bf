package database

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/deskhub/facility-backend/internal/apperr"
	"github.com/deskhub/facility-backend/internal/conflict"
	"github.com/deskhub/facility-backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bookingRowColumns = []string{
	"id", "resource_id", "user_id", "start_time", "end_time", "status", "notes",
	"decided_by", "decided_at", "created_at", "updated_at",
}

func TestBookingRepository_FindOverlapping(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)

	resourceID := uuid.New()
	start := time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	existing := uuid.New()

	// The candidate's end bounds stored starts and its start bounds stored ends.
	mock.ExpectQuery(`SELECT (.+) FROM bookings\s+WHERE resource_id = \$1\s+AND status = \$2\s+AND start_time < \$3\s+AND end_time > \$4\s+AND id <> \$5`).
		WithArgs(resourceID, "approved", end, start, uuid.Nil).
		WillReturnRows(sqlmock.NewRows(bookingRowColumns).
			AddRow(existing, resourceID, uuid.New(), start.Add(30*time.Minute), end.Add(30*time.Minute),
				"approved", "", nil, nil, start, start))

	got, err := repo.FindOverlapping(context.Background(), resourceID,
		conflict.Interval{Start: start, End: end}, models.BookingStatusApproved, uuid.Nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, existing, got[0].ID)
	assert.Equal(t, models.BookingStatusApproved, got[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepository_UpdateStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)
	ctx := context.Background()
	from := []models.BookingStatus{models.BookingStatusPending}

	t.Run("Transitioned", func(t *testing.T) {
		mock.ExpectExec(`UPDATE bookings\s+SET status = \$1`).
			WithArgs("approved", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), "{\"pending\"}").
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := repo.UpdateStatus(ctx, uuid.New(), from, models.BookingStatusApproved, uuid.New(), time.Now())
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("Not In Source State", func(t *testing.T) {
		mock.ExpectExec(`UPDATE bookings\s+SET status = \$1`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		ok, err := repo.UpdateStatus(ctx, uuid.New(), from, models.BookingStatusRejected, uuid.New(), time.Now())
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Exclusion Constraint", func(t *testing.T) {
		mock.ExpectExec(`UPDATE bookings\s+SET status = \$1`).
			WillReturnError(&pgconn.PgError{Code: "23P01"})

		ok, err := repo.UpdateStatus(ctx, uuid.New(), from, models.BookingStatusApproved, uuid.New(), time.Now())
		assert.ErrorIs(t, err, apperr.ErrConflict)
		assert.False(t, ok)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepository_List(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)
	userID := uuid.New()

	mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE user_id = \$1 AND status = ANY\(\$2\) ORDER BY created_at DESC LIMIT \$3`).
		WithArgs(userID, sqlmock.AnyArg(), 5).
		WillReturnRows(sqlmock.NewRows(bookingRowColumns))

	got, err := repo.List(context.Background(), models.BookingFilter{
		UserID:   &userID,
		Statuses: []models.BookingStatus{models.BookingStatusPending, models.BookingStatusApproved},
		Limit:    5,
	})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepository_GetByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)

	mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id = \$1`).WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeaseRepository_FindOverlapping_UsesDates(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLeaseRepository(db)

	resourceID := uuid.New()
	start := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2030, 2, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT (.+) FROM lease_contracts\s+WHERE resource_id = \$1\s+AND status = \$2\s+AND start_date < \$3\s+AND end_date > \$4`).
		WithArgs(resourceID, "active", end, start, uuid.Nil).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	got, err := repo.FindOverlapping(context.Background(), resourceID,
		conflict.Interval{Start: start, End: end}, models.LeaseStatusActive, uuid.Nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceRepository_LockForUpdate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewResourceRepository(db)
	id := uuid.New()

	mock.ExpectQuery(`SELECT id FROM resources WHERE id = \$1 FOR UPDATE`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id))
	require.NoError(t, repo.LockForUpdate(context.Background(), id))

	mock.ExpectQuery(`FOR UPDATE`).WillReturnError(sql.ErrNoRows)
	assert.ErrorIs(t, repo.LockForUpdate(context.Background(), uuid.New()), apperr.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}
