package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/deskhub/facility-backend/internal/apperr"
	"github.com/deskhub/facility-backend/internal/conflict"
	"github.com/deskhub/facility-backend/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const bookingColumns = `id, resource_id, user_id, start_time, end_time, status, notes,
	decided_by, decided_at, created_at, updated_at`

// BookingRepository handles booking database operations
type BookingRepository struct {
	db DB
}

// NewBookingRepository creates a new booking repository
func NewBookingRepository(db DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// Create inserts a new booking
func (r *BookingRepository) Create(ctx context.Context, b *models.Booking) error {
	query := `
		INSERT INTO bookings (
			id, resource_id, user_id, start_time, end_time, status, notes,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		b.ID, b.ResourceID, b.UserID, b.StartTime, b.EndTime, b.Status, b.Notes,
		b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

// GetByID retrieves a booking by ID
func (r *BookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var b models.Booking
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	if err := sqlx.GetContext(ctx, conn(ctx, r.db), &b, query, id); err != nil {
		return nil, notFound(err, "booking")
	}
	return &b, nil
}

// List returns bookings newest first
func (r *BookingRepository) List(ctx context.Context, f models.BookingFilter) ([]models.Booking, error) {
	conditions := []string{}
	args := []interface{}{}
	argCount := 1

	if f.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", argCount))
		args = append(args, *f.UserID)
		argCount++
	}
	if f.ResourceID != nil {
		conditions = append(conditions, fmt.Sprintf("resource_id = $%d", argCount))
		args = append(args, *f.ResourceID)
		argCount++
	}
	if len(f.Statuses) > 0 {
		conditions = append(conditions, fmt.Sprintf("status = ANY($%d)", argCount))
		args = append(args, pq.Array(bookingStatusStrings(f.Statuses)))
		argCount++
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY created_at DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argCount)
		args = append(args, f.Limit)
	}

	bookings := []models.Booking{}
	if err := sqlx.SelectContext(ctx, conn(ctx, r.db), &bookings, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

// FindOverlapping returns bookings on resourceID in status whose window
// intersects iv, excluding the booking with ID exclude.
func (r *BookingRepository) FindOverlapping(ctx context.Context, resourceID uuid.UUID, iv conflict.Interval, status models.BookingStatus, exclude uuid.UUID) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
		WHERE resource_id = $1
		  AND status = $2
		  AND start_time < $3
		  AND end_time > $4
		  AND id <> $5
		ORDER BY start_time`

	bookings := []models.Booking{}
	err := sqlx.SelectContext(ctx, conn(ctx, r.db), &bookings, query,
		resourceID, status, iv.End, iv.Start, exclude,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query overlapping bookings: %w", err)
	}
	return bookings, nil
}

// UpdateStatus moves a booking to status `to` only while it is in one of
// `from`. It reports false when no row was in an eligible state.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from []models.BookingStatus, to models.BookingStatus, actor uuid.UUID, at time.Time) (bool, error) {
	query := `
		UPDATE bookings
		SET status = $1, decided_by = $2, decided_at = $3, updated_at = $3
		WHERE id = $4 AND status = ANY($5)
	`
	result, err := conn(ctx, r.db).ExecContext(ctx, query,
		to, actor, at, id, pq.Array(bookingStatusStrings(from)),
	)
	if err != nil {
		if isExclusionViolation(err) {
			return false, fmt.Errorf("%w: booking overlaps an existing reservation", apperr.ErrConflict)
		}
		return false, fmt.Errorf("failed to update booking status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows == 1, nil
}

// Upcoming returns approved bookings on a resource starting at or after from
func (r *BookingRepository) Upcoming(ctx context.Context, resourceID uuid.UUID, from time.Time, limit int) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
		WHERE resource_id = $1 AND status = $2 AND start_time >= $3
		ORDER BY start_time
		LIMIT $4`

	bookings := []models.Booking{}
	err := sqlx.SelectContext(ctx, conn(ctx, r.db), &bookings, query,
		resourceID, models.BookingStatusApproved, from, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get upcoming bookings: %w", err)
	}
	return bookings, nil
}

// CountByStatus groups bookings by status
func (r *BookingRepository) CountByStatus(ctx context.Context) ([]models.StatusCount, error) {
	counts := []models.StatusCount{}
	query := `SELECT status, COUNT(*) AS count FROM bookings GROUP BY status`
	if err := sqlx.SelectContext(ctx, conn(ctx, r.db), &counts, query); err != nil {
		return nil, fmt.Errorf("failed to count bookings: %w", err)
	}
	return counts, nil
}

// ApprovedTotals sums billable hours and hourly revenue over approved bookings
func (r *BookingRepository) ApprovedTotals(ctx context.Context) (hours float64, revenue float64, err error) {
	var totals struct {
		Hours   float64 `db:"hours"`
		Revenue float64 `db:"revenue"`
	}
	query := `
		SELECT
			COALESCE(SUM(EXTRACT(EPOCH FROM (b.end_time - b.start_time)) / 3600), 0) AS hours,
			COALESCE(SUM(EXTRACT(EPOCH FROM (b.end_time - b.start_time)) / 3600 * r.price_per_hour), 0) AS revenue
		FROM bookings b
		JOIN resources r ON r.id = b.resource_id
		WHERE b.status = $1
	`
	if err := sqlx.GetContext(ctx, conn(ctx, r.db), &totals, query, models.BookingStatusApproved); err != nil {
		return 0, 0, fmt.Errorf("failed to total approved bookings: %w", err)
	}
	return totals.Hours, totals.Revenue, nil
}

func bookingStatusStrings(statuses []models.BookingStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
