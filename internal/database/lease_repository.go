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

const leaseColumns = `id, resource_id, user_id, created_by, start_date, end_date,
	monthly_rent, deposit_amount, terms_and_conditions, status, decided_by,
	decided_at, created_at, updated_at`

// LeaseRepository handles lease contract database operations
type LeaseRepository struct {
	db DB
}

// NewLeaseRepository creates a new lease repository
func NewLeaseRepository(db DB) *LeaseRepository {
	return &LeaseRepository{db: db}
}

// Create inserts a new lease contract
func (r *LeaseRepository) Create(ctx context.Context, l *models.LeaseContract) error {
	query := `
		INSERT INTO lease_contracts (
			id, resource_id, user_id, created_by, start_date, end_date,
			monthly_rent, deposit_amount, terms_and_conditions, status,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		l.ID, l.ResourceID, l.UserID, l.CreatedBy, l.StartDate, l.EndDate,
		l.MonthlyRent, l.DepositAmount, l.TermsAndConditions, l.Status,
		l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create lease: %w", err)
	}
	return nil
}

// GetByID retrieves a lease contract by ID
func (r *LeaseRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.LeaseContract, error) {
	var l models.LeaseContract
	query := `SELECT ` + leaseColumns + ` FROM lease_contracts WHERE id = $1`
	if err := sqlx.GetContext(ctx, conn(ctx, r.db), &l, query, id); err != nil {
		return nil, notFound(err, "lease")
	}
	return &l, nil
}

// List returns lease contracts newest first
func (r *LeaseRepository) List(ctx context.Context, f models.LeaseFilter) ([]models.LeaseContract, error) {
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
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		conditions = append(conditions, fmt.Sprintf("status = ANY($%d)", argCount))
		args = append(args, pq.Array(statuses))
	}

	query := `SELECT ` + leaseColumns + ` FROM lease_contracts`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY created_at DESC`

	leases := []models.LeaseContract{}
	if err := sqlx.SelectContext(ctx, conn(ctx, r.db), &leases, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list leases: %w", err)
	}
	return leases, nil
}

// FindOverlapping returns leases on resourceID in status whose date range
// intersects iv, excluding the lease with ID exclude.
func (r *LeaseRepository) FindOverlapping(ctx context.Context, resourceID uuid.UUID, iv conflict.Interval, status models.LeaseStatus, exclude uuid.UUID) ([]models.LeaseContract, error) {
	query := `SELECT ` + leaseColumns + ` FROM lease_contracts
		WHERE resource_id = $1
		  AND status = $2
		  AND start_date < $3
		  AND end_date > $4
		  AND id <> $5
		ORDER BY start_date`

	leases := []models.LeaseContract{}
	err := sqlx.SelectContext(ctx, conn(ctx, r.db), &leases, query,
		resourceID, status, models.NewDate(iv.End), models.NewDate(iv.Start), exclude,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query overlapping leases: %w", err)
	}
	return leases, nil
}

// UpdateStatus moves a lease from `from` to `to` and reports whether a row changed
func (r *LeaseRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from models.LeaseStatus, to models.LeaseStatus, actor uuid.UUID, at time.Time) (bool, error) {
	query := `
		UPDATE lease_contracts
		SET status = $1, decided_by = $2, decided_at = $3, updated_at = $3
		WHERE id = $4 AND status = $5
	`
	result, err := conn(ctx, r.db).ExecContext(ctx, query, to, actor, at, id, from)
	if err != nil {
		if isExclusionViolation(err) {
			return false, fmt.Errorf("%w: lease overlaps an existing reservation", apperr.ErrConflict)
		}
		return false, fmt.Errorf("failed to update lease status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows == 1, nil
}

// CountByStatus groups lease contracts by status
func (r *LeaseRepository) CountByStatus(ctx context.Context) ([]models.StatusCount, error) {
	counts := []models.StatusCount{}
	query := `SELECT status, COUNT(*) AS count FROM lease_contracts GROUP BY status`
	if err := sqlx.SelectContext(ctx, conn(ctx, r.db), &counts, query); err != nil {
		return nil, fmt.Errorf("failed to count leases: %w", err)
	}
	return counts, nil
}

// ActiveTotals sums monthly rent and deposits of active leases
func (r *LeaseRepository) ActiveTotals(ctx context.Context) (rent float64, deposits float64, err error) {
	var totals struct {
		Rent     float64 `db:"rent"`
		Deposits float64 `db:"deposits"`
	}
	query := `
		SELECT COALESCE(SUM(monthly_rent), 0) AS rent, COALESCE(SUM(deposit_amount), 0) AS deposits
		FROM lease_contracts
		WHERE status = $1
	`
	if err := sqlx.GetContext(ctx, conn(ctx, r.db), &totals, query, models.LeaseStatusActive); err != nil {
		return 0, 0, fmt.Errorf("failed to total active leases: %w", err)
	}
	return totals.Rent, totals.Deposits, nil
}
