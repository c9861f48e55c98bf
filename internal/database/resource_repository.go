package database

import (
	"context"
	"fmt"

	"github.com/deskhub/facility-backend/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const resourceColumns = `id, name, type, description, capacity, location, amenities,
	price_per_hour, monthly_price, status, created_at, updated_at`

// ResourceRepository handles resource inventory database operations
type ResourceRepository struct {
	db DB
}

// NewResourceRepository creates a new resource repository
func NewResourceRepository(db DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

// Create inserts a new resource
func (r *ResourceRepository) Create(ctx context.Context, res *models.Resource) error {
	query := `
		INSERT INTO resources (
			id, name, type, description, capacity, location, amenities,
			price_per_hour, monthly_price, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		res.ID, res.Name, res.Type, res.Description, res.Capacity, res.Location, res.Amenities,
		res.PricePerHour, res.MonthlyPrice, res.Status, res.CreatedAt, res.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}
	return nil
}

// GetByID retrieves a resource by ID
func (r *ResourceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Resource, error) {
	var res models.Resource
	query := `SELECT ` + resourceColumns + ` FROM resources WHERE id = $1`
	if err := sqlx.GetContext(ctx, conn(ctx, r.db), &res, query, id); err != nil {
		return nil, notFound(err, "resource")
	}
	return &res, nil
}

// List returns resources ordered by name, optionally restricted to one type
func (r *ResourceRepository) List(ctx context.Context, resourceType *models.ResourceType) ([]models.Resource, error) {
	resources := []models.Resource{}
	query := `SELECT ` + resourceColumns + ` FROM resources`
	args := []interface{}{}
	if resourceType != nil {
		query += ` WHERE type = $1`
		args = append(args, *resourceType)
	}
	query += ` ORDER BY name`

	if err := sqlx.SelectContext(ctx, conn(ctx, r.db), &resources, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list resources: %w", err)
	}
	return resources, nil
}

// Update writes every mutable column of res
func (r *ResourceRepository) Update(ctx context.Context, res *models.Resource) error {
	query := `
		UPDATE resources
		SET name = $1, type = $2, description = $3, capacity = $4, location = $5,
		    amenities = $6, price_per_hour = $7, monthly_price = $8, status = $9,
		    updated_at = $10
		WHERE id = $11
	`
	result, err := conn(ctx, r.db).ExecContext(ctx, query,
		res.Name, res.Type, res.Description, res.Capacity, res.Location,
		res.Amenities, res.PricePerHour, res.MonthlyPrice, res.Status,
		res.UpdatedAt, res.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update resource: %w", err)
	}
	return expectOne(result, "resource")
}

// LockForUpdate takes a row lock on the resource for the rest of the
// surrounding transaction. Admissions on the same resource serialize on it.
func (r *ResourceRepository) LockForUpdate(ctx context.Context, id uuid.UUID) error {
	var locked uuid.UUID
	query := `SELECT id FROM resources WHERE id = $1 FOR UPDATE`
	if err := sqlx.GetContext(ctx, conn(ctx, r.db), &locked, query, id); err != nil {
		return notFound(err, "resource")
	}
	return nil
}

// CountByStatus groups resources by status
func (r *ResourceRepository) CountByStatus(ctx context.Context) ([]models.StatusCount, error) {
	counts := []models.StatusCount{}
	query := `SELECT status, COUNT(*) AS count FROM resources GROUP BY status`
	if err := sqlx.SelectContext(ctx, conn(ctx, r.db), &counts, query); err != nil {
		return nil, fmt.Errorf("failed to count resources: %w", err)
	}
	return counts, nil
}
