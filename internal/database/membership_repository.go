package database

import (
	"context"
	"fmt"
	"time"

	"github.com/deskhub/facility-backend/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const planColumns = `id, name, description, price, duration_days, access_level,
	is_active, created_at, updated_at`

const subscriptionColumns = `id, user_id, plan_id, start_date, end_date, is_active,
	created_at, updated_at`

// PlanRepository handles membership plan database operations
type PlanRepository struct {
	db DB
}

// NewPlanRepository creates a new plan repository
func NewPlanRepository(db DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// Create inserts a new plan
func (r *PlanRepository) Create(ctx context.Context, p *models.MembershipPlan) error {
	query := `
		INSERT INTO membership_plans (
			id, name, description, price, duration_days, access_level,
			is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		p.ID, p.Name, p.Description, p.Price, p.DurationDays, p.AccessLevel,
		p.IsActive, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create plan: %w", err)
	}
	return nil
}

// GetByID retrieves a plan by ID
func (r *PlanRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.MembershipPlan, error) {
	var p models.MembershipPlan
	query := `SELECT ` + planColumns + ` FROM membership_plans WHERE id = $1`
	if err := sqlx.GetContext(ctx, conn(ctx, r.db), &p, query, id); err != nil {
		return nil, notFound(err, "membership plan")
	}
	return &p, nil
}

// List returns plans ordered by price
func (r *PlanRepository) List(ctx context.Context, activeOnly bool) ([]models.MembershipPlan, error) {
	plans := []models.MembershipPlan{}
	query := `SELECT ` + planColumns + ` FROM membership_plans`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY price, name`

	if err := sqlx.SelectContext(ctx, conn(ctx, r.db), &plans, query); err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return plans, nil
}

// Update writes every mutable column of p
func (r *PlanRepository) Update(ctx context.Context, p *models.MembershipPlan) error {
	query := `
		UPDATE membership_plans
		SET name = $1, description = $2, price = $3, duration_days = $4,
		    access_level = $5, is_active = $6, updated_at = $7
		WHERE id = $8
	`
	result, err := conn(ctx, r.db).ExecContext(ctx, query,
		p.Name, p.Description, p.Price, p.DurationDays, p.AccessLevel, p.IsActive, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update plan: %w", err)
	}
	return expectOne(result, "membership plan")
}

// SubscriptionRepository handles subscription database operations
type SubscriptionRepository struct {
	db DB
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// Create inserts a new subscription
func (r *SubscriptionRepository) Create(ctx context.Context, s *models.Subscription) error {
	query := `
		INSERT INTO subscriptions (
			id, user_id, plan_id, start_date, end_date, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		s.ID, s.UserID, s.PlanID, s.StartDate, s.EndDate, s.IsActive, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	return nil
}

// GetByID retrieves a subscription by ID
func (r *SubscriptionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	var s models.Subscription
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = $1`
	if err := sqlx.GetContext(ctx, conn(ctx, r.db), &s, query, id); err != nil {
		return nil, notFound(err, "subscription")
	}
	return &s, nil
}

// List returns subscriptions newest first
func (r *SubscriptionRepository) List(ctx context.Context, f models.SubscriptionFilter) ([]models.Subscription, error) {
	subs := []models.Subscription{}
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions`
	args := []interface{}{}
	if f.UserID != nil {
		query += ` WHERE user_id = $1`
		args = append(args, *f.UserID)
	}
	query += ` ORDER BY created_at DESC`

	if err := sqlx.SelectContext(ctx, conn(ctx, r.db), &subs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return subs, nil
}

// FirstActive returns the earliest-ending currently active subscription of a user
func (r *SubscriptionRepository) FirstActive(ctx context.Context, userID uuid.UUID, today time.Time) (*models.Subscription, error) {
	var s models.Subscription
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions
		WHERE user_id = $1 AND is_active = TRUE AND end_date >= $2
		ORDER BY end_date, created_at
		LIMIT 1`
	if err := sqlx.GetContext(ctx, conn(ctx, r.db), &s, query, userID, models.NewDate(today)); err != nil {
		return nil, notFound(err, "subscription")
	}
	return &s, nil
}

// Deactivate clears is_active and reports whether the subscription was active
func (r *SubscriptionRepository) Deactivate(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	query := `UPDATE subscriptions SET is_active = FALSE, updated_at = $1 WHERE id = $2 AND is_active = TRUE`
	result, err := conn(ctx, r.db).ExecContext(ctx, query, at, id)
	if err != nil {
		return false, fmt.Errorf("failed to cancel subscription: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows == 1, nil
}

// ActiveTotals counts currently active subscriptions and sums their plan prices
func (r *SubscriptionRepository) ActiveTotals(ctx context.Context, today time.Time) (count int, revenue float64, err error) {
	var totals struct {
		Count   int     `db:"count"`
		Revenue float64 `db:"revenue"`
	}
	query := `
		SELECT COUNT(*) AS count, COALESCE(SUM(p.price), 0) AS revenue
		FROM subscriptions s
		JOIN membership_plans p ON p.id = s.plan_id
		WHERE s.is_active = TRUE AND s.end_date >= $1
	`
	if err := sqlx.GetContext(ctx, conn(ctx, r.db), &totals, query, models.NewDate(today)); err != nil {
		return 0, 0, fmt.Errorf("failed to total subscriptions: %w", err)
	}
	return totals.Count, totals.Revenue, nil
}
