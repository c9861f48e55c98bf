package database

import (
	"context"
	"fmt"
	"time"

	"github.com/deskhub/facility-backend/internal/models"
	"github.com/deskhub/facility-backend/internal/policy"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const profileColumns = `user_id, role, account_status, phone_number, address,
	company_name, profile_picture_url, created_at, updated_at`

// ProfileRepository handles user_profiles database operations
type ProfileRepository struct {
	db DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Get retrieves the profile of a user
func (r *ProfileRepository) Get(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	var p models.Profile
	query := `SELECT ` + profileColumns + ` FROM user_profiles WHERE user_id = $1`
	if err := sqlx.GetContext(ctx, conn(ctx, r.db), &p, query, userID); err != nil {
		return nil, notFound(err, "profile")
	}
	return &p, nil
}

// Create inserts a profile for a user that has none
func (r *ProfileRepository) Create(ctx context.Context, p *models.Profile) error {
	query := `
		INSERT INTO user_profiles (
			user_id, role, account_status, phone_number, address,
			company_name, profile_picture_url, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		p.UserID, p.Role, p.AccountStatus, p.PhoneNumber, p.Address,
		p.CompanyName, p.ProfilePictureURL, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

// EnsureDefault inserts p unless the user already has a profile, then
// returns whichever profile is stored. Concurrent callers converge on one row.
func (r *ProfileRepository) EnsureDefault(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	query := `
		INSERT INTO user_profiles (
			user_id, role, account_status, phone_number, address,
			company_name, profile_picture_url, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id) DO NOTHING
	`
	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		p.UserID, p.Role, p.AccountStatus, p.PhoneNumber, p.Address,
		p.CompanyName, p.ProfilePictureURL, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure profile: %w", err)
	}
	return r.Get(ctx, p.UserID)
}

// UpdateContact writes the self-editable profile fields
func (r *ProfileRepository) UpdateContact(ctx context.Context, p *models.Profile) error {
	query := `
		UPDATE user_profiles
		SET phone_number = $1, address = $2, company_name = $3,
		    profile_picture_url = $4, updated_at = $5
		WHERE user_id = $6
	`
	result, err := conn(ctx, r.db).ExecContext(ctx, query,
		p.PhoneNumber, p.Address, p.CompanyName, p.ProfilePictureURL, p.UpdatedAt, p.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return expectOne(result, "profile")
}

// SetRole changes the role of a user
func (r *ProfileRepository) SetRole(ctx context.Context, userID uuid.UUID, role policy.Role, at time.Time) error {
	query := `UPDATE user_profiles SET role = $1, updated_at = $2 WHERE user_id = $3`
	result, err := conn(ctx, r.db).ExecContext(ctx, query, role, at, userID)
	if err != nil {
		return fmt.Errorf("failed to set role: %w", err)
	}
	return expectOne(result, "profile")
}

// SetStatus suspends or reactivates a user
func (r *ProfileRepository) SetStatus(ctx context.Context, userID uuid.UUID, status models.AccountStatus, at time.Time) error {
	query := `UPDATE user_profiles SET account_status = $1, updated_at = $2 WHERE user_id = $3`
	result, err := conn(ctx, r.db).ExecContext(ctx, query, status, at, userID)
	if err != nil {
		return fmt.Errorf("failed to set account status: %w", err)
	}
	return expectOne(result, "profile")
}

// List returns every profile
func (r *ProfileRepository) List(ctx context.Context) ([]models.Profile, error) {
	profiles := []models.Profile{}
	query := `SELECT ` + profileColumns + ` FROM user_profiles`
	if err := sqlx.SelectContext(ctx, conn(ctx, r.db), &profiles, query); err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return profiles, nil
}
