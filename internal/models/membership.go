package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/deskhub/facility-backend/internal/apperr"
	"github.com/deskhub/facility-backend/internal/conflict"
	"github.com/google/uuid"
)

// AccessLevel is the tier granted by a membership plan
type AccessLevel string

const (
	AccessLevelBasic    AccessLevel = "basic"
	AccessLevelStandard AccessLevel = "standard"
	AccessLevelPremium  AccessLevel = "premium"
)

// ParseAccessLevel validates an access level name
func ParseAccessLevel(s string) (AccessLevel, error) {
	l := AccessLevel(strings.ToLower(strings.TrimSpace(s)))
	switch l {
	case AccessLevelBasic, AccessLevelStandard, AccessLevelPremium:
		return l, nil
	}
	return "", fmt.Errorf("%w: unknown access level %q", apperr.ErrInvalidInput, s)
}

// MembershipPlan is a purchasable membership tier
type MembershipPlan struct {
	ID           uuid.UUID   `json:"id" db:"id"`
	Name         string      `json:"name" db:"name"`
	Description  string      `json:"description" db:"description"`
	Price        float64     `json:"price" db:"price"`
	DurationDays int         `json:"duration_days" db:"duration_days"`
	AccessLevel  AccessLevel `json:"access_level" db:"access_level"`
	IsActive     bool        `json:"is_active" db:"is_active"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"`
}

// Subscription ties a user to a membership plan for a date range
type Subscription struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	PlanID    uuid.UUID `json:"plan_id" db:"plan_id"`
	StartDate Date      `json:"start_date" db:"start_date"`
	EndDate   Date      `json:"end_date" db:"end_date"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsCurrentlyActive reports whether the subscription is active and has not
// ended before today.
func (s *Subscription) IsCurrentlyActive(today time.Time) bool {
	return s.IsActive && !s.EndDate.Before(today)
}

// Interval returns the half-open date range of the subscription
func (s *Subscription) Interval() conflict.Interval {
	return conflict.Interval{Start: s.StartDate.Time, End: s.EndDate.Time}
}

// CreatePlanRequest represents the request to add a membership plan
type CreatePlanRequest struct {
	Name         string  `json:"name" binding:"required,max=100"`
	Description  string  `json:"description"`
	Price        float64 `json:"price" binding:"min=0"`
	DurationDays int     `json:"duration_days" binding:"required,min=1"`
	AccessLevel  string  `json:"access_level" binding:"required"`
	IsActive     *bool   `json:"is_active,omitempty"`
}

// UpdatePlanRequest represents a partial plan update
type UpdatePlanRequest struct {
	Name         *string  `json:"name,omitempty" binding:"omitempty,max=100"`
	Description  *string  `json:"description,omitempty"`
	Price        *float64 `json:"price,omitempty" binding:"omitempty,min=0"`
	DurationDays *int     `json:"duration_days,omitempty" binding:"omitempty,min=1"`
	AccessLevel  *string  `json:"access_level,omitempty"`
	IsActive     *bool    `json:"is_active,omitempty"`
}

// CreateSubscriptionRequest represents the request to subscribe to a plan.
// EndDate defaults to StartDate plus the plan duration.
type CreateSubscriptionRequest struct {
	PlanID    string `json:"plan_id" binding:"required,uuid"`
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date,omitempty"`
}
