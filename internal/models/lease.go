package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/deskhub/facility-backend/internal/apperr"
	"github.com/deskhub/facility-backend/internal/conflict"
	"github.com/google/uuid"
)

// LeaseStatus represents the status of a lease contract
type LeaseStatus string

const (
	LeaseStatusPending    LeaseStatus = "pending"
	LeaseStatusActive     LeaseStatus = "active"
	LeaseStatusTerminated LeaseStatus = "terminated"
	LeaseStatusRejected   LeaseStatus = "rejected"
)

// ParseLeaseStatus validates a lease status filter
func ParseLeaseStatus(s string) (LeaseStatus, error) {
	st := LeaseStatus(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case LeaseStatusPending, LeaseStatusActive, LeaseStatusTerminated, LeaseStatusRejected:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown lease status %q", apperr.ErrInvalidInput, s)
}

// LeaseContract is a date-ranged lease of a resource
type LeaseContract struct {
	ID                 uuid.UUID   `json:"id" db:"id"`
	ResourceID         uuid.UUID   `json:"resource_id" db:"resource_id"`
	UserID             uuid.UUID   `json:"user_id" db:"user_id"`
	CreatedBy          uuid.UUID   `json:"created_by" db:"created_by"`
	StartDate          Date        `json:"start_date" db:"start_date"`
	EndDate            Date        `json:"end_date" db:"end_date"`
	MonthlyRent        float64     `json:"monthly_rent" db:"monthly_rent"`
	DepositAmount      float64     `json:"deposit_amount" db:"deposit_amount"`
	TermsAndConditions string      `json:"terms_and_conditions" db:"terms_and_conditions"`
	Status             LeaseStatus `json:"status" db:"status"`
	DecidedBy          *uuid.UUID  `json:"decided_by,omitempty" db:"decided_by"`
	DecidedAt          *time.Time  `json:"decided_at,omitempty" db:"decided_at"`
	CreatedAt          time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at" db:"updated_at"`
}

// Interval returns the half-open date range of the lease
func (l *LeaseContract) Interval() conflict.Interval {
	return conflict.Interval{Start: l.StartDate.Time, End: l.EndDate.Time}
}

// CreateLeaseRequest represents the request to draft a lease contract
type CreateLeaseRequest struct {
	ResourceID         string  `json:"resource_id" binding:"required,uuid"`
	UserID             *string `json:"user_id,omitempty" binding:"omitempty,uuid"`
	StartDate          string  `json:"start_date" binding:"required"`
	EndDate            string  `json:"end_date" binding:"required"`
	MonthlyRent        float64 `json:"monthly_rent" binding:"min=0"`
	DepositAmount      float64 `json:"deposit_amount" binding:"min=0"`
	TermsAndConditions string  `json:"terms_and_conditions"`
}
