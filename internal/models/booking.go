package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/deskhub/facility-backend/internal/apperr"
	"github.com/deskhub/facility-backend/internal/conflict"
	"github.com/google/uuid"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusApproved  BookingStatus = "approved"
	BookingStatusRejected  BookingStatus = "rejected"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// ParseBookingStatus validates a booking status filter
func ParseBookingStatus(s string) (BookingStatus, error) {
	st := BookingStatus(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case BookingStatusPending, BookingStatusApproved, BookingStatusRejected, BookingStatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown booking status %q", apperr.ErrInvalidInput, s)
}

// Booking is a time-boxed reservation of a resource
type Booking struct {
	ID         uuid.UUID     `json:"id" db:"id"`
	ResourceID uuid.UUID     `json:"resource_id" db:"resource_id"`
	UserID     uuid.UUID     `json:"user_id" db:"user_id"`
	StartTime  time.Time     `json:"start_time" db:"start_time"`
	EndTime    time.Time     `json:"end_time" db:"end_time"`
	Status     BookingStatus `json:"status" db:"status"`
	Notes      string        `json:"notes" db:"notes"`
	DecidedBy  *uuid.UUID    `json:"decided_by,omitempty" db:"decided_by"`
	DecidedAt  *time.Time    `json:"decided_at,omitempty" db:"decided_at"`
	CreatedAt  time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at" db:"updated_at"`
}

// Interval returns the half-open window the booking occupies
func (b *Booking) Interval() conflict.Interval {
	return conflict.Interval{Start: b.StartTime, End: b.EndTime}
}

// Hours is the billable duration of the booking
func (b *Booking) Hours() float64 {
	return b.EndTime.Sub(b.StartTime).Hours()
}

// CreateBookingRequest represents the request to book a resource
type CreateBookingRequest struct {
	ResourceID string    `json:"resource_id" binding:"required,uuid"`
	StartTime  time.Time `json:"start_time" binding:"required"`
	EndTime    time.Time `json:"end_time" binding:"required"`
	Notes      string    `json:"notes" binding:"max=2000"`
	// Staff may book on behalf of another user
	UserID *string `json:"user_id,omitempty" binding:"omitempty,uuid"`
}
