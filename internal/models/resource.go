package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/deskhub/facility-backend/internal/apperr"
	"github.com/google/uuid"
)

// ResourceType classifies a bookable resource
type ResourceType string

const (
	ResourceTypeRoom      ResourceType = "room"
	ResourceTypeDesk      ResourceType = "desk"
	ResourceTypeOffice    ResourceType = "office"
	ResourceTypeEquipment ResourceType = "equipment"
	ResourceTypeOther     ResourceType = "other"
)

// ResourceStatus is the operational state of a resource
type ResourceStatus string

const (
	ResourceStatusAvailable   ResourceStatus = "available"
	ResourceStatusOccupied    ResourceStatus = "occupied"
	ResourceStatusMaintenance ResourceStatus = "maintenance"
	ResourceStatusUnavailable ResourceStatus = "unavailable"
)

// ParseResourceType validates a resource type name
func ParseResourceType(s string) (ResourceType, error) {
	t := ResourceType(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case ResourceTypeRoom, ResourceTypeDesk, ResourceTypeOffice, ResourceTypeEquipment, ResourceTypeOther:
		return t, nil
	}
	return "", fmt.Errorf("%w: unknown resource type %q", apperr.ErrInvalidInput, s)
}

// ParseResourceStatus validates a resource status name
func ParseResourceStatus(s string) (ResourceStatus, error) {
	st := ResourceStatus(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case ResourceStatusAvailable, ResourceStatusOccupied, ResourceStatusMaintenance, ResourceStatusUnavailable:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown resource status %q", apperr.ErrInvalidInput, s)
}

// Resource is a room, desk, office or piece of equipment that can be booked or leased
type Resource struct {
	ID           uuid.UUID      `json:"id" db:"id"`
	Name         string         `json:"name" db:"name"`
	Type         ResourceType   `json:"type" db:"type"`
	Description  string         `json:"description" db:"description"`
	Capacity     int            `json:"capacity" db:"capacity"`
	Location     string         `json:"location" db:"location"`
	Amenities    string         `json:"amenities" db:"amenities"`
	PricePerHour float64        `json:"price_per_hour" db:"price_per_hour"`
	MonthlyPrice *float64       `json:"monthly_price,omitempty" db:"monthly_price"`
	Status       ResourceStatus `json:"status" db:"status"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
}

// Bookable reports whether the resource accepts new requests when
// unavailable resources are rejected.
func (r *Resource) Bookable() bool {
	return r.Status != ResourceStatusMaintenance && r.Status != ResourceStatusUnavailable
}

// ResourceDetail is a resource with its next approved bookings
type ResourceDetail struct {
	Resource
	UpcomingBookings []Booking `json:"upcoming_bookings"`
}

// CreateResourceRequest represents the request to add a resource
type CreateResourceRequest struct {
	Name         string   `json:"name" binding:"required,max=200"`
	Type         string   `json:"type" binding:"required"`
	Description  string   `json:"description"`
	Capacity     int      `json:"capacity" binding:"required"`
	Location     string   `json:"location" binding:"max=200"`
	Amenities    string   `json:"amenities"`
	PricePerHour float64  `json:"price_per_hour" binding:"min=0"`
	MonthlyPrice *float64 `json:"monthly_price,omitempty" binding:"omitempty,min=0"`
	Status       string   `json:"status"`
}

// UpdateResourceRequest represents a partial resource update
type UpdateResourceRequest struct {
	Name         *string  `json:"name,omitempty" binding:"omitempty,max=200"`
	Type         *string  `json:"type,omitempty"`
	Description  *string  `json:"description,omitempty"`
	Capacity     *int     `json:"capacity,omitempty"`
	Location     *string  `json:"location,omitempty" binding:"omitempty,max=200"`
	Amenities    *string  `json:"amenities,omitempty"`
	PricePerHour *float64 `json:"price_per_hour,omitempty" binding:"omitempty,min=0"`
	MonthlyPrice *float64 `json:"monthly_price,omitempty" binding:"omitempty,min=0"`
	Status       *string  `json:"status,omitempty"`
}

// SetResourceStatusRequest changes only the status of a resource
type SetResourceStatusRequest struct {
	Status string `json:"status" binding:"required"`
}
