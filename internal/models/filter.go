package models

import "github.com/google/uuid"

// BookingFilter narrows booking listings. Zero values match everything.
type BookingFilter struct {
	UserID     *uuid.UUID
	ResourceID *uuid.UUID
	Statuses   []BookingStatus
	Limit      int
}

// LeaseFilter narrows lease listings. Zero values match everything.
type LeaseFilter struct {
	UserID     *uuid.UUID
	ResourceID *uuid.UUID
	Statuses   []LeaseStatus
}

// SubscriptionFilter narrows subscription listings
type SubscriptionFilter struct {
	UserID *uuid.UUID
}
