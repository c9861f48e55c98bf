package models

import "time"

// Known setting keys
const (
	SettingRejectUnavailableResources = "booking_reject_unavailable_resources"
	SettingUpcomingBookingsLimit      = "resource_upcoming_bookings_limit"
)

// SystemSetting is an admin-editable key/value pair
type SystemSetting struct {
	SettingKey   string    `json:"setting_key" db:"setting_key"`
	SettingValue string    `json:"setting_value" db:"setting_value"`
	Description  *string   `json:"description,omitempty" db:"description"`
	UpdatedBy    *string   `json:"updated_by,omitempty" db:"updated_by"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// UpdateSystemSettingRequest represents the request to update a system setting
type UpdateSystemSettingRequest struct {
	SettingValue string  `json:"setting_value" binding:"required"`
	Description  *string `json:"description,omitempty"`
}
