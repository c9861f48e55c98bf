package models

import "github.com/deskhub/facility-backend/internal/policy"

// Dashboard is the landing view of an authenticated user
type Dashboard struct {
	Profile            *Profile      `json:"profile"`
	RecentBookings     []Booking     `json:"recent_bookings"`
	ActiveSubscription *Subscription `json:"active_subscription"`
	// Staff and admin only
	PendingBookings      *int `json:"pending_bookings,omitempty"`
	ActiveLeases         *int `json:"active_leases,omitempty"`
	MaintenanceResources *int `json:"maintenance_resources,omitempty"`
}

// SummaryReport is the operational overview shown to staff
type SummaryReport struct {
	BookingsByStatus      map[BookingStatus]int  `json:"bookings_by_status"`
	LeasesByStatus        map[LeaseStatus]int    `json:"leases_by_status"`
	ResourcesByStatus     map[ResourceStatus]int `json:"resources_by_status"`
	ActiveSubscriptions   int                    `json:"active_subscriptions"`
	UsersByRole           map[policy.Role]int    `json:"users_by_role"`
	SuspendedUsers        int                    `json:"suspended_users"`
	UpcomingApprovedCount int                    `json:"upcoming_approved_bookings"`
}

// FinancialReport aggregates expected revenue
type FinancialReport struct {
	ApprovedBookingRevenue    float64 `json:"approved_booking_revenue"`
	ApprovedBookingHours      float64 `json:"approved_booking_hours"`
	ActiveLeaseMonthlyRevenue float64 `json:"active_lease_monthly_revenue"`
	ActiveLeaseDeposits       float64 `json:"active_lease_deposits"`
	ActiveSubscriptionRevenue float64 `json:"active_subscription_revenue"`
}

// StatusCount is one row of a GROUP BY status query
type StatusCount struct {
	Status string `db:"status"`
	Count  int    `db:"count"`
}
