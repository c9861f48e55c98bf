// Package policy is the single authorization table for the application.
// Every service operation calls Authorize (or AuthorizeOwnerOr) before it
// touches the store.
package policy

import (
	"fmt"
	"strings"

	"github.com/deskhub/facility-backend/internal/apperr"
	"github.com/google/uuid"
)

// Role is the closed set of roles a profile can carry.
type Role string

const (
	RoleMember Role = "member"
	RoleStaff  Role = "staff"
	RoleAdmin  Role = "admin"
)

// Roles lists every valid role, lowest privilege first.
var Roles = []Role{RoleMember, RoleStaff, RoleAdmin}

// ParseRole validates a role name.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case RoleMember, RoleStaff, RoleAdmin:
		return r, nil
	}
	return "", fmt.Errorf("%w: unknown role %q", apperr.ErrInvalidInput, s)
}

// Action names a capability checked by the policy table.
type Action string

const (
	// Any profile
	AccessDashboard           Action = "access_dashboard"
	ViewOwnData               Action = "view_own_data"
	EditOwnProfile            Action = "edit_own_profile"
	ViewResources             Action = "view_resources"
	CreateBooking             Action = "create_booking"
	CancelOwnBooking          Action = "cancel_own_booking"
	CreateLeaseRequest        Action = "create_lease_request"
	CreateSubscription        Action = "create_subscription"
	CancelOwnSubscription     Action = "cancel_own_subscription"
	ViewActiveMembershipPlans Action = "view_active_membership_plans"

	// Staff and admin
	ManageBookings        Action = "manage_bookings"
	ApproveBookings       Action = "approve_bookings"
	ViewAllBookings       Action = "view_all_bookings"
	CancelAnyBooking      Action = "cancel_any_booking"
	ManageResources       Action = "manage_resources"
	SetResourceStatus     Action = "set_resource_status"
	AssignResources       Action = "assign_resources"
	ManageLeases          Action = "manage_leases"
	ApproveLeases         Action = "approve_leases"
	ViewAllLeases         Action = "view_all_leases"
	ManageSubscriptions   Action = "manage_subscriptions"
	ViewAllSubscriptions  Action = "view_all_subscriptions"
	CancelAnySubscription Action = "cancel_any_subscription"
	ViewReports           Action = "view_reports"
	ViewAllProfiles       Action = "view_all_profiles"

	// Admin only
	TerminateLeases       Action = "terminate_leases"
	SuspendUsers          Action = "suspend_users"
	ManageMembershipPlans Action = "manage_membership_plans"
	ManageSystemSettings  Action = "manage_system_settings"
	ExportData            Action = "export_data"
	ViewFinancialReports  Action = "view_financial_reports"
	ManageAllProfiles     Action = "manage_all_profiles"
	AccessAdminPanel      Action = "access_admin_panel"
)

var (
	everyone   = []Role{RoleMember, RoleStaff, RoleAdmin}
	supervisor = []Role{RoleStaff, RoleAdmin}
	adminOnly  = []Role{RoleAdmin}
)

var table = map[Action][]Role{
	AccessDashboard:           everyone,
	ViewOwnData:               everyone,
	EditOwnProfile:            everyone,
	ViewResources:             everyone,
	CreateBooking:             everyone,
	CancelOwnBooking:          everyone,
	CreateLeaseRequest:        everyone,
	CreateSubscription:        everyone,
	CancelOwnSubscription:     everyone,
	ViewActiveMembershipPlans: everyone,

	ManageBookings:        supervisor,
	ApproveBookings:       supervisor,
	ViewAllBookings:       supervisor,
	CancelAnyBooking:      supervisor,
	ManageResources:       supervisor,
	SetResourceStatus:     supervisor,
	AssignResources:       supervisor,
	ManageLeases:          supervisor,
	ApproveLeases:         supervisor,
	ViewAllLeases:         supervisor,
	ManageSubscriptions:   supervisor,
	ViewAllSubscriptions:  supervisor,
	CancelAnySubscription: supervisor,
	ViewReports:           supervisor,
	ViewAllProfiles:       supervisor,

	TerminateLeases:       adminOnly,
	SuspendUsers:          adminOnly,
	ManageMembershipPlans: adminOnly,
	ManageSystemSettings:  adminOnly,
	ExportData:            adminOnly,
	ViewFinancialReports:  adminOnly,
	ManageAllProfiles:     adminOnly,
	AccessAdminPanel:      adminOnly,
}

// AllowedRoles returns the roles granted an action. Unknown actions grant nothing.
func AllowedRoles(a Action) []Role {
	return table[a]
}

// Principal is an authenticated user together with the state of its profile.
type Principal struct {
	UserID     uuid.UUID
	Username   string
	Role       Role
	HasProfile bool
	Suspended  bool
}

// Authenticated reports whether the principal carries a user identity.
func (p Principal) Authenticated() bool {
	return p.UserID != uuid.Nil
}

// HasRole reports whether the principal's profile holds one of roles.
func (p Principal) HasRole(roles ...Role) bool {
	if !p.HasProfile {
		return false
	}
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

// Can is the boolean form of Authorize.
func Can(p Principal, a Action) bool {
	return Authorize(p, a) == nil
}

// Authorize returns nil when p may perform a, otherwise a wrapped
// apperr.ErrUnauthenticated, apperr.ErrProfileNotFound or
// apperr.ErrPermissionDenied.
func Authorize(p Principal, a Action) error {
	if !p.Authenticated() {
		return apperr.ErrUnauthenticated
	}
	if !p.HasProfile {
		return apperr.ErrProfileNotFound
	}
	if p.Suspended {
		return fmt.Errorf("%w: account is suspended", apperr.ErrPermissionDenied)
	}
	if !p.HasRole(table[a]...) {
		return fmt.Errorf("%w: %s not allowed for role %s", apperr.ErrPermissionDenied, a, p.Role)
	}
	return nil
}

// IsOwnerOrRole is true when p owns the object or holds one of elevated.
func IsOwnerOrRole(p Principal, ownerID uuid.UUID, elevated ...Role) bool {
	if p.Authenticated() && p.UserID == ownerID {
		return true
	}
	return p.HasRole(elevated...)
}

// AuthorizeOwnerOr lets the owner through with ownAction and everyone else
// through with anyAction.
func AuthorizeOwnerOr(p Principal, ownerID uuid.UUID, ownAction, anyAction Action) error {
	if p.Authenticated() && p.UserID == ownerID {
		return Authorize(p, ownAction)
	}
	return Authorize(p, anyAction)
}
