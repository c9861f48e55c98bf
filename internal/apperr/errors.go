// Package apperr holds the sentinel errors shared by the policy, conflict and
// service layers. Handlers map them to HTTP responses with errors.Is.
package apperr

import "errors"

var (
	// Validation
	ErrPastStartTime = errors.New("start time cannot be in the past")
	ErrPastStartDate = errors.New("start date cannot be in the past")
	ErrInvalidRange  = errors.New("end must be after start")
	ErrInvalidInput  = errors.New("invalid input")

	// Reservation state
	ErrConflict     = errors.New("time slot already booked")
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state transition")

	ErrResourceUnavailable = errors.New("resource is not available for booking")

	// Identity and authorization
	ErrUnauthenticated    = errors.New("authentication required")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrProfileNotFound    = errors.New("user profile not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already exists")
)
