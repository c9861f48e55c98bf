package models

import (
	"time"

	"github.com/deskhub/facility-backend/internal/policy"
	"github.com/google/uuid"
)

// AccountStatus is the lifecycle state of a profile
type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "active"
	AccountStatusSuspended AccountStatus = "suspended"
)

// Valid reports whether s is a known account status
func (s AccountStatus) Valid() bool {
	return s == AccountStatusActive || s == AccountStatusSuspended
}

// User is an authenticated principal with its credentials
type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Username     string     `json:"username" db:"username"`
	Email        string     `json:"email" db:"email"`
	FirstName    string     `json:"first_name" db:"first_name"`
	LastName     string     `json:"last_name" db:"last_name"`
	PasswordHash string     `json:"-" db:"password_hash"` // Never expose in JSON
	LastLoginAt  *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// FullName joins first and last name, falling back to the username
func (u *User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	}
	return u.Username
}

// Profile carries the role and contact details of exactly one user
type Profile struct {
	UserID            uuid.UUID     `json:"user_id" db:"user_id"`
	Role              policy.Role   `json:"role" db:"role"`
	AccountStatus     AccountStatus `json:"account_status" db:"account_status"`
	PhoneNumber       string        `json:"phone_number" db:"phone_number"`
	Address           string        `json:"address" db:"address"`
	CompanyName       string        `json:"company_name" db:"company_name"`
	ProfilePictureURL string        `json:"profile_picture_url" db:"profile_picture_url"`
	CreatedAt         time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at" db:"updated_at"`
}

// DefaultProfile is the member profile created on first access
func DefaultProfile(userID uuid.UUID, now time.Time) *Profile {
	return &Profile{
		UserID:        userID,
		Role:          policy.RoleMember,
		AccountStatus: AccountStatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// NewPrincipal builds the authorization subject for u. A nil profile yields a
// principal without a role.
func NewPrincipal(u *User, p *Profile) policy.Principal {
	pr := policy.Principal{UserID: u.ID, Username: u.Username}
	if p != nil {
		pr.HasProfile = true
		pr.Role = p.Role
		pr.Suspended = p.AccountStatus == AccountStatusSuspended
	}
	return pr
}

// UserWithProfile is the admin view of a user
type UserWithProfile struct {
	User
	Profile *Profile `json:"profile"`
}

// RegisterRequest represents a self sign-up
type RegisterRequest struct {
	Username  string `json:"username" binding:"required,min=3,max=150"`
	Email     string `json:"email" binding:"omitempty,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// LoginRequest represents a username/password login
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse is returned after a successful login or registration
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int64     `json:"expires_in"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        *User     `json:"user"`
	Profile     *Profile  `json:"profile,omitempty"`
}

// ProvisionUserRequest creates a user with an explicit role
type ProvisionUserRequest struct {
	Username  string `json:"username" binding:"required,min=3,max=150"`
	Email     string `json:"email" binding:"omitempty,email"`
	Password  string `json:"password" binding:"required,min=8"`
	Role      string `json:"role" binding:"required,oneof=member staff admin"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone_number"`
	Company   string `json:"company_name"`
}

// UpdateProfileRequest edits the caller's own user and profile fields
type UpdateProfileRequest struct {
	FirstName         *string `json:"first_name,omitempty"`
	LastName          *string `json:"last_name,omitempty"`
	Email             *string `json:"email,omitempty" binding:"omitempty,email"`
	PhoneNumber       *string `json:"phone_number,omitempty" binding:"omitempty,max=20"`
	Address           *string `json:"address,omitempty"`
	CompanyName       *string `json:"company_name,omitempty" binding:"omitempty,max=200"`
	ProfilePictureURL *string `json:"profile_picture_url,omitempty" binding:"omitempty,url"`
}

// SetAccountStatusRequest suspends or reactivates a user
type SetAccountStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active suspended"`
}

// SetRoleRequest changes a user's role
type SetRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=member staff admin"`
}
