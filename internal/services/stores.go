package services

import (
	"context"
	"time"

	"github.com/deskhub/facility-backend/internal/conflict"
	"github.com/deskhub/facility-backend/internal/models"
	"github.com/deskhub/facility-backend/internal/policy"
	"github.com/google/uuid"
)

// TxRunner runs fn in one transaction. Stores called with the ctx passed to
// fn take part in it.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserStore persists principals
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, u *models.User) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

// ProfileStore persists the one-per-user role profile
type ProfileStore interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	Create(ctx context.Context, p *models.Profile) error
	EnsureDefault(ctx context.Context, p *models.Profile) (*models.Profile, error)
	UpdateContact(ctx context.Context, p *models.Profile) error
	SetRole(ctx context.Context, userID uuid.UUID, role policy.Role, at time.Time) error
	SetStatus(ctx context.Context, userID uuid.UUID, status models.AccountStatus, at time.Time) error
	List(ctx context.Context) ([]models.Profile, error)
}

// ResourceStore persists the resource inventory
type ResourceStore interface {
	Create(ctx context.Context, r *models.Resource) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Resource, error)
	List(ctx context.Context, resourceType *models.ResourceType) ([]models.Resource, error)
	Update(ctx context.Context, r *models.Resource) error
	LockForUpdate(ctx context.Context, id uuid.UUID) error
	CountByStatus(ctx context.Context) ([]models.StatusCount, error)
}

// BookingStore persists bookings
type BookingStore interface {
	Create(ctx context.Context, b *models.Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	List(ctx context.Context, f models.BookingFilter) ([]models.Booking, error)
	FindOverlapping(ctx context.Context, resourceID uuid.UUID, iv conflict.Interval, status models.BookingStatus, exclude uuid.UUID) ([]models.Booking, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from []models.BookingStatus, to models.BookingStatus, actor uuid.UUID, at time.Time) (bool, error)
	Upcoming(ctx context.Context, resourceID uuid.UUID, from time.Time, limit int) ([]models.Booking, error)
	CountByStatus(ctx context.Context) ([]models.StatusCount, error)
	ApprovedTotals(ctx context.Context) (hours float64, revenue float64, err error)
}

// LeaseStore persists lease contracts
type LeaseStore interface {
	Create(ctx context.Context, l *models.LeaseContract) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.LeaseContract, error)
	List(ctx context.Context, f models.LeaseFilter) ([]models.LeaseContract, error)
	FindOverlapping(ctx context.Context, resourceID uuid.UUID, iv conflict.Interval, status models.LeaseStatus, exclude uuid.UUID) ([]models.LeaseContract, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from models.LeaseStatus, to models.LeaseStatus, actor uuid.UUID, at time.Time) (bool, error)
	CountByStatus(ctx context.Context) ([]models.StatusCount, error)
	ActiveTotals(ctx context.Context) (rent float64, deposits float64, err error)
}

// PlanStore persists membership plans
type PlanStore interface {
	Create(ctx context.Context, p *models.MembershipPlan) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.MembershipPlan, error)
	List(ctx context.Context, activeOnly bool) ([]models.MembershipPlan, error)
	Update(ctx context.Context, p *models.MembershipPlan) error
}

// SubscriptionStore persists subscriptions
type SubscriptionStore interface {
	Create(ctx context.Context, s *models.Subscription) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error)
	List(ctx context.Context, f models.SubscriptionFilter) ([]models.Subscription, error)
	FirstActive(ctx context.Context, userID uuid.UUID, today time.Time) (*models.Subscription, error)
	Deactivate(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	ActiveTotals(ctx context.Context, today time.Time) (count int, revenue float64, err error)
}

// SettingStore persists system settings
type SettingStore interface {
	GetAll(ctx context.Context) ([]models.SystemSetting, error)
	GetByKey(ctx context.Context, key string) (*models.SystemSetting, error)
	Upsert(ctx context.Context, s *models.SystemSetting) error
}

// AuditStore persists audit entries
type AuditStore interface {
	Insert(ctx context.Context, entry *models.AuditLog) error
	Recent(ctx context.Context, limit int) ([]models.AuditLog, error)
}

// Clock supplies the current instant and the zone that defines "today"
type Clock struct {
	Now      func() time.Time
	Location *time.Location
}

// SystemClock reads the wall clock in loc
func SystemClock(loc *time.Location) Clock {
	return Clock{Now: time.Now, Location: loc}
}

// Today is the current calendar date in the clock's zone
func (c Clock) Today() time.Time {
	return conflict.Day(c.Now(), c.Location)
}
