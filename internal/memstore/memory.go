// Package memstore holds process-local implementations of the service
// stores. Transactions are serialized with a single lock, which gives the
// same admission guarantees as the row lock taken by the SQL repositories.
package memstore

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/deskhub/facility-backend/internal/apperr"
	"github.com/deskhub/facility-backend/internal/models"
	"github.com/google/uuid"
)

type txKey struct{}

// Store is the shared state behind every in-memory store
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	users         map[uuid.UUID]models.User
	profiles      map[uuid.UUID]models.Profile
	resources     map[uuid.UUID]models.Resource
	bookings      map[uuid.UUID]models.Booking
	leases        map[uuid.UUID]models.LeaseContract
	plans         map[uuid.UUID]models.MembershipPlan
	subscriptions map[uuid.UUID]models.Subscription
	settings      map[string]models.SystemSetting
	audit         []models.AuditLog
}

// New creates an empty store
func New() *Store {
	return &Store{
		users:         make(map[uuid.UUID]models.User),
		profiles:      make(map[uuid.UUID]models.Profile),
		resources:     make(map[uuid.UUID]models.Resource),
		bookings:      make(map[uuid.UUID]models.Booking),
		leases:        make(map[uuid.UUID]models.LeaseContract),
		plans:         make(map[uuid.UUID]models.MembershipPlan),
		subscriptions: make(map[uuid.UUID]models.Subscription),
		settings:      make(map[string]models.SystemSetting),
	}
}

// RunInTx runs fn while holding the transaction lock. Nested calls reuse the
// outer transaction. When fn fails or panics, the store is restored to its
// state before the outermost call.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, ok := ctx.Value(txKey{}).(bool); ok {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	committed := false
	defer func() {
		if !committed {
			s.restore(snap)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		return err
	}
	committed = true
	return nil
}

type snapshot struct {
	users         map[uuid.UUID]models.User
	profiles      map[uuid.UUID]models.Profile
	resources     map[uuid.UUID]models.Resource
	bookings      map[uuid.UUID]models.Booking
	leases        map[uuid.UUID]models.LeaseContract
	plans         map[uuid.UUID]models.MembershipPlan
	subscriptions map[uuid.UUID]models.Subscription
	settings      map[string]models.SystemSetting
	audit         []models.AuditLog
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot{
		users:         maps.Clone(s.users),
		profiles:      maps.Clone(s.profiles),
		resources:     maps.Clone(s.resources),
		bookings:      maps.Clone(s.bookings),
		leases:        maps.Clone(s.leases),
		plans:         maps.Clone(s.plans),
		subscriptions: maps.Clone(s.subscriptions),
		settings:      maps.Clone(s.settings),
		audit:         slices.Clone(s.audit),
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = snap.users
	s.profiles = snap.profiles
	s.resources = snap.resources
	s.bookings = snap.bookings
	s.leases = snap.leases
	s.plans = snap.plans
	s.subscriptions = snap.subscriptions
	s.settings = snap.settings
	s.audit = snap.audit
}

// Users returns the user store
func (s *Store) Users() *UserStore { return &UserStore{s} }

// Profiles returns the profile store
func (s *Store) Profiles() *ProfileStore { return &ProfileStore{s} }

// Resources returns the resource store
func (s *Store) Resources() *ResourceStore { return &ResourceStore{s} }

// Bookings returns the booking store
func (s *Store) Bookings() *BookingStore { return &BookingStore{s} }

// Leases returns the lease store
func (s *Store) Leases() *LeaseStore { return &LeaseStore{s} }

// Plans returns the membership plan store
func (s *Store) Plans() *PlanStore { return &PlanStore{s} }

// Subscriptions returns the subscription store
func (s *Store) Subscriptions() *SubscriptionStore { return &SubscriptionStore{s} }

// Settings returns the system setting store
func (s *Store) Settings() *SettingStore { return &SettingStore{s} }

// Audit returns the audit log store
func (s *Store) Audit() *AuditStore { return &AuditStore{s} }

func notFound(entity string) error {
	return fmt.Errorf("%s %w", entity, apperr.ErrNotFound)
}

func checkCtx(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
