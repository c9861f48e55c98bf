package services

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/deskhub/facility-backend/internal/config"
	"github.com/deskhub/facility-backend/internal/conflict"
	"github.com/deskhub/facility-backend/internal/memstore"
	"github.com/deskhub/facility-backend/internal/models"
	"github.com/deskhub/facility-backend/internal/policy"
	"github.com/deskhub/facility-backend/internal/session"
	"github.com/deskhub/facility-backend/pkg/jwt"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type harness struct {
	t     *testing.T
	ctx   context.Context
	now   time.Time
	store *memstore.Store
	clock Clock

	audit         *AuditService
	settings      *SettingService
	users         *UserService
	profiles      *ProfileService
	resources     *ResourceService
	bookings      *BookingService
	leases        *LeaseService
	plans         *PlanService
	subscriptions *SubscriptionService
	reports       *ReportService
	auth          *AuthService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	h := &harness{
		t:     t,
		ctx:   context.Background(),
		now:   time.Date(2030, 1, 1, 8, 0, 0, 0, time.UTC),
		store: memstore.New(),
	}
	h.clock = Clock{Now: func() time.Time { return h.now }, Location: time.UTC}

	s := h.store
	h.audit = NewAuditService(s.Audit(), true, h.clock, logger)
	h.settings = NewSettingService(s.Settings(), config.BookingConfig{UpcomingLimit: 5}, h.audit, h.clock, logger)
	h.users = NewUserService(s, s.Users(), s.Profiles(), h.audit, bcrypt.MinCost, h.clock, logger)
	h.profiles = NewProfileService(s, s.Users(), s.Profiles(), h.clock, logger)
	h.resources = NewResourceService(s.Resources(), s.Bookings(), h.settings, h.audit, h.clock, logger)
	h.bookings = NewBookingService(s, s.Bookings(), s.Resources(), s.Users(), h.settings, h.audit, h.clock, logger)
	h.leases = NewLeaseService(s, s.Leases(), s.Resources(), s.Users(), h.audit, h.clock, logger)
	h.plans = NewPlanService(s.Plans(), h.audit, h.clock, logger)
	h.subscriptions = NewSubscriptionService(s.Subscriptions(), s.Plans(), h.audit, h.clock, logger)
	h.reports = NewReportService(s.Bookings(), s.Leases(), s.Resources(), s.Profiles(), h.subscriptions, h.audit, h.clock, logger)
	h.auth = NewAuthService(h.users, jwt.NewService("test-secret", time.Hour), session.NewMemoryRevoker(),
		NewRateLimitService(RateLimitConfig{RequestsPerMinute: 600, Burst: 100}), h.audit, logger)

	return h
}

// user provisions an account with the given role and returns its principal
func (h *harness) user(name string, role policy.Role) policy.Principal {
	h.t.Helper()
	u, p, err := h.users.Provision(h.ctx, ProvisionInput{
		Username: name,
		Email:    name + "@example.com",
		Password: "password123",
		Role:     role,
	})
	require.NoError(h.t, err)
	return models.NewPrincipal(u, p)
}

func (h *harness) resource(admin policy.Principal, name string) *models.Resource {
	h.t.Helper()
	r, err := h.resources.Create(h.ctx, admin, models.CreateResourceRequest{
		Name:         name,
		Type:         "room",
		Capacity:     8,
		PricePerHour: 20,
	})
	require.NoError(h.t, err)
	return r
}

// at returns an instant on the harness's day after "now"
func (h *harness) at(hour, min int) time.Time {
	return time.Date(2030, 1, 2, hour, min, 0, 0, time.UTC)
}

func (h *harness) window(startHour, startMin, endHour, endMin int) ProposeBookingInput {
	return ProposeBookingInput{Interval: intervalOf(h.at(startHour, startMin), h.at(endHour, endMin))}
}

func (h *harness) book(p policy.Principal, resourceID uuid.UUID, in ProposeBookingInput) (*models.Booking, error) {
	in.ResourceID = resourceID
	return h.bookings.Propose(h.ctx, p, in)
}

func (h *harness) auditActions() []string {
	entries, err := h.store.Audit().Recent(h.ctx, 1000)
	require.NoError(h.t, err)
	actions := make([]string, 0, len(entries))
	for _, e := range entries {
		actions = append(actions, e.Action)
	}
	return actions
}

func intervalOf(start, end time.Time) conflict.Interval {
	return conflict.Interval{Start: start, End: end}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
