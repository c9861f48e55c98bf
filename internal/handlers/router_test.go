package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/deskhub/facility-backend/internal/config"
	"github.com/deskhub/facility-backend/internal/memstore"
	"github.com/deskhub/facility-backend/internal/models"
	"github.com/deskhub/facility-backend/internal/policy"
	"github.com/deskhub/facility-backend/internal/services"
	"github.com/deskhub/facility-backend/internal/session"
	"github.com/deskhub/facility-backend/pkg/jwt"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testAPI struct {
	t      *testing.T
	router *gin.Engine
	store  *memstore.Store
	svc    Services
	now    time.Time
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	return newTestAPIWithLimits(t, services.RateLimitConfig{RequestsPerMinute: 600, Burst: 100})
}

func newTestAPIWithLimits(t *testing.T, limits services.RateLimitConfig) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	api := &testAPI{t: t, now: time.Date(2030, 1, 1, 8, 0, 0, 0, time.UTC)}
	clock := services.Clock{Now: func() time.Time { return api.now }, Location: time.UTC}

	s := memstore.New()
	audit := services.NewAuditService(s.Audit(), true, clock, logger)
	settings := services.NewSettingService(s.Settings(), config.BookingConfig{UpcomingLimit: 5}, audit, clock, logger)
	users := services.NewUserService(s, s.Users(), s.Profiles(), audit, bcrypt.MinCost, clock, logger)
	subscriptions := services.NewSubscriptionService(s.Subscriptions(), s.Plans(), audit, clock, logger)
	limiter := services.NewRateLimitService(limits)
	api.store = s

	api.svc = Services{
		Auth:          services.NewAuthService(users, jwt.NewService("handler-secret", time.Hour), session.NewMemoryRevoker(), limiter, audit, logger),
		Users:         users,
		Profiles:      services.NewProfileService(s, s.Users(), s.Profiles(), clock, logger),
		Resources:     services.NewResourceService(s.Resources(), s.Bookings(), settings, audit, clock, logger),
		Bookings:      services.NewBookingService(s, s.Bookings(), s.Resources(), s.Users(), settings, audit, clock, logger),
		Leases:        services.NewLeaseService(s, s.Leases(), s.Resources(), s.Users(), audit, clock, logger),
		Plans:         services.NewPlanService(s.Plans(), audit, clock, logger),
		Subscriptions: subscriptions,
		Settings:      settings,
		Reports:       services.NewReportService(s.Bookings(), s.Leases(), s.Resources(), s.Profiles(), subscriptions, audit, clock, logger),
		Audit:         audit,
		RateLimiter:   limiter,
	}

	api.router = gin.New()
	RegisterRoutes(api.router, api.svc, logger)
	return api
}

func (api *testAPI) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	api.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(api.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)
	return w
}

// login provisions a user with role and returns an access token for it
func (api *testAPI) login(username string, role policy.Role) string {
	api.t.Helper()

	_, _, err := api.svc.Users.Provision(context.Background(), services.ProvisionInput{
		Username: username,
		Password: "password123",
		Role:     role,
	})
	require.NoError(api.t, err)

	w := api.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": username, "password": "password123"})
	require.Equal(api.t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	decode(api.t, w, &resp)
	return resp.AccessToken
}

func (api *testAPI) createResource(token string) string {
	api.t.Helper()

	w := api.do(http.MethodPost, "/api/v1/resources", token, gin.H{
		"name":           "Board Room",
		"type":           "room",
		"capacity":       10,
		"price_per_hour": 25,
	})
	require.Equal(api.t, http.StatusCreated, w.Code, w.Body.String())

	var resource struct {
		ID string `json:"id"`
	}
	decode(api.t, w, &resource)
	return resource.ID
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	decode(t, w, &resp)
	return resp.Code
}

func TestAuthFlow_RegisterProfileLogout(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"username": "newcomer",
		"email":    "newcomer@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var login struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	decode(t, w, &login)
	assert.Equal(t, "Bearer", login.TokenType)
	require.NotEmpty(t, login.AccessToken)

	w = api.do(http.MethodGet, "/api/v1/profile", login.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var profile struct {
		Username string `json:"username"`
		Profile  struct {
			Role string `json:"role"`
		} `json:"profile"`
	}
	decode(t, w, &profile)
	assert.Equal(t, "newcomer", profile.Username)
	assert.Equal(t, "member", profile.Profile.Role)

	w = api.do(http.MethodPost, "/api/v1/auth/logout", login.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(http.MethodGet, "/api/v1/profile", login.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "TOKEN_REVOKED", errorCode(t, w))
}

func TestAuthFlow_InvalidCredentials(t *testing.T) {
	api := newTestAPI(t)
	api.login("alice", policy.RoleMember)

	w := api.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": "alice", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", errorCode(t, w))

	w = api.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": "alice"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", errorCode(t, w))
}

func TestAuthFlow_LoginRateLimitAllowsBurst(t *testing.T) {
	api := newTestAPIWithLimits(t, services.RateLimitConfig{RequestsPerMinute: 1, Burst: 4})

	for i := 0; i < 4; i++ {
		w := api.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": "ghost", "password": "wrong-password"})
		require.Equal(t, http.StatusUnauthorized, w.Code, "attempt %d: %s", i+1, w.Body.String())
	}

	w := api.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": "ghost", "password": "wrong-password"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestProfilelessUser_OnlyProfileRoutesCreateProfile(t *testing.T) {
	api := newTestAPI(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, api.store.Users().Create(context.Background(), &models.User{
		ID:           uuid.New(),
		Username:     "legacy",
		PasswordHash: string(hash),
		CreatedAt:    api.now,
		UpdatedAt:    api.now,
	}))

	w := api.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": "legacy", "password": "password123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	decode(t, w, &resp)
	token := resp.AccessToken

	w = api.do(http.MethodGet, "/api/v1/bookings", token, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "PROFILE_NOT_FOUND", errorCode(t, w))

	w = api.do(http.MethodGet, "/api/v1/dashboard", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(http.MethodGet, "/api/v1/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var profile struct {
		Role          string `json:"role"`
		AccountStatus string `json:"account_status"`
	}
	decode(t, w, &profile)
	assert.Equal(t, "member", profile.Role)
	assert.Equal(t, "active", profile.AccountStatus)

	w = api.do(http.MethodGet, "/api/v1/bookings", token, nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodGet, "/api/v1/resources", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "MISSING_AUTH_HEADER", errorCode(t, w))
}

func TestResources_PermissionCheckedBeforeValidation(t *testing.T) {
	api := newTestAPI(t)
	member := api.login("member", policy.RoleMember)

	// An empty body would fail validation, but the member is rejected first
	w := api.do(http.MethodPost, "/api/v1/resources", member, gin.H{})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "PERMISSION_DENIED", errorCode(t, w))

	admin := api.login("admin", policy.RoleAdmin)
	w = api.do(http.MethodPost, "/api/v1/resources", admin, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", errorCode(t, w))
}

func TestResources_InvalidID(t *testing.T) {
	api := newTestAPI(t)
	member := api.login("member", policy.RoleMember)

	w := api.do(http.MethodGet, "/api/v1/resources/not-a-uuid", member, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ID", errorCode(t, w))
}

func TestBookings_ConflictAndApproval(t *testing.T) {
	api := newTestAPI(t)
	admin := api.login("admin", policy.RoleAdmin)
	staff := api.login("staff", policy.RoleStaff)
	alice := api.login("alice", policy.RoleMember)
	bob := api.login("bob", policy.RoleMember)
	resourceID := api.createResource(admin)

	booking := gin.H{
		"resource_id": resourceID,
		"start_time":  "2030-01-02T09:00:00Z",
		"end_time":    "2030-01-02T10:00:00Z",
	}
	w := api.do(http.MethodPost, "/api/v1/bookings", alice, booking)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	decode(t, w, &created)
	assert.Equal(t, "pending", created.Status)

	w = api.do(http.MethodPost, "/api/v1/bookings/"+created.ID+"/approve", alice, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(http.MethodPost, "/api/v1/bookings/"+created.ID+"/approve", staff, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &created)
	assert.Equal(t, "approved", created.Status)

	overlapping := gin.H{
		"resource_id": resourceID,
		"start_time":  "2030-01-02T09:30:00Z",
		"end_time":    "2030-01-02T10:30:00Z",
	}
	w = api.do(http.MethodPost, "/api/v1/bookings", bob, overlapping)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "TIME_SLOT_CONFLICT", errorCode(t, w))

	// Touching intervals do not overlap
	adjacent := gin.H{
		"resource_id": resourceID,
		"start_time":  "2030-01-02T10:00:00Z",
		"end_time":    "2030-01-02T11:00:00Z",
	}
	w = api.do(http.MethodPost, "/api/v1/bookings", bob, adjacent)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = api.do(http.MethodGet, "/api/v1/bookings", bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Count int `json:"count"`
	}
	decode(t, w, &list)
	assert.Equal(t, 1, list.Count)

	w = api.do(http.MethodGet, "/api/v1/bookings?status=approved", staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &list)
	assert.Equal(t, 1, list.Count)

	w = api.do(http.MethodGet, "/api/v1/bookings/"+created.ID, bob, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestBookings_PastStart(t *testing.T) {
	api := newTestAPI(t)
	admin := api.login("admin", policy.RoleAdmin)
	alice := api.login("alice", policy.RoleMember)
	resourceID := api.createResource(admin)

	w := api.do(http.MethodPost, "/api/v1/bookings", alice, gin.H{
		"resource_id": resourceID,
		"start_time":  "2029-12-31T09:00:00Z",
		"end_time":    "2029-12-31T10:00:00Z",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "PAST_START_TIME", errorCode(t, w))
}

func TestLeases_CreateAndOverlap(t *testing.T) {
	api := newTestAPI(t)
	admin := api.login("admin", policy.RoleAdmin)
	resourceID := api.createResource(admin)

	lease := gin.H{
		"resource_id":    resourceID,
		"start_date":     "2030-02-01",
		"end_date":       "2030-07-31",
		"monthly_rent":   1200,
		"deposit_amount": 2400,
	}
	w := api.do(http.MethodPost, "/api/v1/leases", admin, lease)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	decode(t, w, &created)
	assert.Equal(t, "pending", created.Status)

	w = api.do(http.MethodPost, "/api/v1/leases/"+created.ID+"/activate", admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	lease["start_date"] = "2030-07-01"
	lease["end_date"] = "2030-12-31"
	w = api.do(http.MethodPost, "/api/v1/leases", admin, lease)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "TIME_SLOT_CONFLICT", errorCode(t, w))

	lease["start_date"] = "31/07/2030"
	w = api.do(http.MethodPost, "/api/v1/leases", admin, lease)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_INPUT", errorCode(t, w))
}

func TestAdmin_UsersAndSettings(t *testing.T) {
	api := newTestAPI(t)
	admin := api.login("admin", policy.RoleAdmin)
	staff := api.login("staff", policy.RoleStaff)

	w := api.do(http.MethodPost, "/api/v1/admin/users", admin, gin.H{
		"username": "carol",
		"password": "password123",
		"role":     "staff",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var carol struct {
		ID      string `json:"id"`
		Profile struct {
			Role string `json:"role"`
		} `json:"profile"`
	}
	decode(t, w, &carol)
	assert.Equal(t, "staff", carol.Profile.Role)

	w = api.do(http.MethodPatch, "/api/v1/admin/users/"+carol.ID+"/role", admin, gin.H{"role": "admin"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(http.MethodGet, "/api/v1/admin/users", staff, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(http.MethodPost, "/api/v1/admin/users", staff, gin.H{
		"username": "dave",
		"password": "password123",
		"role":     "member",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(http.MethodPatch, "/api/v1/admin/users/"+carol.ID+"/role", staff, gin.H{"role": "member"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(http.MethodPut, "/api/v1/admin/settings/booking_reject_unavailable_resources", staff, gin.H{"setting_value": "true"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(http.MethodPut, "/api/v1/admin/settings/booking_reject_unavailable_resources", admin, gin.H{"setting_value": "true"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(http.MethodGet, "/api/v1/admin/audit-logs?limit=5", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var logs struct {
		Count int `json:"count"`
	}
	decode(t, w, &logs)
	assert.Positive(t, logs.Count)
	assert.LessOrEqual(t, logs.Count, 5)
}

func TestReports_ExportBookingsCSV(t *testing.T) {
	api := newTestAPI(t)
	admin := api.login("admin", policy.RoleAdmin)
	alice := api.login("alice", policy.RoleMember)
	resourceID := api.createResource(admin)

	w := api.do(http.MethodPost, "/api/v1/bookings", alice, gin.H{
		"resource_id": resourceID,
		"start_time":  "2030-01-02T09:00:00Z",
		"end_time":    "2030-01-02T11:00:00Z",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = api.do(http.MethodGet, "/api/v1/reports/bookings.csv", alice, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(http.MethodGet, "/api/v1/reports/bookings.csv", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/csv"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	assert.Len(t, lines, 2)
}

func TestMemberships_SubscribeAndActive(t *testing.T) {
	api := newTestAPI(t)
	admin := api.login("admin", policy.RoleAdmin)
	alice := api.login("alice", policy.RoleMember)

	w := api.do(http.MethodPost, "/api/v1/plans", admin, gin.H{
		"name":          "Hot Desk",
		"price":         99,
		"duration_days": 30,
		"access_level":  "basic",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var plan struct {
		ID string `json:"id"`
	}
	decode(t, w, &plan)

	w = api.do(http.MethodGet, "/api/v1/subscriptions/active", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"subscription":null}`, w.Body.String())

	w = api.do(http.MethodPost, "/api/v1/subscriptions", alice, gin.H{
		"plan_id":    plan.ID,
		"start_date": "2030-01-01",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = api.do(http.MethodGet, "/api/v1/subscriptions/active", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var active struct {
		Subscription *struct {
			PlanID string `json:"plan_id"`
		} `json:"subscription"`
	}
	decode(t, w, &active)
	require.NotNil(t, active.Subscription)
	assert.Equal(t, plan.ID, active.Subscription.PlanID)
}
