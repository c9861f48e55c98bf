package services

import (
	"testing"

	"github.com/deskhub/facility-backend/internal/apperr"
	"github.com/deskhub/facility-backend/internal/models"
	"github.com/deskhub/facility-backend/internal/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_RegisterCreatesMember(t *testing.T) {
	h := newHarness(t)

	resp, err := h.auth.Register(h.ctx, models.RegisterRequest{
		Username: "newmember",
		Email:    "new@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.NotEmpty(t, resp.AccessToken)
	require.NotNil(t, resp.Profile)
	assert.Equal(t, policy.RoleMember, resp.Profile.Role)

	claims, err := h.auth.Authenticate(h.ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)

	_, err = h.auth.Register(h.ctx, models.RegisterRequest{Username: "newmember", Password: "password123"})
	assert.ErrorIs(t, err, apperr.ErrUsernameTaken)
}

func TestAuthService_LoginLogout(t *testing.T) {
	h := newHarness(t)
	h.user("alice", policy.RoleMember)

	ctx := WithRequestMeta(h.ctx, RequestMeta{
		IPAddress: "203.0.113.9",
		UserAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
	})

	resp, err := h.auth.Login(ctx, models.LoginRequest{Username: "alice", Password: "password123"})
	require.NoError(t, err)
	require.NotNil(t, resp.User)

	stored, err := h.store.Users().GetByID(h.ctx, resp.User.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastLoginAt)
	assert.Equal(t, h.now, *stored.LastLoginAt)

	claims, err := h.auth.Authenticate(ctx, resp.AccessToken)
	require.NoError(t, err)

	require.NoError(t, h.auth.Logout(ctx, claims))

	_, err = h.auth.Authenticate(ctx, resp.AccessToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	entries, err := h.store.Audit().Recent(h.ctx, 10)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, "logout", entries[0].Action)
	assert.Equal(t, "203.0.113.9", entries[0].IPAddress)
	assert.Contains(t, string(entries[1].Details), "device_info")
}

func TestAuthService_LoginFailures(t *testing.T) {
	h := newHarness(t)
	admin := h.user("admin", policy.RoleAdmin)
	member := h.user("member", policy.RoleMember)

	_, err := h.auth.Login(h.ctx, models.LoginRequest{Username: "member", Password: "nope"})
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
	assert.Contains(t, h.auditActions(), "login_failed")

	_, err = h.users.SetStatus(h.ctx, admin, member.UserID, models.AccountStatusSuspended)
	require.NoError(t, err)

	_, err = h.auth.Login(h.ctx, models.LoginRequest{Username: "member", Password: "password123"})
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)
}

func TestAuthService_LoginRateLimited(t *testing.T) {
	h := newHarness(t)
	h.user("alice", policy.RoleMember)
	h.auth.limiter = NewRateLimitService(RateLimitConfig{RequestsPerMinute: 1, Burst: 2})

	ctx := WithRequestMeta(h.ctx, RequestMeta{IPAddress: "198.51.100.1"})
	for i := 0; i < 2; i++ {
		_, err := h.auth.Login(ctx, models.LoginRequest{Username: "alice", Password: "wrong-password"})
		require.ErrorIs(t, err, apperr.ErrInvalidCredentials)
	}

	// The account bucket follows the user across addresses
	other := WithRequestMeta(h.ctx, RequestMeta{IPAddress: "198.51.100.2"})
	_, err := h.auth.Login(other, models.LoginRequest{Username: "Alice", Password: "password123"})
	var rateLimitErr *RateLimitError
	require.ErrorAs(t, err, &rateLimitErr)
	assert.Equal(t, "username", rateLimitErr.Type)
}

func TestAuthService_LogoutRequiresClaims(t *testing.T) {
	h := newHarness(t)
	assert.ErrorIs(t, h.auth.Logout(h.ctx, nil), apperr.ErrUnauthenticated)
}
