package services

import (
	"testing"

	"github.com/deskhub/facility-backend/internal/apperr"
	"github.com/deskhub/facility-backend/internal/models"
	"github.com/deskhub/facility-backend/internal/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingService_Update(t *testing.T) {
	h := newHarness(t)
	admin := h.user("admin", policy.RoleAdmin)
	staff := h.user("staff", policy.RoleStaff)

	_, err := h.settings.Update(h.ctx, staff, models.SettingRejectUnavailableResources,
		models.UpdateSystemSettingRequest{SettingValue: "true"})
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)

	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"non boolean", models.SettingRejectUnavailableResources, "sometimes"},
		{"zero limit", models.SettingUpcomingBookingsLimit, "0"},
		{"non numeric limit", models.SettingUpcomingBookingsLimit, "ten"},
		{"empty key", " ", "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.settings.Update(h.ctx, admin, tt.key, models.UpdateSystemSettingRequest{SettingValue: tt.value})
			assert.ErrorIs(t, err, apperr.ErrInvalidInput)
		})
	}

	assert.False(t, h.settings.RejectUnavailableResources(h.ctx))
	assert.Equal(t, 5, h.settings.UpcomingBookingsLimit(h.ctx))

	setting, err := h.settings.Update(h.ctx, admin, models.SettingRejectUnavailableResources,
		models.UpdateSystemSettingRequest{SettingValue: " TRUE "})
	require.NoError(t, err)
	assert.Equal(t, "TRUE", setting.SettingValue)
	require.NotNil(t, setting.UpdatedBy)
	assert.Equal(t, "admin", *setting.UpdatedBy)
	assert.True(t, h.settings.RejectUnavailableResources(h.ctx))

	// Free-form keys are stored as given
	_, err = h.settings.Update(h.ctx, admin, "site_name", models.UpdateSystemSettingRequest{SettingValue: "Harbour Hub"})
	require.NoError(t, err)

	all, err := h.settings.List(h.ctx, admin)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = h.settings.Get(h.ctx, admin, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAuditService_RecentRequiresAdmin(t *testing.T) {
	h := newHarness(t)
	admin := h.user("admin", policy.RoleAdmin)
	staff := h.user("staff", policy.RoleStaff)
	h.resource(admin, "Room 1")

	_, err := h.audit.Recent(h.ctx, staff, 10)
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)

	entries, err := h.audit.Recent(h.ctx, admin, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "resource_created", entries[0].Action)
	assert.True(t, entries[0].UserID.Valid)
	assert.Equal(t, admin.UserID, entries[0].UserID.UUID)
}
