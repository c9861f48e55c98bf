package services

import (
	"testing"

	"github.com/deskhub/facility-backend/internal/apperr"
	"github.com/deskhub/facility-backend/internal/models"
	"github.com/deskhub/facility-backend/internal/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourceService_CreateValidation(t *testing.T) {
	h := newHarness(t)
	admin := h.user("admin", policy.RoleAdmin)
	member := h.user("member", policy.RoleMember)

	valid := models.CreateResourceRequest{Name: "Desk 12", Type: "desk", Capacity: 1, PricePerHour: 5}

	_, err := h.resources.Create(h.ctx, member, valid)
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)

	tests := []struct {
		name   string
		mutate func(r *models.CreateResourceRequest)
	}{
		{"missing name", func(r *models.CreateResourceRequest) { r.Name = "  " }},
		{"zero capacity", func(r *models.CreateResourceRequest) { r.Capacity = 0 }},
		{"negative price", func(r *models.CreateResourceRequest) { r.PricePerHour = -1 }},
		{"unknown type", func(r *models.CreateResourceRequest) { r.Type = "spaceship" }},
		{"unknown status", func(r *models.CreateResourceRequest) { r.Status = "haunted" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			_, err := h.resources.Create(h.ctx, admin, req)
			assert.ErrorIs(t, err, apperr.ErrInvalidInput)
		})
	}

	r, err := h.resources.Create(h.ctx, admin, valid)
	require.NoError(t, err)
	assert.Equal(t, models.ResourceTypeDesk, r.Type)
	assert.Equal(t, models.ResourceStatusAvailable, r.Status)
}

func TestResourceService_UpdateAndStatus(t *testing.T) {
	h := newHarness(t)
	admin := h.user("admin", policy.RoleAdmin)
	staff := h.user("staff", policy.RoleStaff)
	room := h.resource(admin, "Room 1")

	name := "Boardroom"
	capacity := 12
	updated, err := h.resources.Update(h.ctx, staff, room.ID, models.UpdateResourceRequest{Name: &name, Capacity: &capacity})
	require.NoError(t, err)
	assert.Equal(t, "Boardroom", updated.Name)
	assert.Equal(t, 12, updated.Capacity)

	zero := 0
	_, err = h.resources.Update(h.ctx, staff, room.ID, models.UpdateResourceRequest{Capacity: &zero})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	changed, err := h.resources.SetStatus(h.ctx, staff, room.ID, "unavailable")
	require.NoError(t, err)
	assert.Equal(t, models.ResourceStatusUnavailable, changed.Status)
	assert.Contains(t, h.auditActions(), "resource_unavailable")

	_, err = h.resources.SetStatus(h.ctx, staff, room.ID, "closed")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestResourceService_ListAndDetail(t *testing.T) {
	h := newHarness(t)
	admin := h.user("admin", policy.RoleAdmin)
	member := h.user("member", policy.RoleMember)
	room := h.resource(admin, "Room 1")
	_, err := h.resources.Create(h.ctx, admin, models.CreateResourceRequest{Name: "Desk 1", Type: "desk", Capacity: 1})
	require.NoError(t, err)

	all, err := h.resources.List(h.ctx, member, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	rooms := models.ResourceTypeRoom
	filtered, err := h.resources.List(h.ctx, member, &rooms)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, room.ID, filtered[0].ID)

	detail, err := h.resources.Get(h.ctx, member, room.ID)
	require.NoError(t, err)
	assert.NotNil(t, detail.UpcomingBookings)
	assert.Empty(t, detail.UpcomingBookings)

	// Only approved future bookings are listed, soonest first, capped by the setting
	for i := 0; i < 3; i++ {
		b, err := h.book(member, room.ID, h.window(12-i, 0, 12-i, 30))
		require.NoError(t, err)
		_, err = h.bookings.Approve(h.ctx, admin, b.ID)
		require.NoError(t, err)
	}
	_, err = h.book(member, room.ID, h.window(15, 0, 16, 0))
	require.NoError(t, err)

	_, err = h.settings.Update(h.ctx, admin, models.SettingUpcomingBookingsLimit,
		models.UpdateSystemSettingRequest{SettingValue: "2"})
	require.NoError(t, err)

	detail, err = h.resources.Get(h.ctx, member, room.ID)
	require.NoError(t, err)
	require.Len(t, detail.UpcomingBookings, 2)
	assert.Equal(t, h.at(10, 0), detail.UpcomingBookings[0].StartTime)
	assert.Equal(t, h.at(11, 0), detail.UpcomingBookings[1].StartTime)
}
