package services

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/deskhub/facility-backend/internal/apperr"
	"github.com/deskhub/facility-backend/internal/models"
	"github.com/deskhub/facility-backend/internal/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportService_Dashboard(t *testing.T) {
	h := newHarness(t)
	staff := h.user("staff", policy.RoleStaff)
	alice := h.user("alice", policy.RoleMember)
	bob := h.user("bob", policy.RoleMember)
	room := h.resource(staff, "Room 1")

	for i := 0; i < 7; i++ {
		_, err := h.book(alice, room.ID, h.window(8+i, 0, 8+i, 30))
		require.NoError(t, err)
		h.now = h.now.Add(time.Minute)
	}
	_, err := h.book(bob, room.ID, h.window(16, 0, 17, 0))
	require.NoError(t, err)

	t.Run("member sees own latest five", func(t *testing.T) {
		d, err := h.reports.Dashboard(h.ctx, alice, nil)
		require.NoError(t, err)
		require.Len(t, d.RecentBookings, 5)
		for _, b := range d.RecentBookings {
			assert.Equal(t, alice.UserID, b.UserID)
		}
		assert.Equal(t, h.at(14, 0), d.RecentBookings[0].StartTime, "newest first")
		assert.Nil(t, d.PendingBookings)
		assert.Nil(t, d.ActiveSubscription)
	})

	t.Run("staff sees everyone with counters", func(t *testing.T) {
		_, err := h.resources.SetStatus(h.ctx, staff, room.ID, "maintenance")
		require.NoError(t, err)

		d, err := h.reports.Dashboard(h.ctx, staff, nil)
		require.NoError(t, err)
		assert.Len(t, d.RecentBookings, 8)
		require.NotNil(t, d.PendingBookings)
		assert.Equal(t, 8, *d.PendingBookings)
		assert.Equal(t, 0, *d.ActiveLeases)
		assert.Equal(t, 1, *d.MaintenanceResources)
	})

	t.Run("requires a profile", func(t *testing.T) {
		_, err := h.reports.Dashboard(h.ctx, policy.Principal{UserID: alice.UserID}, nil)
		assert.ErrorIs(t, err, apperr.ErrProfileNotFound)
	})
}

func TestReportService_SummaryAndFinancial(t *testing.T) {
	h := newHarness(t)
	admin := h.user("admin", policy.RoleAdmin)
	staff := h.user("staff", policy.RoleStaff)
	member := h.user("member", policy.RoleMember)
	room := h.resource(admin, "Room 1")

	approved, err := h.book(member, room.ID, h.window(9, 0, 11, 0))
	require.NoError(t, err)
	_, err = h.bookings.Approve(h.ctx, staff, approved.ID)
	require.NoError(t, err)
	_, err = h.book(member, room.ID, h.window(12, 0, 13, 0))
	require.NoError(t, err)

	lease, err := h.leases.Propose(h.ctx, staff, leaseInput(room.ID, day(2030, 2, 1), day(2030, 3, 1)))
	require.NoError(t, err)
	_, err = h.leases.Activate(h.ctx, staff, lease.ID)
	require.NoError(t, err)

	monthly := h.plan(admin, "Monthly", 30, true)
	_, err = h.subscriptions.Create(h.ctx, member, monthly.ID, day(2030, 1, 1), nil)
	require.NoError(t, err)

	_, err = h.reports.Summary(h.ctx, member)
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)

	summary, err := h.reports.Summary(h.ctx, staff)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.BookingsByStatus[models.BookingStatusApproved])
	assert.Equal(t, 1, summary.BookingsByStatus[models.BookingStatusPending])
	assert.Equal(t, 1, summary.LeasesByStatus[models.LeaseStatusActive])
	assert.Equal(t, 1, summary.UsersByRole[policy.RoleMember])
	assert.Equal(t, 1, summary.ActiveSubscriptions)
	assert.Equal(t, 1, summary.UpcomingApprovedCount)

	_, err = h.reports.Financial(h.ctx, staff)
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)

	financial, err := h.reports.Financial(h.ctx, admin)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, financial.ApprovedBookingHours, 0.001)
	assert.InDelta(t, 40.0, financial.ApprovedBookingRevenue, 0.001)
	assert.InDelta(t, 1200.0, financial.ActiveLeaseMonthlyRevenue, 0.001)
	assert.InDelta(t, 2400.0, financial.ActiveLeaseDeposits, 0.001)
	assert.InDelta(t, 99.0, financial.ActiveSubscriptionRevenue, 0.001)
}

func TestReportService_ExportBookingsCSV(t *testing.T) {
	h := newHarness(t)
	admin := h.user("admin", policy.RoleAdmin)
	staff := h.user("staff", policy.RoleStaff)
	room := h.resource(admin, "Room 1")

	in := h.window(9, 0, 10, 30)
	in.Notes = "quarterly review, board"
	b, err := h.book(admin, room.ID, in)
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = h.reports.ExportBookingsCSV(h.ctx, staff, &buf)
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)
	assert.Zero(t, buf.Len())

	n, err := h.reports.ExportBookingsCSV(h.ctx, admin, &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, bookingExportHeader, rows[0])
	assert.Equal(t, b.ID.String(), rows[1][0])
	assert.Equal(t, "2030-01-02T09:00:00Z", rows[1][3])
	assert.Equal(t, "1.50", rows[1][5])
	assert.Equal(t, "pending", rows[1][6])
	assert.Equal(t, "quarterly review, board", rows[1][7])

	assert.Contains(t, h.auditActions(), "bookings_exported")
}
