package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/deskhub/facility-backend/internal/models"
	"github.com/deskhub/facility-backend/internal/policy"
	"github.com/sirupsen/logrus"
)

const (
	memberRecentBookings = 5
	staffRecentBookings  = 10
)

// ReportService builds dashboards and aggregate reports
type ReportService struct {
	bookings      BookingStore
	leases        LeaseStore
	resources     ResourceStore
	profiles      ProfileStore
	subscriptions *SubscriptionService
	audit         *AuditService
	clock         Clock
	logger        *logrus.Logger
}

// NewReportService creates a new report service
func NewReportService(
	bookings BookingStore,
	leases LeaseStore,
	resources ResourceStore,
	profiles ProfileStore,
	subscriptions *SubscriptionService,
	audit *AuditService,
	clock Clock,
	logger *logrus.Logger,
) *ReportService {
	return &ReportService{
		bookings:      bookings,
		leases:        leases,
		resources:     resources,
		profiles:      profiles,
		subscriptions: subscriptions,
		audit:         audit,
		clock:         clock,
		logger:        logger,
	}
}

// Dashboard returns the landing view. Members see their own latest bookings;
// staff and admins see the latest bookings overall plus workload counters.
func (s *ReportService) Dashboard(ctx context.Context, p policy.Principal, profile *models.Profile) (*models.Dashboard, error) {
	if err := policy.Authorize(p, policy.AccessDashboard); err != nil {
		return nil, err
	}

	dashboard := &models.Dashboard{Profile: profile}

	supervisor := p.HasRole(policy.RoleStaff, policy.RoleAdmin)
	filter := models.BookingFilter{Limit: memberRecentBookings}
	if supervisor {
		filter.Limit = staffRecentBookings
	} else {
		filter.UserID = &p.UserID
	}

	recent, err := s.bookings.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	dashboard.RecentBookings = recent

	active, err := s.subscriptions.ActiveFor(ctx, p)
	if err != nil {
		return nil, err
	}
	dashboard.ActiveSubscription = active

	if !supervisor {
		return dashboard, nil
	}

	bookingCounts, err := s.bookings.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	leaseCounts, err := s.leases.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	resourceCounts, err := s.resources.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	pending := countOf(bookingCounts, string(models.BookingStatusPending))
	activeLeases := countOf(leaseCounts, string(models.LeaseStatusActive))
	maintenance := countOf(resourceCounts, string(models.ResourceStatusMaintenance))
	dashboard.PendingBookings = &pending
	dashboard.ActiveLeases = &activeLeases
	dashboard.MaintenanceResources = &maintenance

	return dashboard, nil
}

// Summary is the operational overview for staff and admins
func (s *ReportService) Summary(ctx context.Context, p policy.Principal) (*models.SummaryReport, error) {
	if err := policy.Authorize(p, policy.ViewReports); err != nil {
		return nil, err
	}

	report := &models.SummaryReport{
		BookingsByStatus:  make(map[models.BookingStatus]int),
		LeasesByStatus:    make(map[models.LeaseStatus]int),
		ResourcesByStatus: make(map[models.ResourceStatus]int),
		UsersByRole:       make(map[policy.Role]int),
	}

	bookingCounts, err := s.bookings.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range bookingCounts {
		report.BookingsByStatus[models.BookingStatus(c.Status)] = c.Count
	}

	leaseCounts, err := s.leases.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range leaseCounts {
		report.LeasesByStatus[models.LeaseStatus(c.Status)] = c.Count
	}

	resourceCounts, err := s.resources.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range resourceCounts {
		report.ResourcesByStatus[models.ResourceStatus(c.Status)] = c.Count
	}

	profiles, err := s.profiles.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, pr := range profiles {
		report.UsersByRole[pr.Role]++
		if pr.AccountStatus == models.AccountStatusSuspended {
			report.SuspendedUsers++
		}
	}

	activeSubs, _, err := s.subscriptions.activeTotals(ctx)
	if err != nil {
		return nil, err
	}
	report.ActiveSubscriptions = activeSubs

	approved, err := s.bookings.List(ctx, models.BookingFilter{Statuses: []models.BookingStatus{models.BookingStatusApproved}})
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	for _, b := range approved {
		if b.StartTime.After(now) {
			report.UpcomingApprovedCount++
		}
	}

	return report, nil
}

// Financial aggregates expected revenue for admins
func (s *ReportService) Financial(ctx context.Context, p policy.Principal) (*models.FinancialReport, error) {
	if err := policy.Authorize(p, policy.ViewFinancialReports); err != nil {
		return nil, err
	}

	report := &models.FinancialReport{}
	var err error

	if report.ApprovedBookingHours, report.ApprovedBookingRevenue, err = s.bookings.ApprovedTotals(ctx); err != nil {
		return nil, err
	}
	if report.ActiveLeaseMonthlyRevenue, report.ActiveLeaseDeposits, err = s.leases.ActiveTotals(ctx); err != nil {
		return nil, err
	}
	if _, report.ActiveSubscriptionRevenue, err = s.subscriptions.activeTotals(ctx); err != nil {
		return nil, err
	}

	return report, nil
}

var bookingExportHeader = []string{
	"id", "resource_id", "user_id", "start_time", "end_time", "hours", "status", "notes", "created_at",
}

// ExportBookingsCSV writes every booking as CSV to w
func (s *ReportService) ExportBookingsCSV(ctx context.Context, p policy.Principal, w io.Writer) (int, error) {
	if err := policy.Authorize(p, policy.ExportData); err != nil {
		return 0, err
	}

	bookings, err := s.bookings.List(ctx, models.BookingFilter{})
	if err != nil {
		return 0, err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(bookingExportHeader); err != nil {
		return 0, fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, b := range bookings {
		record := []string{
			b.ID.String(),
			b.ResourceID.String(),
			b.UserID.String(),
			b.StartTime.UTC().Format(time.RFC3339),
			b.EndTime.UTC().Format(time.RFC3339),
			strconv.FormatFloat(b.Hours(), 'f', 2, 64),
			string(b.Status),
			b.Notes,
			b.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return 0, fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("failed to flush csv: %w", err)
	}

	s.audit.LogChange(ctx, p.UserID, "bookings_exported", "booking", nil,
		map[string]interface{}{"rows": len(bookings)})
	return len(bookings), nil
}

func countOf(counts []models.StatusCount, status string) int {
	for _, c := range counts {
		if c.Status == status {
			return c.Count
		}
	}
	return 0
}
