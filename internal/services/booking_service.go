package services

import (
	"context"
	"fmt"

	"github.com/deskhub/facility-backend/internal/apperr"
	"github.com/deskhub/facility-backend/internal/conflict"
	"github.com/deskhub/facility-backend/internal/models"
	"github.com/deskhub/facility-backend/internal/policy"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// BookingService admits time-boxed reservations and drives their approval
// workflow. At most one approved booking may cover any instant of a resource.
type BookingService struct {
	tx        TxRunner
	bookings  BookingStore
	resources ResourceStore
	users     UserStore
	settings  *SettingService
	audit     *AuditService
	clock     Clock
	logger    *logrus.Logger
}

// NewBookingService creates a new booking service
func NewBookingService(
	tx TxRunner,
	bookings BookingStore,
	resources ResourceStore,
	users UserStore,
	settings *SettingService,
	audit *AuditService,
	clock Clock,
	logger *logrus.Logger,
) *BookingService {
	return &BookingService{
		tx:        tx,
		bookings:  bookings,
		resources: resources,
		users:     users,
		settings:  settings,
		audit:     audit,
		clock:     clock,
		logger:    logger,
	}
}

// ProposeBookingInput describes a booking request
type ProposeBookingInput struct {
	ResourceID uuid.UUID
	Interval   conflict.Interval
	Notes      string
	// OnBehalfOf books for another user; requires policy.ManageBookings
	OnBehalfOf *uuid.UUID
}

// Propose validates a request and stores it as pending. The window must not
// start in the past, must be non-empty and must not overlap an approved
// booking on the same resource. Overlapping pending requests are allowed.
func (s *BookingService) Propose(ctx context.Context, p policy.Principal, in ProposeBookingInput) (*models.Booking, error) {
	if err := policy.Authorize(p, policy.CreateBooking); err != nil {
		return nil, err
	}

	owner := p.UserID
	if in.OnBehalfOf != nil && *in.OnBehalfOf != p.UserID {
		if err := policy.Authorize(p, policy.ManageBookings); err != nil {
			return nil, err
		}
		if _, err := s.users.GetByID(ctx, *in.OnBehalfOf); err != nil {
			return nil, err
		}
		owner = *in.OnBehalfOf
	}

	resource, err := s.resources.GetByID(ctx, in.ResourceID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if err := conflict.CheckTimeRange(now, in.Interval); err != nil {
		return nil, err
	}

	if !resource.Bookable() && s.settings.RejectUnavailableResources(ctx) {
		return nil, fmt.Errorf("%w: %s is %s", apperr.ErrResourceUnavailable, resource.Name, resource.Status)
	}

	overlapping, err := s.bookings.FindOverlapping(ctx, resource.ID, in.Interval, models.BookingStatusApproved, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if len(overlapping) > 0 {
		return nil, fmt.Errorf("%w: %s is booked from %s to %s", apperr.ErrConflict, resource.Name,
			overlapping[0].StartTime.Format("2006-01-02 15:04"), overlapping[0].EndTime.Format("2006-01-02 15:04"))
	}

	booking := &models.Booking{
		ID:         uuid.New(),
		ResourceID: resource.ID,
		UserID:     owner,
		StartTime:  in.Interval.Start,
		EndTime:    in.Interval.End,
		Status:     models.BookingStatusPending,
		Notes:      in.Notes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":  booking.ID,
		"resource_id": resource.ID,
		"user_id":     owner,
		"actor":       p.Username,
	}).Info("Booking requested")

	return booking, nil
}

// Approve moves a pending booking to approved. The overlap check is repeated
// under a lock on the resource row so concurrent approvals cannot both pass.
func (s *BookingService) Approve(ctx context.Context, p policy.Principal, id uuid.UUID) (*models.Booking, error) {
	if err := policy.Authorize(p, policy.ApproveBookings); err != nil {
		return nil, err
	}

	var approved *models.Booking
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		booking, err := s.bookings.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if booking.Status != models.BookingStatusPending {
			return fmt.Errorf("%w: booking is %s, only pending bookings can be approved", apperr.ErrInvalidState, booking.Status)
		}

		if err := s.resources.LockForUpdate(ctx, booking.ResourceID); err != nil {
			return err
		}

		overlapping, err := s.bookings.FindOverlapping(ctx, booking.ResourceID, booking.Interval(), models.BookingStatusApproved, booking.ID)
		if err != nil {
			return err
		}
		if len(overlapping) > 0 {
			return fmt.Errorf("%w: overlaps approved booking %s", apperr.ErrConflict, overlapping[0].ID)
		}

		now := s.clock.Now()
		ok, err := s.bookings.UpdateStatus(ctx, booking.ID,
			[]models.BookingStatus{models.BookingStatusPending}, models.BookingStatusApproved, p.UserID, now)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: booking is no longer pending", apperr.ErrInvalidState)
		}

		booking.Status = models.BookingStatusApproved
		booking.DecidedBy = &p.UserID
		booking.DecidedAt = &now
		booking.UpdatedAt = now
		approved = booking
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logTransition(ctx, p, approved, models.BookingStatusPending)
	return approved, nil
}

// Reject moves a pending booking to rejected
func (s *BookingService) Reject(ctx context.Context, p policy.Principal, id uuid.UUID) (*models.Booking, error) {
	if err := policy.Authorize(p, policy.ApproveBookings); err != nil {
		return nil, err
	}
	return s.transition(ctx, p, id, []models.BookingStatus{models.BookingStatusPending}, models.BookingStatusRejected)
}

// Cancel withdraws a pending or approved booking. Owners may cancel their own
// bookings; staff and admins may cancel any.
func (s *BookingService) Cancel(ctx context.Context, p policy.Principal, id uuid.UUID) (*models.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.AuthorizeOwnerOr(p, booking.UserID, policy.CancelOwnBooking, policy.CancelAnyBooking); err != nil {
		return nil, err
	}
	return s.transition(ctx, p, id,
		[]models.BookingStatus{models.BookingStatusPending, models.BookingStatusApproved}, models.BookingStatusCancelled)
}

func (s *BookingService) transition(ctx context.Context, p policy.Principal, id uuid.UUID, from []models.BookingStatus, to models.BookingStatus) (*models.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !bookingStatusIn(booking.Status, from) {
		return nil, fmt.Errorf("%w: cannot move booking from %s to %s", apperr.ErrInvalidState, booking.Status, to)
	}

	now := s.clock.Now()
	ok, err := s.bookings.UpdateStatus(ctx, id, from, to, p.UserID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: booking changed state concurrently", apperr.ErrInvalidState)
	}

	previous := booking.Status
	booking.Status = to
	booking.DecidedBy = &p.UserID
	booking.DecidedAt = &now
	booking.UpdatedAt = now

	s.logTransition(ctx, p, booking, previous)
	return booking, nil
}

// Get returns one booking to its owner or to a supervisor
func (s *BookingService) Get(ctx context.Context, p policy.Principal, id uuid.UUID) (*models.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.AuthorizeOwnerOr(p, booking.UserID, policy.ViewOwnData, policy.ViewAllBookings); err != nil {
		return nil, err
	}
	return booking, nil
}

// List returns every booking to supervisors and the caller's own bookings to
// everyone else. mineOnly restricts supervisors to their own bookings too.
func (s *BookingService) List(ctx context.Context, p policy.Principal, status *models.BookingStatus, mineOnly bool) ([]models.Booking, error) {
	filter := models.BookingFilter{}
	if status != nil {
		filter.Statuses = []models.BookingStatus{*status}
	}

	if mineOnly || !policy.Can(p, policy.ViewAllBookings) {
		if err := policy.Authorize(p, policy.ViewOwnData); err != nil {
			return nil, err
		}
		filter.UserID = &p.UserID
	}

	return s.bookings.List(ctx, filter)
}

func (s *BookingService) logTransition(ctx context.Context, p policy.Principal, b *models.Booking, from models.BookingStatus) {
	s.logger.WithFields(logrus.Fields{
		"booking_id":  b.ID,
		"resource_id": b.ResourceID,
		"from":        from,
		"to":          b.Status,
		"actor":       p.Username,
	}).Info("Booking status changed")

	s.audit.LogTransition(ctx, p.UserID, "booking", b.ID, string(from), string(b.Status))
}

func bookingStatusIn(status models.BookingStatus, set []models.BookingStatus) bool {
	for _, s := range set {
		if status == s {
			return true
		}
	}
	return false
}
