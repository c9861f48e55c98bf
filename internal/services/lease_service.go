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

// LeaseService drafts lease contracts and moves them through activation.
// Two active leases of one resource never share a calendar day.
type LeaseService struct {
	tx        TxRunner
	leases    LeaseStore
	resources ResourceStore
	users     UserStore
	audit     *AuditService
	clock     Clock
	logger    *logrus.Logger
}

// NewLeaseService creates a new lease service
func NewLeaseService(tx TxRunner, leases LeaseStore, resources ResourceStore, users UserStore, audit *AuditService, clock Clock, logger *logrus.Logger) *LeaseService {
	return &LeaseService{
		tx:        tx,
		leases:    leases,
		resources: resources,
		users:     users,
		audit:     audit,
		clock:     clock,
		logger:    logger,
	}
}

// ProposeLeaseInput describes a lease draft. Dates are normalized calendar days.
type ProposeLeaseInput struct {
	ResourceID uuid.UUID
	// LesseeID defaults to the acting principal
	LesseeID      *uuid.UUID
	Period        conflict.Interval
	MonthlyRent   float64
	DepositAmount float64
	Terms         string
}

// Propose stores a pending lease after checking dates and active-lease overlap
func (s *LeaseService) Propose(ctx context.Context, p policy.Principal, in ProposeLeaseInput) (*models.LeaseContract, error) {
	if err := policy.Authorize(p, policy.ManageLeases); err != nil {
		return nil, err
	}

	lessee := p.UserID
	if in.LesseeID != nil && *in.LesseeID != p.UserID {
		if _, err := s.users.GetByID(ctx, *in.LesseeID); err != nil {
			return nil, err
		}
		lessee = *in.LesseeID
	}

	resource, err := s.resources.GetByID(ctx, in.ResourceID)
	if err != nil {
		return nil, err
	}

	if err := conflict.CheckDateRange(s.clock.Today(), in.Period); err != nil {
		return nil, err
	}
	if in.MonthlyRent < 0 || in.DepositAmount < 0 {
		return nil, fmt.Errorf("%w: monthly rent and deposit must not be negative", apperr.ErrInvalidInput)
	}

	overlapping, err := s.leases.FindOverlapping(ctx, resource.ID, in.Period, models.LeaseStatusActive, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if len(overlapping) > 0 {
		return nil, fmt.Errorf("%w: %s is already leased from %s to %s", apperr.ErrConflict, resource.Name,
			overlapping[0].StartDate, overlapping[0].EndDate)
	}

	now := s.clock.Now()
	lease := &models.LeaseContract{
		ID:                 uuid.New(),
		ResourceID:         resource.ID,
		UserID:             lessee,
		CreatedBy:          p.UserID,
		StartDate:          models.NewDate(in.Period.Start),
		EndDate:            models.NewDate(in.Period.End),
		MonthlyRent:        in.MonthlyRent,
		DepositAmount:      in.DepositAmount,
		TermsAndConditions: in.Terms,
		Status:             models.LeaseStatusPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.leases.Create(ctx, lease); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"lease_id":    lease.ID,
		"resource_id": resource.ID,
		"lessee":      lessee,
		"actor":       p.Username,
	}).Info("Lease drafted")

	return lease, nil
}

// Activate moves a pending lease to active, re-checking overlap under a lock
// on the resource row.
func (s *LeaseService) Activate(ctx context.Context, p policy.Principal, id uuid.UUID) (*models.LeaseContract, error) {
	if err := policy.Authorize(p, policy.ApproveLeases); err != nil {
		return nil, err
	}

	var activated *models.LeaseContract
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		lease, err := s.leases.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if lease.Status != models.LeaseStatusPending {
			return fmt.Errorf("%w: lease is %s, only pending leases can be activated", apperr.ErrInvalidState, lease.Status)
		}

		if err := s.resources.LockForUpdate(ctx, lease.ResourceID); err != nil {
			return err
		}

		overlapping, err := s.leases.FindOverlapping(ctx, lease.ResourceID, lease.Interval(), models.LeaseStatusActive, lease.ID)
		if err != nil {
			return err
		}
		if len(overlapping) > 0 {
			return fmt.Errorf("%w: overlaps active lease %s", apperr.ErrConflict, overlapping[0].ID)
		}

		now := s.clock.Now()
		ok, err := s.leases.UpdateStatus(ctx, lease.ID, models.LeaseStatusPending, models.LeaseStatusActive, p.UserID, now)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: lease is no longer pending", apperr.ErrInvalidState)
		}

		lease.Status = models.LeaseStatusActive
		lease.DecidedBy = &p.UserID
		lease.DecidedAt = &now
		lease.UpdatedAt = now
		activated = lease
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logTransition(ctx, p, activated, models.LeaseStatusPending)
	return activated, nil
}

// Reject moves a pending lease to rejected
func (s *LeaseService) Reject(ctx context.Context, p policy.Principal, id uuid.UUID) (*models.LeaseContract, error) {
	if err := policy.Authorize(p, policy.ApproveLeases); err != nil {
		return nil, err
	}
	return s.transition(ctx, p, id, models.LeaseStatusPending, models.LeaseStatusRejected)
}

// Terminate ends an active lease
func (s *LeaseService) Terminate(ctx context.Context, p policy.Principal, id uuid.UUID) (*models.LeaseContract, error) {
	if err := policy.Authorize(p, policy.TerminateLeases); err != nil {
		return nil, err
	}
	return s.transition(ctx, p, id, models.LeaseStatusActive, models.LeaseStatusTerminated)
}

func (s *LeaseService) transition(ctx context.Context, p policy.Principal, id uuid.UUID, from, to models.LeaseStatus) (*models.LeaseContract, error) {
	lease, err := s.leases.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if lease.Status != from {
		return nil, fmt.Errorf("%w: cannot move lease from %s to %s", apperr.ErrInvalidState, lease.Status, to)
	}

	now := s.clock.Now()
	ok, err := s.leases.UpdateStatus(ctx, id, from, to, p.UserID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: lease changed state concurrently", apperr.ErrInvalidState)
	}

	lease.Status = to
	lease.DecidedBy = &p.UserID
	lease.DecidedAt = &now
	lease.UpdatedAt = now

	s.logTransition(ctx, p, lease, from)
	return lease, nil
}

// Get returns one lease to its lessee or to a supervisor
func (s *LeaseService) Get(ctx context.Context, p policy.Principal, id uuid.UUID) (*models.LeaseContract, error) {
	lease, err := s.leases.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.AuthorizeOwnerOr(p, lease.UserID, policy.CreateLeaseRequest, policy.ViewAllLeases); err != nil {
		return nil, err
	}
	return lease, nil
}

// List returns all leases to supervisors and the caller's own leases otherwise
func (s *LeaseService) List(ctx context.Context, p policy.Principal, status *models.LeaseStatus, mineOnly bool) ([]models.LeaseContract, error) {
	filter := models.LeaseFilter{}
	if status != nil {
		filter.Statuses = []models.LeaseStatus{*status}
	}

	if mineOnly || !policy.Can(p, policy.ViewAllLeases) {
		if err := policy.Authorize(p, policy.CreateLeaseRequest); err != nil {
			return nil, err
		}
		filter.UserID = &p.UserID
	}

	return s.leases.List(ctx, filter)
}

func (s *LeaseService) logTransition(ctx context.Context, p policy.Principal, l *models.LeaseContract, from models.LeaseStatus) {
	s.logger.WithFields(logrus.Fields{
		"lease_id":    l.ID,
		"resource_id": l.ResourceID,
		"from":        from,
		"to":          l.Status,
		"actor":       p.Username,
	}).Info("Lease status changed")

	s.audit.LogTransition(ctx, p.UserID, "lease", l.ID, string(from), string(l.Status))
}
