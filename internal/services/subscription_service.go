package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/deskhub/facility-backend/internal/apperr"
	"github.com/deskhub/facility-backend/internal/conflict"
	"github.com/deskhub/facility-backend/internal/models"
	"github.com/deskhub/facility-backend/internal/policy"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SubscriptionService validates and records membership subscriptions.
// A user may hold several subscriptions at once.
type SubscriptionService struct {
	subscriptions SubscriptionStore
	plans         PlanStore
	audit         *AuditService
	clock         Clock
	logger        *logrus.Logger
}

// NewSubscriptionService creates a new subscription service
func NewSubscriptionService(subscriptions SubscriptionStore, plans PlanStore, audit *AuditService, clock Clock, logger *logrus.Logger) *SubscriptionService {
	return &SubscriptionService{
		subscriptions: subscriptions,
		plans:         plans,
		audit:         audit,
		clock:         clock,
		logger:        logger,
	}
}

// Create subscribes the principal to an active plan. A nil end runs the
// plan's full duration from start.
func (s *SubscriptionService) Create(ctx context.Context, p policy.Principal, planID uuid.UUID, start time.Time, end *time.Time) (*models.Subscription, error) {
	if err := policy.Authorize(p, policy.CreateSubscription); err != nil {
		return nil, err
	}

	start = conflict.Day(start, time.UTC)
	if start.Before(s.clock.Today()) {
		return nil, apperr.ErrPastStartDate
	}

	plan, err := s.plans.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, fmt.Errorf("%w: membership plan %s does not exist", apperr.ErrInvalidInput, planID)
		}
		return nil, err
	}
	if !plan.IsActive {
		return nil, fmt.Errorf("%w: membership plan %s is not active", apperr.ErrInvalidInput, plan.Name)
	}

	var endDate time.Time
	if end != nil {
		endDate = conflict.Day(*end, time.UTC)
	} else {
		endDate = start.AddDate(0, 0, plan.DurationDays)
	}

	period := conflict.Interval{Start: start, End: endDate}
	if !period.Valid() {
		return nil, fmt.Errorf("%w: end date %s is not after start date %s", apperr.ErrInvalidRange,
			endDate.Format(conflict.DateLayout), start.Format(conflict.DateLayout))
	}

	now := s.clock.Now()
	sub := &models.Subscription{
		ID:        uuid.New(),
		UserID:    p.UserID,
		PlanID:    plan.ID,
		StartDate: models.NewDate(period.Start),
		EndDate:   models.NewDate(period.End),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.subscriptions.Create(ctx, sub); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"subscription_id": sub.ID,
		"plan":            plan.Name,
		"user_id":         p.UserID,
	}).Info("Subscription created")

	s.audit.LogChange(ctx, p.UserID, "subscription_created", "subscription", &sub.ID,
		map[string]interface{}{"plan_id": plan.ID.String(), "start_date": sub.StartDate.String(), "end_date": sub.EndDate.String()})

	return sub, nil
}

// Cancel deactivates a subscription. Owners cancel their own; staff and
// admins cancel any.
func (s *SubscriptionService) Cancel(ctx context.Context, p policy.Principal, id uuid.UUID) (*models.Subscription, error) {
	sub, err := s.subscriptions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.AuthorizeOwnerOr(p, sub.UserID, policy.CancelOwnSubscription, policy.CancelAnySubscription); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	ok, err := s.subscriptions.Deactivate(ctx, id, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: subscription is already cancelled", apperr.ErrInvalidState)
	}

	sub.IsActive = false
	sub.UpdatedAt = now

	s.audit.LogChange(ctx, p.UserID, "subscription_cancelled", "subscription", &sub.ID, nil)
	return sub, nil
}

// Get returns one subscription to its owner or to a supervisor
func (s *SubscriptionService) Get(ctx context.Context, p policy.Principal, id uuid.UUID) (*models.Subscription, error) {
	sub, err := s.subscriptions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.AuthorizeOwnerOr(p, sub.UserID, policy.ViewOwnData, policy.ViewAllSubscriptions); err != nil {
		return nil, err
	}
	return sub, nil
}

// List returns all subscriptions to supervisors and the caller's own otherwise
func (s *SubscriptionService) List(ctx context.Context, p policy.Principal, mineOnly bool) ([]models.Subscription, error) {
	filter := models.SubscriptionFilter{}
	if mineOnly || !policy.Can(p, policy.ViewAllSubscriptions) {
		if err := policy.Authorize(p, policy.ViewOwnData); err != nil {
			return nil, err
		}
		filter.UserID = &p.UserID
	}
	return s.subscriptions.List(ctx, filter)
}

// ActiveFor returns the principal's first currently active subscription, or nil
func (s *SubscriptionService) ActiveFor(ctx context.Context, p policy.Principal) (*models.Subscription, error) {
	if err := policy.Authorize(p, policy.ViewOwnData); err != nil {
		return nil, err
	}
	sub, err := s.subscriptions.FirstActive(ctx, p.UserID, s.clock.Today())
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return sub, nil
}

func (s *SubscriptionService) activeTotals(ctx context.Context) (int, float64, error) {
	return s.subscriptions.ActiveTotals(ctx, s.clock.Today())
}
