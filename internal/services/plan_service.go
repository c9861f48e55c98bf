package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/deskhub/facility-backend/internal/apperr"
	"github.com/deskhub/facility-backend/internal/models"
	"github.com/deskhub/facility-backend/internal/policy"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// PlanService manages the membership plan catalogue
type PlanService struct {
	plans  PlanStore
	audit  *AuditService
	clock  Clock
	logger *logrus.Logger
}

// NewPlanService creates a new plan service
func NewPlanService(plans PlanStore, audit *AuditService, clock Clock, logger *logrus.Logger) *PlanService {
	return &PlanService{plans: plans, audit: audit, clock: clock, logger: logger}
}

// Create adds a plan. Plans are active unless the request says otherwise.
func (s *PlanService) Create(ctx context.Context, p policy.Principal, req models.CreatePlanRequest) (*models.MembershipPlan, error) {
	if err := policy.Authorize(p, policy.ManageMembershipPlans); err != nil {
		return nil, err
	}

	level, err := models.ParseAccessLevel(req.AccessLevel)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: plan name is required", apperr.ErrInvalidInput)
	}
	if req.Price < 0 || req.DurationDays < 1 {
		return nil, fmt.Errorf("%w: price must not be negative and duration must be at least one day", apperr.ErrInvalidInput)
	}

	now := s.clock.Now()
	plan := &models.MembershipPlan{
		ID:           uuid.New(),
		Name:         name,
		Description:  req.Description,
		Price:        req.Price,
		DurationDays: req.DurationDays,
		AccessLevel:  level,
		IsActive:     req.IsActive == nil || *req.IsActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.plans.Create(ctx, plan); err != nil {
		return nil, err
	}

	s.audit.LogChange(ctx, p.UserID, "plan_created", "membership_plan", &plan.ID,
		map[string]interface{}{"name": plan.Name, "price": plan.Price})
	return plan, nil
}

// Update applies a partial change to a plan
func (s *PlanService) Update(ctx context.Context, p policy.Principal, id uuid.UUID, req models.UpdatePlanRequest) (*models.MembershipPlan, error) {
	if err := policy.Authorize(p, policy.ManageMembershipPlans); err != nil {
		return nil, err
	}

	plan, err := s.plans.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: plan name is required", apperr.ErrInvalidInput)
		}
		plan.Name = name
	}
	if req.Description != nil {
		plan.Description = *req.Description
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return nil, fmt.Errorf("%w: price must not be negative", apperr.ErrInvalidInput)
		}
		plan.Price = *req.Price
	}
	if req.DurationDays != nil {
		if *req.DurationDays < 1 {
			return nil, fmt.Errorf("%w: duration must be at least one day", apperr.ErrInvalidInput)
		}
		plan.DurationDays = *req.DurationDays
	}
	if req.AccessLevel != nil {
		level, err := models.ParseAccessLevel(*req.AccessLevel)
		if err != nil {
			return nil, err
		}
		plan.AccessLevel = level
	}
	if req.IsActive != nil {
		plan.IsActive = *req.IsActive
	}
	plan.UpdatedAt = s.clock.Now()

	if err := s.plans.Update(ctx, plan); err != nil {
		return nil, err
	}

	s.audit.LogChange(ctx, p.UserID, "plan_updated", "membership_plan", &plan.ID, nil)
	return plan, nil
}

// List returns active plans to everyone. includeInactive requires plan management.
func (s *PlanService) List(ctx context.Context, p policy.Principal, includeInactive bool) ([]models.MembershipPlan, error) {
	action := policy.ViewActiveMembershipPlans
	if includeInactive {
		action = policy.ManageMembershipPlans
	}
	if err := policy.Authorize(p, action); err != nil {
		return nil, err
	}
	return s.plans.List(ctx, !includeInactive)
}

// Get returns one plan. Inactive plans are hidden from non-admins.
func (s *PlanService) Get(ctx context.Context, p policy.Principal, id uuid.UUID) (*models.MembershipPlan, error) {
	if err := policy.Authorize(p, policy.ViewActiveMembershipPlans); err != nil {
		return nil, err
	}
	plan, err := s.plans.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !plan.IsActive && !policy.Can(p, policy.ManageMembershipPlans) {
		return nil, fmt.Errorf("membership plan %w", apperr.ErrNotFound)
	}
	return plan, nil
}
