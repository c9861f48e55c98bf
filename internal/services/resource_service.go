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

// ResourceService manages the bookable inventory
type ResourceService struct {
	resources ResourceStore
	bookings  BookingStore
	settings  *SettingService
	audit     *AuditService
	clock     Clock
	logger    *logrus.Logger
}

// NewResourceService creates a new resource service
func NewResourceService(resources ResourceStore, bookings BookingStore, settings *SettingService, audit *AuditService, clock Clock, logger *logrus.Logger) *ResourceService {
	return &ResourceService{
		resources: resources,
		bookings:  bookings,
		settings:  settings,
		audit:     audit,
		clock:     clock,
		logger:    logger,
	}
}

// Create adds a resource. Status defaults to available.
func (s *ResourceService) Create(ctx context.Context, p policy.Principal, req models.CreateResourceRequest) (*models.Resource, error) {
	if err := policy.Authorize(p, policy.ManageResources); err != nil {
		return nil, err
	}

	resourceType, err := models.ParseResourceType(req.Type)
	if err != nil {
		return nil, err
	}
	status := models.ResourceStatusAvailable
	if req.Status != "" {
		if status, err = models.ParseResourceStatus(req.Status); err != nil {
			return nil, err
		}
	}

	now := s.clock.Now()
	resource := &models.Resource{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(req.Name),
		Type:         resourceType,
		Description:  req.Description,
		Capacity:     req.Capacity,
		Location:     req.Location,
		Amenities:    req.Amenities,
		PricePerHour: req.PricePerHour,
		MonthlyPrice: req.MonthlyPrice,
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := validateResource(resource); err != nil {
		return nil, err
	}

	if err := s.resources.Create(ctx, resource); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"resource_id": resource.ID,
		"name":        resource.Name,
		"type":        resource.Type,
	}).Info("Resource created")

	s.audit.LogChange(ctx, p.UserID, "resource_created", "resource", &resource.ID,
		map[string]interface{}{"name": resource.Name, "type": resource.Type})
	return resource, nil
}

// Update applies a partial change to a resource
func (s *ResourceService) Update(ctx context.Context, p policy.Principal, id uuid.UUID, req models.UpdateResourceRequest) (*models.Resource, error) {
	if err := policy.Authorize(p, policy.ManageResources); err != nil {
		return nil, err
	}

	resource, err := s.resources.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		resource.Name = strings.TrimSpace(*req.Name)
	}
	if req.Type != nil {
		if resource.Type, err = models.ParseResourceType(*req.Type); err != nil {
			return nil, err
		}
	}
	if req.Description != nil {
		resource.Description = *req.Description
	}
	if req.Capacity != nil {
		resource.Capacity = *req.Capacity
	}
	if req.Location != nil {
		resource.Location = *req.Location
	}
	if req.Amenities != nil {
		resource.Amenities = *req.Amenities
	}
	if req.PricePerHour != nil {
		resource.PricePerHour = *req.PricePerHour
	}
	if req.MonthlyPrice != nil {
		resource.MonthlyPrice = req.MonthlyPrice
	}
	if req.Status != nil {
		if resource.Status, err = models.ParseResourceStatus(*req.Status); err != nil {
			return nil, err
		}
	}
	if err := validateResource(resource); err != nil {
		return nil, err
	}
	resource.UpdatedAt = s.clock.Now()

	if err := s.resources.Update(ctx, resource); err != nil {
		return nil, err
	}

	s.audit.LogChange(ctx, p.UserID, "resource_updated", "resource", &resource.ID, nil)
	return resource, nil
}

// SetStatus changes only the operational status of a resource
func (s *ResourceService) SetStatus(ctx context.Context, p policy.Principal, id uuid.UUID, status string) (*models.Resource, error) {
	if err := policy.Authorize(p, policy.SetResourceStatus); err != nil {
		return nil, err
	}

	next, err := models.ParseResourceStatus(status)
	if err != nil {
		return nil, err
	}

	resource, err := s.resources.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := resource.Status
	resource.Status = next
	resource.UpdatedAt = s.clock.Now()

	if err := s.resources.Update(ctx, resource); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"resource_id": resource.ID,
		"from":        previous,
		"to":          next,
	}).Info("Resource status changed")

	s.audit.LogTransition(ctx, p.UserID, "resource", resource.ID, string(previous), string(next))
	return resource, nil
}

// List returns the inventory, optionally narrowed to one type
func (s *ResourceService) List(ctx context.Context, p policy.Principal, resourceType *models.ResourceType) ([]models.Resource, error) {
	if err := policy.Authorize(p, policy.ViewResources); err != nil {
		return nil, err
	}
	return s.resources.List(ctx, resourceType)
}

// Get returns a resource with its next approved bookings
func (s *ResourceService) Get(ctx context.Context, p policy.Principal, id uuid.UUID) (*models.ResourceDetail, error) {
	if err := policy.Authorize(p, policy.ViewResources); err != nil {
		return nil, err
	}

	resource, err := s.resources.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	upcoming, err := s.bookings.Upcoming(ctx, resource.ID, s.clock.Now(), s.settings.UpcomingBookingsLimit(ctx))
	if err != nil {
		return nil, err
	}
	if upcoming == nil {
		upcoming = []models.Booking{}
	}

	return &models.ResourceDetail{Resource: *resource, UpcomingBookings: upcoming}, nil
}

func validateResource(r *models.Resource) error {
	if r.Name == "" {
		return fmt.Errorf("%w: resource name is required", apperr.ErrInvalidInput)
	}
	if r.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be greater than zero", apperr.ErrInvalidInput)
	}
	if r.PricePerHour < 0 || (r.MonthlyPrice != nil && *r.MonthlyPrice < 0) {
		return fmt.Errorf("%w: prices must not be negative", apperr.ErrInvalidInput)
	}
	return nil
}
