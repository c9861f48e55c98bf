package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/deskhub/facility-backend/internal/apperr"
	"github.com/deskhub/facility-backend/internal/config"
	"github.com/deskhub/facility-backend/internal/models"
	"github.com/deskhub/facility-backend/internal/policy"
	"github.com/sirupsen/logrus"
)

// SettingService manages admin-editable settings and resolves them against
// the static configuration.
type SettingService struct {
	store    SettingStore
	defaults config.BookingConfig
	audit    *AuditService
	clock    Clock
	logger   *logrus.Logger
}

// NewSettingService creates a new setting service
func NewSettingService(store SettingStore, defaults config.BookingConfig, audit *AuditService, clock Clock, logger *logrus.Logger) *SettingService {
	return &SettingService{
		store:    store,
		defaults: defaults,
		audit:    audit,
		clock:    clock,
		logger:   logger,
	}
}

// List returns every stored setting
func (s *SettingService) List(ctx context.Context, p policy.Principal) ([]models.SystemSetting, error) {
	if err := policy.Authorize(p, policy.ManageSystemSettings); err != nil {
		return nil, err
	}
	return s.store.GetAll(ctx)
}

// Get returns one setting
func (s *SettingService) Get(ctx context.Context, p policy.Principal, key string) (*models.SystemSetting, error) {
	if err := policy.Authorize(p, policy.ManageSystemSettings); err != nil {
		return nil, err
	}
	return s.store.GetByKey(ctx, key)
}

// Update stores a setting value. Known keys are type-checked.
func (s *SettingService) Update(ctx context.Context, p policy.Principal, key string, req models.UpdateSystemSettingRequest) (*models.SystemSetting, error) {
	if err := policy.Authorize(p, policy.ManageSystemSettings); err != nil {
		return nil, err
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("%w: setting key is required", apperr.ErrInvalidInput)
	}

	value := strings.TrimSpace(req.SettingValue)
	switch key {
	case models.SettingRejectUnavailableResources:
		if _, err := strconv.ParseBool(value); err != nil {
			return nil, fmt.Errorf("%w: %s must be true or false", apperr.ErrInvalidInput, key)
		}
	case models.SettingUpcomingBookingsLimit:
		if n, err := strconv.Atoi(value); err != nil || n < 1 {
			return nil, fmt.Errorf("%w: %s must be a positive integer", apperr.ErrInvalidInput, key)
		}
	}

	updatedBy := p.Username
	setting := &models.SystemSetting{
		SettingKey:   key,
		SettingValue: value,
		Description:  req.Description,
		UpdatedBy:    &updatedBy,
		UpdatedAt:    s.clock.Now(),
	}
	if err := s.store.Upsert(ctx, setting); err != nil {
		return nil, err
	}

	s.audit.LogChange(ctx, p.UserID, "setting_updated", "setting", nil,
		map[string]interface{}{"key": key, "value": value})

	return s.store.GetByKey(ctx, key)
}

// RejectUnavailableResources reports whether bookings on maintenance or
// unavailable resources are refused.
func (s *SettingService) RejectUnavailableResources(ctx context.Context) bool {
	return s.boolValue(ctx, models.SettingRejectUnavailableResources, s.defaults.RejectUnavailableResources)
}

// UpcomingBookingsLimit is how many upcoming bookings a resource detail shows
func (s *SettingService) UpcomingBookingsLimit(ctx context.Context) int {
	return s.intValue(ctx, models.SettingUpcomingBookingsLimit, s.defaults.UpcomingLimit)
}

func (s *SettingService) boolValue(ctx context.Context, key string, defaultValue bool) bool {
	setting, err := s.lookup(ctx, key)
	if err != nil || setting == nil {
		return defaultValue
	}
	value, err := strconv.ParseBool(setting.SettingValue)
	if err != nil {
		return defaultValue
	}
	return value
}

func (s *SettingService) intValue(ctx context.Context, key string, defaultValue int) int {
	setting, err := s.lookup(ctx, key)
	if err != nil || setting == nil {
		return defaultValue
	}
	value, err := strconv.Atoi(setting.SettingValue)
	if err != nil || value < 1 {
		return defaultValue
	}
	return value
}

func (s *SettingService) lookup(ctx context.Context, key string) (*models.SystemSetting, error) {
	if s == nil {
		return nil, nil
	}
	setting, err := s.store.GetByKey(ctx, key)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			s.logger.WithError(err).WithField("key", key).Warn("Failed to read setting, using default")
		}
		return nil, err
	}
	return setting, nil
}
