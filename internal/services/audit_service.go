package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/deskhub/facility-backend/internal/models"
	"github.com/deskhub/facility-backend/internal/policy"
	"github.com/deskhub/facility-backend/internal/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RequestMeta identifies the client behind a request for audit entries
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

type requestMetaKey struct{}

// WithRequestMeta attaches client details to ctx
func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFrom returns the client details attached by WithRequestMeta
func RequestMetaFrom(ctx context.Context) RequestMeta {
	meta, _ := ctx.Value(requestMetaKey{}).(RequestMeta)
	return meta
}

// AuditService records security and workflow events
type AuditService struct {
	store   AuditStore
	enabled bool
	clock   Clock
	logger  *logrus.Logger
}

// NewAuditService creates a new audit service. A disabled service only logs.
func NewAuditService(store AuditStore, enabled bool, clock Clock, logger *logrus.Logger) *AuditService {
	return &AuditService{
		store:   store,
		enabled: enabled,
		clock:   clock,
		logger:  logger,
	}
}

// AuditEvent represents an event to be logged
type AuditEvent struct {
	UserID     *uuid.UUID             // nil for pre-authentication events
	Action     string                 // e.g. "login", "booking_approved"
	EntityType string                 // e.g. "user", "booking", "lease"
	EntityID   *uuid.UUID             // affected entity, if any
	Details    map[string]interface{} // stored as JSONB
}

// LogLogin records a successful login
func (s *AuditService) LogLogin(ctx context.Context, userID uuid.UUID, username string) {
	s.record(ctx, AuditEvent{
		UserID:     &userID,
		Action:     "login",
		EntityType: "user",
		EntityID:   &userID,
		Details:    map[string]interface{}{"username": username},
	})
}

// LogLoginFailed records a rejected login attempt
func (s *AuditService) LogLoginFailed(ctx context.Context, username, reason string) {
	s.record(ctx, AuditEvent{
		Action:     "login_failed",
		EntityType: "user",
		Details:    map[string]interface{}{"username": username, "reason": reason},
	})
}

// LogLogout records a logout
func (s *AuditService) LogLogout(ctx context.Context, userID uuid.UUID) {
	s.record(ctx, AuditEvent{
		UserID:     &userID,
		Action:     "logout",
		EntityType: "user",
		EntityID:   &userID,
	})
}

// LogTransition records a status change made by actor on an entity
func (s *AuditService) LogTransition(ctx context.Context, actor uuid.UUID, entityType string, entityID uuid.UUID, from, to string) {
	s.record(ctx, AuditEvent{
		UserID:     &actor,
		Action:     fmt.Sprintf("%s_%s", entityType, to),
		EntityType: entityType,
		EntityID:   &entityID,
		Details:    map[string]interface{}{"from": from, "to": to},
	})
}

// LogChange records an administrative change with free-form details
func (s *AuditService) LogChange(ctx context.Context, actor uuid.UUID, action, entityType string, entityID *uuid.UUID, details map[string]interface{}) {
	s.record(ctx, AuditEvent{
		UserID:     &actor,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
	})
}

// Recent returns the newest audit entries
func (s *AuditService) Recent(ctx context.Context, p policy.Principal, limit int) ([]models.AuditLog, error) {
	if err := policy.Authorize(p, policy.AccessAdminPanel); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.store.Recent(ctx, limit)
}

// record never fails the caller; audit problems are logged and swallowed
func (s *AuditService) record(ctx context.Context, event AuditEvent) {
	if s == nil {
		return
	}

	meta := RequestMetaFrom(ctx)
	if event.Details == nil {
		event.Details = make(map[string]interface{})
	}
	if meta.UserAgent != "" {
		event.Details["device_info"] = utils.ParseUserAgent(meta.UserAgent)
	}

	fields := logrus.Fields{
		"action":      event.Action,
		"entity_type": event.EntityType,
		"ip":          meta.IPAddress,
	}
	if event.UserID != nil {
		fields["user_id"] = event.UserID.String()
	}
	if event.EntityID != nil {
		fields["entity_id"] = event.EntityID.String()
	}

	if !s.enabled {
		s.logger.WithFields(fields).Debug("Audit event")
		return
	}

	details, err := json.Marshal(event.Details)
	if err != nil {
		s.logger.WithError(err).WithFields(fields).Warn("Failed to encode audit details")
		details = []byte("{}")
	}

	entry := &models.AuditLog{
		Action:     event.Action,
		EntityType: event.EntityType,
		IPAddress:  meta.IPAddress,
		UserAgent:  meta.UserAgent,
		Details:    details,
		CreatedAt:  s.clock.Now(),
	}
	if event.UserID != nil {
		entry.UserID = uuid.NullUUID{UUID: *event.UserID, Valid: true}
	}
	if event.EntityID != nil {
		entry.EntityID = uuid.NullUUID{UUID: *event.EntityID, Valid: true}
	}

	if err := s.store.Insert(ctx, entry); err != nil {
		s.logger.WithError(err).WithFields(fields).Warn("Failed to write audit log")
	}
}
