package database

import (
	"context"
	"fmt"

	"github.com/deskhub/facility-backend/internal/models"
	"github.com/jmoiron/sqlx"
)

// AuditRepository persists audit_logs rows
type AuditRepository struct {
	db DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Insert writes one audit entry
func (r *AuditRepository) Insert(ctx context.Context, entry *models.AuditLog) error {
	query := `
		INSERT INTO audit_logs (
			user_id, action, entity_type, entity_id, ip_address, user_agent, details, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	details := []byte(entry.Details)
	if len(details) == 0 {
		details = []byte("{}")
	}

	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		entry.UserID, entry.Action, entry.EntityType, entry.EntityID,
		entry.IPAddress, entry.UserAgent, details, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}
	return nil
}

// Recent returns the newest audit entries
func (r *AuditRepository) Recent(ctx context.Context, limit int) ([]models.AuditLog, error) {
	logs := []models.AuditLog{}
	query := `
		SELECT id, user_id, action, entity_type, entity_id, ip_address, user_agent, details, created_at
		FROM audit_logs
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`
	if err := sqlx.SelectContext(ctx, conn(ctx, r.db), &logs, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return logs, nil
}
