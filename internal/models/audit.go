package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditLog is one recorded workflow or security event
type AuditLog struct {
	ID         int64           `json:"id" db:"id"`
	UserID     uuid.NullUUID   `json:"user_id" db:"user_id"`
	Action     string          `json:"action" db:"action"`
	EntityType string          `json:"entity_type" db:"entity_type"`
	EntityID   uuid.NullUUID   `json:"entity_id" db:"entity_id"`
	IPAddress  string          `json:"ip_address" db:"ip_address"`
	UserAgent  string          `json:"user_agent" db:"user_agent"`
	Details    json.RawMessage `json:"details" db:"details"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}
