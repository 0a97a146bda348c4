package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog records a mutation performed within a tenant's scope.
type AuditLog struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	TenantID   uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	UserID     *uuid.UUID `json:"user_id,omitempty" db:"user_id"`
	Action     string     `json:"action" db:"action"`
	EntityType string     `json:"entity_type" db:"entity_type"`
	EntityID   uuid.UUID  `json:"entity_id" db:"entity_id"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}
