package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	TenantStatusActive   = "active"
	TenantStatusInactive = "inactive"
)

// Tenant is a registry entry. The ID never changes after creation;
// deactivation flips Status, the row is never deleted while dependent
// business data exists.
type Tenant struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	Subdomain string     `json:"subdomain" db:"subdomain"`
	Status    string     `json:"status" db:"status"`
	OwnerID   *uuid.UUID `json:"owner_id,omitempty" db:"owner_id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

func (t *Tenant) Active() bool {
	return t.Status == TenantStatusActive
}
