package model

import (
	"time"

	"github.com/google/uuid"
)

type AuditLog struct {
	ID           uuid.UUID `db:"id" json:"id"`
	ActorID      uuid.UUID `db:"actor_id" json:"actor_id"`
	Action       string    `db:"action" json:"action"`
	ResourceType string    `db:"resource_type" json:"resource_type"`
	ResourceID   uuid.UUID `db:"resource_id" json:"resource_id"`
	Changes      JSONMap   `db:"changes" json:"changes,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type AuditFilters struct {
	ActorID      uuid.UUID
	ResourceType string
	ResourceID   uuid.UUID
	From         time.Time
	To           time.Time
}
