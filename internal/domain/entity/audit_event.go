package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AuditEvent is an append-only record of an economy state change or failed attempt
type AuditEvent struct {
	ID             string         `gorm:"size:120;primaryKey" json:"id"`
	ActorUserID    *uuid.UUID     `gorm:"type:uuid;index" json:"actor_user_id,omitempty"`
	TargetUserID   *uuid.UUID     `gorm:"type:uuid;index" json:"target_user_id,omitempty"`
	EntityType     string         `gorm:"size:120;not null" json:"entity_type"`
	EntityID       *string        `gorm:"size:255" json:"entity_id,omitempty"`
	EventType      string         `gorm:"size:120;not null;index" json:"event_type"`
	Severity       string         `gorm:"size:32;not null;default:'info'" json:"severity"`
	Message        *string        `gorm:"size:500" json:"message,omitempty"`
	RequestID      *string        `gorm:"size:120" json:"request_id,omitempty"`
	IdempotencyKey *string        `gorm:"size:255;index" json:"idempotency_key,omitempty"`
	Metadata       datatypes.JSON `json:"metadata"`
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`
}

// TableName returns the table name for AuditEvent
func (AuditEvent) TableName() string {
	return "economy_audit_log"
}
