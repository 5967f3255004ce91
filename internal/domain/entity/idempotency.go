package entity

import (
	"time"

	"github.com/sangkips/economy-api/internal/domain/enum"
	"gorm.io/datatypes"
)

// IdempotencyRecord claims a (scope, key) pair for a single logical mutation and stores
// the response that is replayed to every retry
type IdempotencyRecord struct {
	ID             string                 `gorm:"size:120;primaryKey" json:"id"`
	Scope          string                 `gorm:"size:120;not null;uniqueIndex:ux_idempotency_scope_key,priority:1" json:"scope"`
	IdempotencyKey string                 `gorm:"column:idempotency_key;size:255;not null;uniqueIndex:ux_idempotency_scope_key,priority:2" json:"idempotency_key"`
	Status         enum.IdempotencyStatus `gorm:"size:32;not null;index" json:"status"`
	RequestHash    string                 `gorm:"size:64;not null" json:"request_hash"`
	LockedUntil    *time.Time             `json:"locked_until,omitempty"`
	AttemptCount   int                    `gorm:"not null;default:1" json:"attempt_count"`
	ResponseCode   *int                   `json:"response_code,omitempty"`
	ResponseBody   datatypes.JSON         `gorm:"type:json" json:"response_body,omitempty"` // json, not jsonb: replay must be byte-identical
	ResourceType   string                 `gorm:"size:120" json:"resource_type,omitempty"`
	ResourceID     string                 `gorm:"size:255" json:"resource_id,omitempty"`
	ExpiresAt      time.Time              `gorm:"not null;index" json:"expires_at"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
	LastSeenAt     time.Time              `json:"last_seen_at"`
}

// TableName returns the table name for IdempotencyRecord
func (IdempotencyRecord) TableName() string {
	return "idempotency_keys"
}

// LockExpired reports whether an in-progress attempt has outlived its lease
func (r *IdempotencyRecord) LockExpired(now time.Time) bool {
	return r.LockedUntil == nil || !r.LockedUntil.After(now)
}

// IsExpired checks if the record is past its retention window
func (r *IdempotencyRecord) IsExpired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}
