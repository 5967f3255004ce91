package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/economy-api/internal/domain/enum"
	"gorm.io/datatypes"
)

// Entitlement is a granted, consumable capability such as a tournament ticket or booster charge
type Entitlement struct {
	ID               string                 `gorm:"size:120;primaryKey" json:"id"`
	UserID           uuid.UUID              `gorm:"type:uuid;not null;index:idx_entitlements_user_type,priority:1" json:"user_id"`
	EntitlementType  string                 `gorm:"size:120;not null;index:idx_entitlements_user_type,priority:2" json:"entitlement_type"`
	Status           enum.EntitlementStatus `gorm:"size:32;not null;default:'active'" json:"status"`
	Quantity         int64                  `gorm:"not null;check:chk_entitlements_quantity,quantity > 0" json:"quantity"`
	ConsumedQuantity int64                  `gorm:"not null;default:0;check:chk_entitlements_consumed,consumed_quantity >= 0 AND consumed_quantity <= quantity" json:"consumed_quantity"`
	SkuID            *string                `gorm:"size:120" json:"sku_id,omitempty"`
	GrantedByOrderID *string                `gorm:"size:120;index" json:"granted_by_order_id,omitempty"`
	GrantedReason    string                 `gorm:"size:120" json:"granted_reason,omitempty"`
	StartsAt         time.Time              `gorm:"not null" json:"starts_at"`
	ExpiresAt        *time.Time             `json:"expires_at,omitempty"`
	Metadata         datatypes.JSON         `json:"metadata"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

// TableName returns the table name for the Entitlement model
func (Entitlement) TableName() string {
	return "entitlements"
}

// Remaining returns the number of units that can still be consumed
func (e *Entitlement) Remaining() int64 {
	if r := e.Quantity - e.ConsumedQuantity; r > 0 {
		return r
	}
	return 0
}

// IsActiveAt reports whether the entitlement is active and unexpired at now
func (e *Entitlement) IsActiveAt(now time.Time) bool {
	if e.Status != enum.EntitlementStatusActive {
		return false
	}
	return e.ExpiresAt == nil || e.ExpiresAt.After(now)
}

// IsUsable reports whether at least one unit can be consumed at now
func (e *Entitlement) IsUsable(now time.Time) bool {
	return e.IsActiveAt(now) && e.Remaining() > 0
}

// EntitlementConsumption records one consumption of entitlement units
type EntitlementConsumption struct {
	ID             string         `gorm:"size:120;primaryKey" json:"id"`
	EntitlementID  string         `gorm:"size:120;not null;index" json:"entitlement_id"`
	UserID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Quantity       int64          `gorm:"not null" json:"quantity"`
	IdempotencyKey *string        `gorm:"size:255" json:"idempotency_key,omitempty"`
	Metadata       datatypes.JSON `json:"metadata"`
	CreatedAt      time.Time      `json:"created_at"`
}

// TableName returns the table name for the EntitlementConsumption model
func (EntitlementConsumption) TableName() string {
	return "entitlement_consumptions"
}
