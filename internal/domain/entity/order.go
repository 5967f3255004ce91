package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/economy-api/internal/domain/enum"
	"gorm.io/datatypes"
)

// Order represents a revenue purchase. Amounts are stored in minor units.
type Order struct {
	ID             string           `gorm:"size:120;primaryKey" json:"id"`
	UserID         uuid.UUID        `gorm:"type:uuid;not null;index:idx_orders_user_stream_created,priority:1" json:"user_id"`
	Stream         string           `gorm:"size:64;not null;index:idx_orders_user_stream_created,priority:2" json:"stream"`
	Status         enum.OrderStatus `gorm:"size:32;not null;default:'pending'" json:"status"`
	Currency       string           `gorm:"size:8;not null;default:'USD'" json:"currency"`
	SubtotalAmount int64            `gorm:"not null;default:0" json:"subtotal_amount"`
	TaxAmount      int64            `gorm:"not null;default:0" json:"tax_amount"`
	DiscountAmount int64            `gorm:"not null;default:0" json:"discount_amount"`
	TotalAmount    int64            `gorm:"not null;default:0" json:"total_amount"`
	Metadata       datatypes.JSON   `json:"metadata"`
	CreatedAt      time.Time        `gorm:"index:idx_orders_user_stream_created,priority:3" json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`

	// Relationships
	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

// TableName returns the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// OrderItem represents a line item in an order
type OrderItem struct {
	ID          string         `gorm:"size:120;primaryKey" json:"id"`
	OrderID     string         `gorm:"size:120;not null;index" json:"order_id"`
	SkuID       string         `gorm:"size:120;not null" json:"sku_id"`
	Quantity    int64          `gorm:"not null" json:"quantity"`
	UnitAmount  int64          `gorm:"not null" json:"unit_amount"`
	TotalAmount int64          `gorm:"not null" json:"total_amount"`
	Metadata    datatypes.JSON `json:"metadata"`
	CreatedAt   time.Time      `json:"created_at"`
}

// TableName returns the table name for the OrderItem model
func (OrderItem) TableName() string {
	return "order_items"
}

// Sku is a purchasable catalogue entry on a revenue stream
type Sku struct {
	ID         string         `gorm:"size:120;primaryKey" json:"id"`
	SkuKey     string         `gorm:"size:120;uniqueIndex;not null" json:"sku_key"`
	Stream     string         `gorm:"size:64;not null;index" json:"stream"`
	Name       string         `gorm:"size:255;not null" json:"name"`
	Currency   string         `gorm:"size:8;not null;default:'USD'" json:"currency"`
	UnitAmount int64          `gorm:"not null;default:0" json:"unit_amount"`
	Metadata   datatypes.JSON `json:"metadata"`
	IsActive   bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// TableName returns the table name for the Sku model
func (Sku) TableName() string {
	return "skus"
}
