package enum

import (
	"database/sql/driver"
	"fmt"
)

// OrderStatus represents the status of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusFailed    OrderStatus = "failed"
)

func (s OrderStatus) String() string {
	return string(s)
}

func (s OrderStatus) Value() (driver.Value, error) {
	return string(s), nil
}

func (s *OrderStatus) Scan(value interface{}) error {
	switch v := value.(type) {
	case string:
		*s = OrderStatus(v)
	case []byte:
		*s = OrderStatus(v)
	case nil:
		*s = OrderStatusPending
	default:
		return fmt.Errorf("unsupported order status type %T", value)
	}
	return nil
}
