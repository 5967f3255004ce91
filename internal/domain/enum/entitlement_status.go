package enum

import (
	"database/sql/driver"
	"fmt"
)

// EntitlementStatus represents the state of a granted entitlement
type EntitlementStatus string

const (
	EntitlementStatusActive  EntitlementStatus = "active"
	EntitlementStatusRevoked EntitlementStatus = "revoked"
	EntitlementStatusExpired EntitlementStatus = "expired"
)

func (s EntitlementStatus) String() string {
	return string(s)
}

// IsValid reports whether s is a known status
func (s EntitlementStatus) IsValid() bool {
	switch s {
	case EntitlementStatusActive, EntitlementStatusRevoked, EntitlementStatusExpired:
		return true
	}
	return false
}

func (s EntitlementStatus) Value() (driver.Value, error) {
	return string(s), nil
}

func (s *EntitlementStatus) Scan(value interface{}) error {
	switch v := value.(type) {
	case string:
		*s = EntitlementStatus(v)
	case []byte:
		*s = EntitlementStatus(v)
	case nil:
		*s = EntitlementStatusActive
	default:
		return fmt.Errorf("unsupported entitlement status type %T", value)
	}
	return nil
}
