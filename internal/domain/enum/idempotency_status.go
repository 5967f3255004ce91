package enum

import (
	"database/sql/driver"
	"fmt"
)

// IdempotencyStatus is the lifecycle state of an idempotency record
type IdempotencyStatus string

const (
	IdempotencyStatusInProgress IdempotencyStatus = "in_progress"
	IdempotencyStatusSucceeded  IdempotencyStatus = "succeeded"
	IdempotencyStatusFailed     IdempotencyStatus = "failed"
)

func (s IdempotencyStatus) String() string {
	return string(s)
}

// IsTerminal reports whether the record has left in_progress
func (s IdempotencyStatus) IsTerminal() bool {
	return s == IdempotencyStatusSucceeded || s == IdempotencyStatusFailed
}

func (s IdempotencyStatus) Value() (driver.Value, error) {
	return string(s), nil
}

func (s *IdempotencyStatus) Scan(value interface{}) error {
	switch v := value.(type) {
	case string:
		*s = IdempotencyStatus(v)
	case []byte:
		*s = IdempotencyStatus(v)
	case nil:
		*s = IdempotencyStatusInProgress
	default:
		return fmt.Errorf("unsupported idempotency status type %T", value)
	}
	return nil
}
