package repository

import (
	"context"
	"time"

	"github.com/sangkips/economy-api/internal/domain/entity"
	"github.com/sangkips/economy-api/internal/domain/enum"
)

// FinalizeParams moves an in-progress record owned by Attempt to a terminal status
type FinalizeParams struct {
	Scope        string
	Key          string
	Attempt      int
	Status       enum.IdempotencyStatus
	ResponseCode int
	ResponseBody []byte
	ResourceType string
	ResourceID   string
	Now          time.Time
}

// IdempotencyRepository defines the interface for idempotency record operations
type IdempotencyRepository interface {
	// CreateOrGet inserts record unless (scope, key) is already claimed. The existing row
	// is returned otherwise, with only last_seen_at bumped. The bool reports whether
	// this call inserted.
	CreateOrGet(ctx context.Context, record *entity.IdempotencyRecord) (*entity.IdempotencyRecord, bool, error)
	// GetByKey retrieves a record by scope and key, nil if absent
	GetByKey(ctx context.Context, scope, key string) (*entity.IdempotencyRecord, error)
	// TakeOver re-claims a failed row or an in-progress row whose lock has elapsed,
	// provided attempt_count still equals observedAttempt. The returned row carries the
	// new attempt number.
	TakeOver(ctx context.Context, scope, key string, observedAttempt int, now, lockedUntil time.Time) (*entity.IdempotencyRecord, bool, error)
	// Finalize stores the terminal status and response. It returns false when the
	// caller's attempt no longer owns the row.
	Finalize(ctx context.Context, params FinalizeParams) (bool, error)
	// DeleteExpired removes up to batch rows past their retention window
	DeleteExpired(ctx context.Context, now time.Time, batch int) (int64, error)
	// Transactional reports whether writes join the transaction carried in ctx.
	// Stores that cannot must only be finalized as succeeded after commit.
	Transactional() bool
}
