package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/sangkips/economy-api/internal/domain/repository"
)

// IdempotencyJanitor deletes idempotency records past their retention window
type IdempotencyJanitor struct {
	store    repository.IdempotencyRepository
	interval time.Duration
	batch    int
	now      func() time.Time
	logger   *slog.Logger
}

// NewIdempotencyJanitor creates a janitor that sweeps every interval in batches
func NewIdempotencyJanitor(store repository.IdempotencyRepository, interval time.Duration, batch int, logger *slog.Logger) *IdempotencyJanitor {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if batch <= 0 {
		batch = 500
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &IdempotencyJanitor{
		store:    store,
		interval: interval,
		batch:    batch,
		now:      utcNow,
		logger:   logger,
	}
}

// Run sweeps until ctx is cancelled
func (j *IdempotencyJanitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := j.Sweep(ctx); err != nil {
				j.logger.ErrorContext(ctx, "idempotency sweep failed", "error", err)
			}
		}
	}
}

// Sweep deletes expired records one batch at a time until a short batch comes back
func (j *IdempotencyJanitor) Sweep(ctx context.Context) (int64, error) {
	var total int64
	now := j.now()
	for {
		deleted, err := j.store.DeleteExpired(ctx, now, j.batch)
		total += deleted
		if err != nil {
			return total, err
		}
		if deleted < int64(j.batch) || ctx.Err() != nil {
			break
		}
	}
	if total > 0 {
		j.logger.InfoContext(ctx, "idempotency records purged", "count", total)
	}
	return total, nil
}
