package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sangkips/economy-api/internal/domain/entity"
	"github.com/sangkips/economy-api/internal/domain/enum"
	domainRepo "github.com/sangkips/economy-api/internal/domain/repository"
)

// memoryIdempotencyRepository keeps records in process memory. It neither survives a
// restart nor spans instances, so it is only wired for local development.
type memoryIdempotencyRepository struct {
	mu      sync.Mutex
	records map[string]*entity.IdempotencyRecord
}

// NewMemoryIdempotencyRepository creates an in-process idempotency repository
func NewMemoryIdempotencyRepository() domainRepo.IdempotencyRepository {
	return &memoryIdempotencyRepository{records: make(map[string]*entity.IdempotencyRecord)}
}

func memoryKey(scope, key string) string {
	return scope + "\x00" + key
}

func cloneRecord(r *entity.IdempotencyRecord) *entity.IdempotencyRecord {
	c := *r
	if r.LockedUntil != nil {
		t := *r.LockedUntil
		c.LockedUntil = &t
	}
	if r.ResponseCode != nil {
		code := *r.ResponseCode
		c.ResponseCode = &code
	}
	if r.ResponseBody != nil {
		c.ResponseBody = append([]byte(nil), r.ResponseBody...)
	}
	return &c
}

func (r *memoryIdempotencyRepository) CreateOrGet(_ context.Context, record *entity.IdempotencyRecord) (*entity.IdempotencyRecord, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := memoryKey(record.Scope, record.IdempotencyKey)
	if existing, ok := r.records[k]; ok {
		existing.LastSeenAt = record.LastSeenAt
		return cloneRecord(existing), false, nil
	}
	r.records[k] = cloneRecord(record)
	return cloneRecord(record), true, nil
}

func (r *memoryIdempotencyRepository) GetByKey(_ context.Context, scope, key string) (*entity.IdempotencyRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.records[memoryKey(scope, key)]; ok {
		return cloneRecord(existing), nil
	}
	return nil, nil
}

func (r *memoryIdempotencyRepository) TakeOver(_ context.Context, scope, key string, observedAttempt int, now, lockedUntil time.Time) (*entity.IdempotencyRecord, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.records[memoryKey(scope, key)]
	if !ok || existing.AttemptCount != observedAttempt {
		return nil, false, nil
	}
	switch existing.Status {
	case enum.IdempotencyStatusFailed:
	case enum.IdempotencyStatusInProgress:
		if !existing.LockExpired(now) {
			return nil, false, nil
		}
	default:
		return nil, false, nil
	}

	existing.Status = enum.IdempotencyStatusInProgress
	existing.LockedUntil = &lockedUntil
	existing.AttemptCount++
	existing.UpdatedAt = now
	existing.LastSeenAt = now
	return cloneRecord(existing), true, nil
}

func (r *memoryIdempotencyRepository) Finalize(_ context.Context, params domainRepo.FinalizeParams) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.records[memoryKey(params.Scope, params.Key)]
	if !ok || existing.AttemptCount != params.Attempt || existing.Status != enum.IdempotencyStatusInProgress {
		return false, nil
	}

	code := params.ResponseCode
	existing.Status = params.Status
	existing.ResponseCode = &code
	existing.ResponseBody = append([]byte(nil), params.ResponseBody...)
	if params.ResourceType != "" {
		existing.ResourceType = params.ResourceType
	}
	if params.ResourceID != "" {
		existing.ResourceID = params.ResourceID
	}
	existing.LockedUntil = nil
	existing.UpdatedAt = params.Now
	existing.LastSeenAt = params.Now
	return true, nil
}

func (r *memoryIdempotencyRepository) DeleteExpired(_ context.Context, now time.Time, batch int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var expired []string
	for k, rec := range r.records {
		if !rec.ExpiresAt.Before(now) {
			continue
		}
		if rec.Status == enum.IdempotencyStatusInProgress && rec.LockedUntil != nil && !rec.LockedUntil.Before(now) {
			continue
		}
		expired = append(expired, k)
	}
	sort.Strings(expired)
	if batch > 0 && len(expired) > batch {
		expired = expired[:batch]
	}
	for _, k := range expired {
		delete(r.records, k)
	}
	return int64(len(expired)), nil
}

// Transactional is false: the map is written immediately and never rolled back.
func (r *memoryIdempotencyRepository) Transactional() bool {
	return false
}
