package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/economy-api/internal/config"
	"github.com/sangkips/economy-api/internal/domain/entity"
	"github.com/sangkips/economy-api/internal/domain/enum"
	"github.com/sangkips/economy-api/internal/domain/repository"
	"github.com/sangkips/economy-api/pkg/apperror"
	"github.com/sangkips/economy-api/pkg/fingerprint"
	"github.com/sangkips/economy-api/pkg/normalize"
	"github.com/sangkips/economy-api/pkg/utils"
)

// MutationRequest identifies one idempotent mutation and the context it is audited under
type MutationRequest struct {
	Scope          string
	IdempotencyKey string
	Payload        any
	ActorUserID    *uuid.UUID
	TargetUserID   *uuid.UUID
	EntityType     string
	EventType      string
	RequestID      string
}

// MutationOutcome is what a mutation body returns on success. Body is stored and
// replayed verbatim for every later request with the same key.
type MutationOutcome struct {
	Body         any
	ResourceType string
	ResourceID   string
}

// MutationFunc performs the business writes. It runs inside a transaction carried by ctx.
type MutationFunc func(ctx context.Context) (*MutationOutcome, error)

// MutationResult is returned for first successes and replays alike
type MutationResult struct {
	Replayed     bool
	ResponseCode int
	ResponseBody json.RawMessage
	ResourceType string
	ResourceID   string
}

// CoordinatorOption customises a MutationCoordinator
type CoordinatorOption func(*MutationCoordinator)

// WithReplayCache consults cache for succeeded records before the store
func WithReplayCache(cache repository.ReplayCache) CoordinatorOption {
	return func(c *MutationCoordinator) { c.cache = cache }
}

// WithClock replaces the wall clock
func WithClock(now func() time.Time) CoordinatorOption {
	return func(c *MutationCoordinator) { c.now = now }
}

// WithLogger sets the logger for replay and failure decisions
func WithLogger(logger *slog.Logger) CoordinatorOption {
	return func(c *MutationCoordinator) { c.logger = logger }
}

// MutationCoordinator runs a mutation at most once per (scope, key) and replays its
// stored response to every retry.
type MutationCoordinator struct {
	store  repository.IdempotencyRepository
	tx     repository.Transactor
	audit  *AuditLogger
	cache  repository.ReplayCache
	cfg    config.IdempotencyConfig
	now    func() time.Time
	logger *slog.Logger
}

// NewMutationCoordinator creates a new mutation coordinator
func NewMutationCoordinator(
	store repository.IdempotencyRepository,
	tx repository.Transactor,
	audit *AuditLogger,
	cfg config.IdempotencyConfig,
	opts ...CoordinatorOption,
) *MutationCoordinator {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 30 * time.Second
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 24 * time.Hour
	}
	c := &MutationCoordinator{
		store:  store,
		tx:     tx,
		audit:  audit,
		cfg:    cfg,
		now:    utcNow,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Execute runs fn unless (scope, key) already has an outcome. ctx must not carry an
// open transaction: the failure path records its outcome after the rollback.
func (c *MutationCoordinator) Execute(ctx context.Context, req MutationRequest, fn MutationFunc) (*MutationResult, error) {
	scope, err := normalize.RequiredString(req.Scope, "scope", normalize.MaxScopeLength)
	if err != nil {
		return nil, err
	}
	key := strings.TrimSpace(req.IdempotencyKey)
	if key == "" {
		return nil, apperror.ErrKeyRequired
	}
	if len([]rune(key)) > normalize.MaxIdempotencyKeyLength {
		return nil, apperror.Newf(apperror.CodeInvalidIdempotencyKey, "idempotency key must be <= %d chars", normalize.MaxIdempotencyKeyLength)
	}
	req.Scope, req.IdempotencyKey = scope, key

	hash, err := fingerprint.Hash(req.Payload)
	if err != nil {
		return nil, apperror.New(apperror.CodeBadRequest, "Request payload cannot be encoded")
	}

	if result := c.cachedReplay(ctx, scope, key, hash); result != nil {
		return result, nil
	}

	now := c.now()
	lockedUntil := now.Add(c.cfg.LockTTL)
	record, inserted, err := c.store.CreateOrGet(ctx, &entity.IdempotencyRecord{
		ID:             utils.NewID("idem"),
		Scope:          scope,
		IdempotencyKey: key,
		Status:         enum.IdempotencyStatusInProgress,
		RequestHash:    hash,
		LockedUntil:    &lockedUntil,
		AttemptCount:   1,
		ExpiresAt:      now.Add(c.cfg.Retention),
		CreatedAt:      now,
		UpdatedAt:      now,
		LastSeenAt:     now,
	})
	if err != nil {
		return nil, fmt.Errorf("claim idempotency key: %w", err)
	}

	if !inserted {
		record, err = c.claimExisting(ctx, record, hash, now, lockedUntil)
		if err != nil {
			return nil, err
		}
		if record.Status == enum.IdempotencyStatusSucceeded {
			return c.replay(ctx, record), nil
		}
	}

	return c.run(ctx, req, hash, record.AttemptCount, fn)
}

// claimExisting decides what to do with a row another attempt already created. It
// returns the row to replay when it succeeded, or the row now owned by this call.
func (c *MutationCoordinator) claimExisting(ctx context.Context, record *entity.IdempotencyRecord, hash string, now, lockedUntil time.Time) (*entity.IdempotencyRecord, error) {
	log := c.logger.With("scope", record.Scope, "idempotency_key", record.IdempotencyKey, "attempt", record.AttemptCount)

	if record.RequestHash != hash {
		log.WarnContext(ctx, "idempotency payload mismatch")
		return nil, apperror.ErrPayloadMismatch
	}

	switch record.Status {
	case enum.IdempotencyStatusSucceeded:
		return record, nil
	case enum.IdempotencyStatusInProgress:
		if !record.LockExpired(now) {
			log.DebugContext(ctx, "idempotency key in progress")
			return nil, apperror.ErrInProgress
		}
		log.WarnContext(ctx, "taking over abandoned idempotency lock")
	case enum.IdempotencyStatusFailed:
		if err := c.checkRetryBudget(record, now); err != nil {
			log.DebugContext(ctx, "idempotency retry refused", "error", err)
			return nil, err
		}
	}

	owned, ok, err := c.store.TakeOver(ctx, record.Scope, record.IdempotencyKey, record.AttemptCount, now, lockedUntil)
	if err != nil {
		return nil, fmt.Errorf("take over idempotency key: %w", err)
	}
	if !ok {
		return nil, apperror.ErrInProgress
	}
	return owned, nil
}

// checkRetryBudget caps the number of attempts on a key and spaces retries out
// exponentially from the last failure.
func (c *MutationCoordinator) checkRetryBudget(record *entity.IdempotencyRecord, now time.Time) error {
	if c.cfg.MaxAttempts > 0 && record.AttemptCount >= c.cfg.MaxAttempts {
		return apperror.Newf(apperror.CodeIdempotencyRetryExhausted,
			"Idempotency key failed %d times; use a new key", record.AttemptCount)
	}
	wait := c.backoff(record.AttemptCount)
	if wait > 0 && now.Before(record.UpdatedAt.Add(wait)) {
		retryIn := record.UpdatedAt.Add(wait).Sub(now).Round(time.Millisecond)
		return apperror.Newf(apperror.CodeIdempotencyRetryThrottled, "Retry allowed in %s", retryIn)
	}
	return nil
}

func (c *MutationCoordinator) backoff(attempt int) time.Duration {
	if c.cfg.BackoffBase <= 0 || attempt < 1 {
		return 0
	}
	wait := c.cfg.BackoffBase
	for i := 1; i < attempt; i++ {
		wait *= 2
		if c.cfg.BackoffMax > 0 && wait >= c.cfg.BackoffMax {
			return c.cfg.BackoffMax
		}
	}
	if c.cfg.BackoffMax > 0 && wait > c.cfg.BackoffMax {
		return c.cfg.BackoffMax
	}
	return wait
}

func (c *MutationCoordinator) run(ctx context.Context, req MutationRequest, hash string, attempt int, fn MutationFunc) (*MutationResult, error) {
	var result *MutationResult
	transactional := c.store.Transactional()

	err := c.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		outcome, err := fn(txCtx)
		if err != nil {
			return err
		}
		if outcome == nil {
			outcome = &MutationOutcome{Body: map[string]any{}}
		}

		body, err := json.Marshal(outcome.Body)
		if err != nil {
			return fmt.Errorf("encode mutation response: %w", err)
		}

		if _, err := c.audit.Append(txCtx, AuditEntry{
			ActorUserID:    req.ActorUserID,
			TargetUserID:   req.TargetUserID,
			EntityType:     req.EntityType,
			EntityID:       outcome.ResourceID,
			EventType:      req.EventType + ".succeeded",
			Severity:       enum.SeverityInfo,
			RequestID:      req.RequestID,
			IdempotencyKey: req.IdempotencyKey,
			Metadata: map[string]any{
				"scope":         req.Scope,
				"attempt":       attempt,
				"resource_type": outcome.ResourceType,
			},
		}); err != nil {
			return fmt.Errorf("append audit event: %w", err)
		}

		result = &MutationResult{
			ResponseCode: http.StatusCreated,
			ResponseBody: body,
			ResourceType: outcome.ResourceType,
			ResourceID:   outcome.ResourceID,
		}

		// A store outside the transaction is checked here and finalized after commit
		if !transactional {
			return c.checkLease(txCtx, req, attempt)
		}
		return c.finalizeSucceeded(txCtx, req, attempt, result)
	})
	if err != nil {
		c.recordFailure(ctx, req, attempt, err)
		return nil, err
	}

	if !transactional {
		if err := c.finalizeSucceeded(context.WithoutCancel(ctx), req, attempt, result); err != nil {
			// the business writes are committed; the key may re-run once its lock elapses
			c.logger.Error("idempotency key not finalized after commit",
				"scope", req.Scope, "idempotency_key", req.IdempotencyKey, "attempt", attempt, "error", err)
		}
	}

	c.putCache(ctx, req.Scope, req.IdempotencyKey, &repository.CachedReplay{
		RequestHash:  hash,
		ResponseCode: result.ResponseCode,
		ResponseBody: result.ResponseBody,
		ResourceType: result.ResourceType,
		ResourceID:   result.ResourceID,
	})
	return result, nil
}

func (c *MutationCoordinator) finalizeSucceeded(ctx context.Context, req MutationRequest, attempt int, result *MutationResult) error {
	owned, err := c.store.Finalize(ctx, repository.FinalizeParams{
		Scope:        req.Scope,
		Key:          req.IdempotencyKey,
		Attempt:      attempt,
		Status:       enum.IdempotencyStatusSucceeded,
		ResponseCode: result.ResponseCode,
		ResponseBody: result.ResponseBody,
		ResourceType: result.ResourceType,
		ResourceID:   result.ResourceID,
		Now:          c.now(),
	})
	if err != nil {
		return fmt.Errorf("finalize idempotency key: %w", err)
	}
	if !owned {
		return apperror.ErrLeaseLost
	}
	return nil
}

// checkLease fails the attempt before commit when another caller has taken the key over
func (c *MutationCoordinator) checkLease(ctx context.Context, req MutationRequest, attempt int) error {
	record, err := c.store.GetByKey(ctx, req.Scope, req.IdempotencyKey)
	if err != nil {
		return fmt.Errorf("load idempotency key: %w", err)
	}
	if record == nil || record.AttemptCount != attempt || record.Status != enum.IdempotencyStatusInProgress {
		return apperror.ErrLeaseLost
	}
	return nil
}

// recordFailure stores the failed outcome after the rollback. It survives client
// cancellation and never replaces the error returned to the caller.
func (c *MutationCoordinator) recordFailure(ctx context.Context, req MutationRequest, attempt int, cause error) {
	ctx = context.WithoutCancel(ctx)
	appErr := apperror.GetAppError(cause)
	log := c.logger.With("scope", req.Scope, "idempotency_key", req.IdempotencyKey, "attempt", attempt, "code", appErr.Code)

	if !errors.Is(cause, apperror.ErrLeaseLost) {
		body, _ := json.Marshal(map[string]any{"code": appErr.Code, "message": appErr.Message})
		owned, err := c.store.Finalize(ctx, repository.FinalizeParams{
			Scope:        req.Scope,
			Key:          req.IdempotencyKey,
			Attempt:      attempt,
			Status:       enum.IdempotencyStatusFailed,
			ResponseCode: appErr.Status,
			ResponseBody: body,
			Now:          c.now(),
		})
		switch {
		case err != nil:
			log.ErrorContext(ctx, "failed to record mutation failure", "error", err)
		case !owned:
			log.WarnContext(ctx, "mutation failure not recorded, lease lost")
		}
	}

	severity := enum.SeverityWarning
	if appErr.Status >= http.StatusInternalServerError {
		severity = enum.SeverityError
		log.ErrorContext(ctx, "mutation failed", "error", cause)
	} else {
		log.DebugContext(ctx, "mutation rejected", "error", cause)
	}

	c.audit.AppendBestEffort(ctx, AuditEntry{
		ActorUserID:    req.ActorUserID,
		TargetUserID:   req.TargetUserID,
		EntityType:     req.EntityType,
		EventType:      req.EventType + ".failed",
		Severity:       severity,
		Message:        appErr.Message,
		RequestID:      req.RequestID,
		IdempotencyKey: req.IdempotencyKey,
		Metadata: map[string]any{
			"scope":   req.Scope,
			"attempt": attempt,
			"code":    appErr.Code,
			"status":  appErr.Status,
		},
	})
}

func (c *MutationCoordinator) replay(ctx context.Context, record *entity.IdempotencyRecord) *MutationResult {
	code := http.StatusCreated
	if record.ResponseCode != nil {
		code = *record.ResponseCode
	}
	result := &MutationResult{
		Replayed:     true,
		ResponseCode: code,
		ResponseBody: json.RawMessage(record.ResponseBody),
		ResourceType: record.ResourceType,
		ResourceID:   record.ResourceID,
	}
	c.putCache(ctx, record.Scope, record.IdempotencyKey, &repository.CachedReplay{
		RequestHash:  record.RequestHash,
		ResponseCode: code,
		ResponseBody: record.ResponseBody,
		ResourceType: record.ResourceType,
		ResourceID:   record.ResourceID,
	})
	return result
}

func (c *MutationCoordinator) cachedReplay(ctx context.Context, scope, key, hash string) *MutationResult {
	if c.cache == nil {
		return nil
	}
	cached, err := c.cache.Get(ctx, scope, key)
	if err != nil {
		c.logger.WarnContext(ctx, "replay cache read failed", "scope", scope, "error", err)
		return nil
	}
	if cached == nil || cached.RequestHash != hash {
		return nil
	}
	return &MutationResult{
		Replayed:     true,
		ResponseCode: cached.ResponseCode,
		ResponseBody: json.RawMessage(cached.ResponseBody),
		ResourceType: cached.ResourceType,
		ResourceID:   cached.ResourceID,
	}
}

func (c *MutationCoordinator) putCache(ctx context.Context, scope, key string, replay *repository.CachedReplay) {
	if c.cache == nil || replay.RequestHash == "" {
		return
	}
	if err := c.cache.Put(ctx, scope, key, replay); err != nil {
		c.logger.WarnContext(ctx, "replay cache write failed", "scope", scope, "error", err)
	}
}

// Inspect returns the stored record for (scope, key), nil if unknown
func (c *MutationCoordinator) Inspect(ctx context.Context, scope, key string) (*entity.IdempotencyRecord, error) {
	return c.store.GetByKey(ctx, strings.TrimSpace(scope), strings.TrimSpace(key))
}
