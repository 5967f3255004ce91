package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sangkips/economy-api/internal/domain/entity"
	"github.com/sangkips/economy-api/internal/domain/enum"
	"github.com/sangkips/economy-api/internal/domain/repository"
	"github.com/sangkips/economy-api/internal/infrastructure/cache"
	"github.com/sangkips/economy-api/pkg/apperror"
	"github.com/sangkips/economy-api/pkg/fingerprint"
	"github.com/sangkips/economy-api/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRequest(key string, payload any) MutationRequest {
	return MutationRequest{
		Scope:          "test.op",
		IdempotencyKey: key,
		Payload:        payload,
		EntityType:     "test",
		EventType:      "test.op",
	}
}

func creditFn(h *harness, userID uuid.UUID, calls *int32) MutationFunc {
	return func(ctx context.Context) (*MutationOutcome, error) {
		atomic.AddInt32(calls, 1)
		b, err := h.currency.CreditOrDebit(ctx, userID, Delta{HorrorCoins: 10})
		if err != nil {
			return nil, err
		}
		return &MutationOutcome{Body: map[string]any{"balances": b, "note": "<ok>"}, ResourceType: "user", ResourceID: "u"}, nil
	}
}

func TestExecuteRunsOnceAndReplaysBytes(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	userID := h.user(t, "once", entity.Balances{})
	var calls int32

	first, err := h.coordinator.Execute(ctx, testRequest("k1", map[string]any{"a": 1}), creditFn(h, userID, &calls))
	require.NoError(t, err)
	assert.False(t, first.Replayed)
	assert.Equal(t, 201, first.ResponseCode)

	h.clock.Advance(time.Minute)
	second, err := h.coordinator.Execute(ctx, testRequest("k1", map[string]any{"a": 1}), creditFn(h, userID, &calls))
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, 201, second.ResponseCode)
	assert.Equal(t, string(first.ResponseBody), string(second.ResponseBody))
	assert.Equal(t, "u", second.ResourceID)

	assert.Equal(t, int32(1), calls)
	assert.Equal(t, int64(10), h.balances(t, userID).HorrorCoins)
}

func TestExecuteValidatesKeyAndScope(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	noop := func(ctx context.Context) (*MutationOutcome, error) { return nil, nil }

	_, err := h.coordinator.Execute(ctx, testRequest("   ", nil), noop)
	assert.ErrorIs(t, err, apperror.ErrKeyRequired)

	_, err = h.coordinator.Execute(ctx, testRequest(strings.Repeat("k", 256), nil), noop)
	requireCode(t, err, apperror.CodeInvalidIdempotencyKey)

	req := testRequest("k", nil)
	req.Scope = ""
	_, err = h.coordinator.Execute(ctx, req, noop)
	requireCode(t, err, apperror.CodeInvalidScope)
}

func TestExecuteNilOutcomeStoresEmptyObject(t *testing.T) {
	h := newHarness(t)
	result, err := h.coordinator.Execute(context.Background(), testRequest("k", nil), func(ctx context.Context) (*MutationOutcome, error) {
		return nil, nil
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(result.ResponseBody))
}

func TestExecutePayloadMismatch(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	userID := h.user(t, "mismatch", entity.Balances{})
	var calls int32

	_, err := h.coordinator.Execute(ctx, testRequest("k", map[string]any{"amount": 1}), creditFn(h, userID, &calls))
	require.NoError(t, err)

	_, err = h.coordinator.Execute(ctx, testRequest("k", map[string]any{"amount": 2}), creditFn(h, userID, &calls))
	assert.ErrorIs(t, err, apperror.ErrPayloadMismatch)
	assert.Equal(t, int32(1), calls)

	// same key under another scope is a different mutation
	req := testRequest("k", map[string]any{"amount": 2})
	req.Scope = "test.other"
	_, err = h.coordinator.Execute(ctx, req, creditFn(h, userID, &calls))
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls)
}

func TestExecuteRollsBackAndRecordsFailure(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	userID := h.user(t, "rollback", entity.Balances{HorrorCoins: 5})

	_, err := h.coordinator.Execute(ctx, testRequest("k", nil), func(ctx context.Context) (*MutationOutcome, error) {
		if _, err := h.currency.CreditOrDebit(ctx, userID, Delta{HorrorCoins: 50}); err != nil {
			return nil, err
		}
		return nil, apperror.New(apperror.CodeInsufficientBalance, "Insufficient balance")
	})
	requireCode(t, err, apperror.CodeInsufficientBalance)
	assert.Equal(t, int64(5), h.balances(t, userID).HorrorCoins)

	record, err := h.coordinator.Inspect(ctx, "test.op", "k")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, enum.IdempotencyStatusFailed, record.Status)
	require.NotNil(t, record.ResponseCode)
	assert.Equal(t, 409, *record.ResponseCode)
	assert.Nil(t, record.LockedUntil)
	assert.JSONEq(t, `{"code":"INSUFFICIENT_BALANCE","message":"Insufficient balance"}`, string(record.ResponseBody))

	events, err := h.audit.List(ctx, &repository.AuditFilterParams{IdempotencyKey: "k"})
	require.NoError(t, err)
	require.Len(t, events.Items, 1)
	assert.Equal(t, "test.op.failed", events.Items[0].EventType)
	assert.Equal(t, string(enum.SeverityWarning), events.Items[0].Severity)
}

func TestExecuteRetriesFailedKey(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	fail := true

	fn := func(ctx context.Context) (*MutationOutcome, error) {
		if fail {
			return nil, errors.New("database went away")
		}
		return &MutationOutcome{Body: map[string]any{"ok": true}}, nil
	}

	_, err := h.coordinator.Execute(ctx, testRequest("k", nil), fn)
	require.Error(t, err)
	assert.Equal(t, apperror.CodeInternal, apperror.GetAppError(err).Code)

	fail = false
	result, err := h.coordinator.Execute(ctx, testRequest("k", nil), fn)
	require.NoError(t, err)
	assert.False(t, result.Replayed)

	record, err := h.coordinator.Inspect(ctx, "test.op", "k")
	require.NoError(t, err)
	assert.Equal(t, enum.IdempotencyStatusSucceeded, record.Status)
	assert.Equal(t, 2, record.AttemptCount)
}

func TestExecuteRetryBudget(t *testing.T) {
	h := newHarness(t, func(o *harnessOptions) {
		o.idempotency.MaxAttempts = 2
		o.idempotency.BackoffBase = 10 * time.Second
		o.idempotency.BackoffMax = time.Minute
	})
	ctx := context.Background()
	var calls int32
	fn := func(ctx context.Context) (*MutationOutcome, error) {
		atomic.AddInt32(&calls, 1)
		return nil, apperror.New(apperror.CodeSkuNotFound, "SKU not found")
	}

	_, err := h.coordinator.Execute(ctx, testRequest("k", nil), fn)
	requireCode(t, err, apperror.CodeSkuNotFound)

	h.clock.Advance(5 * time.Second)
	_, err = h.coordinator.Execute(ctx, testRequest("k", nil), fn)
	requireCode(t, err, apperror.CodeIdempotencyRetryThrottled)
	assert.Equal(t, int32(1), calls)

	h.clock.Advance(6 * time.Second)
	_, err = h.coordinator.Execute(ctx, testRequest("k", nil), fn)
	requireCode(t, err, apperror.CodeSkuNotFound)
	assert.Equal(t, int32(2), calls)

	h.clock.Advance(time.Hour)
	_, err = h.coordinator.Execute(ctx, testRequest("k", nil), fn)
	requireCode(t, err, apperror.CodeIdempotencyRetryExhausted)
	assert.Equal(t, int32(2), calls)
}

func TestBackoffDoublesUpToMax(t *testing.T) {
	c := &MutationCoordinator{}
	c.cfg.BackoffBase = time.Second
	c.cfg.BackoffMax = 5 * time.Second

	assert.Equal(t, time.Second, c.backoff(1))
	assert.Equal(t, 2*time.Second, c.backoff(2))
	assert.Equal(t, 4*time.Second, c.backoff(3))
	assert.Equal(t, 5*time.Second, c.backoff(4))
	assert.Equal(t, 5*time.Second, c.backoff(30))
}

func TestExecuteInProgressThenTakeover(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	payload := map[string]any{"n": 1}
	hash, err := fingerprint.Hash(payload)
	require.NoError(t, err)

	now := h.clock.Now()
	lockedUntil := now.Add(30 * time.Second)
	_, inserted, err := h.store.CreateOrGet(ctx, &entity.IdempotencyRecord{
		ID:             utils.NewID("idem"),
		Scope:          "test.op",
		IdempotencyKey: "k",
		Status:         enum.IdempotencyStatusInProgress,
		RequestHash:    hash,
		LockedUntil:    &lockedUntil,
		AttemptCount:   1,
		ExpiresAt:      now.Add(24 * time.Hour),
		CreatedAt:      now,
		UpdatedAt:      now,
		LastSeenAt:     now,
	})
	require.NoError(t, err)
	require.True(t, inserted)

	var calls int32
	fn := func(ctx context.Context) (*MutationOutcome, error) {
		atomic.AddInt32(&calls, 1)
		return &MutationOutcome{Body: map[string]any{"done": true}}, nil
	}

	_, err = h.coordinator.Execute(ctx, testRequest("k", payload), fn)
	assert.ErrorIs(t, err, apperror.ErrInProgress)
	assert.Zero(t, calls)

	h.clock.Advance(31 * time.Second)
	result, err := h.coordinator.Execute(ctx, testRequest("k", payload), fn)
	require.NoError(t, err)
	assert.False(t, result.Replayed)
	assert.Equal(t, int32(1), calls)

	record, err := h.coordinator.Inspect(ctx, "test.op", "k")
	require.NoError(t, err)
	assert.Equal(t, 2, record.AttemptCount)
	assert.Equal(t, enum.IdempotencyStatusSucceeded, record.Status)
}

func TestExecuteLeaseLostRollsBack(t *testing.T) {
	h := newHarness(t, func(o *harnessOptions) { o.memoryStore = true })
	ctx := context.Background()
	userID := h.user(t, "lease", entity.Balances{})

	_, err := h.coordinator.Execute(ctx, testRequest("k", nil), func(ctx context.Context) (*MutationOutcome, error) {
		if _, err := h.currency.CreditOrDebit(ctx, userID, Delta{Souls: 7}); err != nil {
			return nil, err
		}
		// another worker decides this attempt is dead and takes the key
		later := h.clock.Now().Add(time.Minute)
		_, ok, err := h.store.TakeOver(context.Background(), "test.op", "k", 1, later, later.Add(30*time.Second))
		require.NoError(t, err)
		require.True(t, ok)
		return &MutationOutcome{Body: map[string]any{}}, nil
	})
	assert.ErrorIs(t, err, apperror.ErrLeaseLost)
	assert.Zero(t, h.balances(t, userID).Souls)

	record, err := h.coordinator.Inspect(ctx, "test.op", "k")
	require.NoError(t, err)
	assert.Equal(t, enum.IdempotencyStatusInProgress, record.Status, "the new owner's lease is untouched")
	assert.Equal(t, 2, record.AttemptCount)
}

func TestExecuteMemoryStoreFinalizesOnlyAfterCommit(t *testing.T) {
	h := newHarness(t, func(o *harnessOptions) { o.memoryStore = true })
	ctx := context.Background()
	userID := h.user(t, "memory", entity.Balances{})
	var calls int32

	// the success audit fails after the business write, so the transaction rolls back
	broken := testRequest("k", map[string]any{"a": 1})
	broken.EntityType = ""
	_, err := h.coordinator.Execute(ctx, broken, creditFn(h, userID, &calls))
	requireCode(t, err, apperror.Code("INVALID_ENTITYTYPE"))
	assert.Zero(t, h.balances(t, userID).HorrorCoins)

	record, err := h.coordinator.Inspect(ctx, "test.op", "k")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, enum.IdempotencyStatusFailed, record.Status)

	retry, err := h.coordinator.Execute(ctx, testRequest("k", map[string]any{"a": 1}), creditFn(h, userID, &calls))
	require.NoError(t, err)
	assert.False(t, retry.Replayed)
	assert.Equal(t, int32(2), calls)
	assert.Equal(t, int64(10), h.balances(t, userID).HorrorCoins)

	record, err = h.coordinator.Inspect(ctx, "test.op", "k")
	require.NoError(t, err)
	assert.Equal(t, enum.IdempotencyStatusSucceeded, record.Status)
	assert.Equal(t, 2, record.AttemptCount)
}

func TestExecuteConcurrentCallsRunOnce(t *testing.T) {
	h := newHarness(t)
	userID := h.user(t, "race", entity.Balances{})
	var calls int32

	const workers = 8
	var wg sync.WaitGroup
	results := make([]*MutationResult, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = h.coordinator.Execute(context.Background(), testRequest("race", map[string]any{"x": 1}), creditFn(h, userID, &calls))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls)
	assert.Equal(t, int64(10), h.balances(t, userID).HorrorCoins)

	fresh := 0
	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			assert.ErrorIs(t, errs[i], apperror.ErrInProgress)
			continue
		}
		if !results[i].Replayed {
			fresh++
		}
	}
	assert.Equal(t, 1, fresh)
}

type countingStore struct {
	repository.IdempotencyRepository
	creates int32
}

func (s *countingStore) CreateOrGet(ctx context.Context, record *entity.IdempotencyRecord) (*entity.IdempotencyRecord, bool, error) {
	atomic.AddInt32(&s.creates, 1)
	return s.IdempotencyRepository.CreateOrGet(ctx, record)
}

func TestExecuteServesReplaysFromCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	h := newHarness(t, func(o *harnessOptions) {
		o.coordinator = append(o.coordinator, WithReplayCache(cache.NewReplayCache(client, "test:", time.Hour)))
	})
	counting := &countingStore{IdempotencyRepository: h.store}
	h.coordinator.store = counting
	ctx := context.Background()
	userID := h.user(t, "cached", entity.Balances{})
	var calls int32

	first, err := h.coordinator.Execute(ctx, testRequest("k", map[string]any{"a": 1}), creditFn(h, userID, &calls))
	require.NoError(t, err)
	assert.Len(t, mr.Keys(), 1)

	second, err := h.coordinator.Execute(ctx, testRequest("k", map[string]any{"a": 1}), creditFn(h, userID, &calls))
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, string(first.ResponseBody), string(second.ResponseBody))
	assert.Equal(t, int32(1), counting.creates, "replay answered without touching the store")

	// a different payload misses the cache and is refused by the store
	_, err = h.coordinator.Execute(ctx, testRequest("k", map[string]any{"a": 2}), creditFn(h, userID, &calls))
	assert.ErrorIs(t, err, apperror.ErrPayloadMismatch)
	assert.Equal(t, int32(2), counting.creates)

	// a cache outage falls back to the store
	mr.Close()
	third, err := h.coordinator.Execute(ctx, testRequest("k", map[string]any{"a": 1}), creditFn(h, userID, &calls))
	require.NoError(t, err)
	assert.True(t, third.Replayed)
	assert.Equal(t, int32(1), calls)
}
