package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/economy-api/internal/config"
	"github.com/sangkips/economy-api/internal/domain/entity"
	"github.com/sangkips/economy-api/internal/domain/repository"
	infraRepo "github.com/sangkips/economy-api/internal/infrastructure/repository"
	"github.com/sangkips/economy-api/internal/testutil"
	"github.com/sangkips/economy-api/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type harness struct {
	db           *gorm.DB
	clock        *testutil.Clock
	store        repository.IdempotencyRepository
	users        repository.UserRepository
	audit        *AuditLogger
	coordinator  *MutationCoordinator
	currency     *CurrencyLedger
	entitlements *EntitlementLedger
	revenue      *RevenueService
	bonus        *BonusService
	referral     *ReferralService
	gift         *GiftService
	admin        *AdminService
}

type harnessOptions struct {
	idempotency config.IdempotencyConfig
	economy     config.EconomyConfig
	memoryStore bool
	coordinator []CoordinatorOption
}

func defaultHarnessOptions() harnessOptions {
	return harnessOptions{
		idempotency: config.IdempotencyConfig{
			LockTTL:     30 * time.Second,
			Retention:   24 * time.Hour,
			MaxAttempts: 5,
		},
		economy: config.EconomyConfig{
			MaxPurchaseQty:               20,
			MaxActiveBoosters:            2,
			MaxStackedMultiplier:         "3.0",
			MaxRevenuePurchasesPerMinute: 8,
			ReferralDailyCap:             50,
			ReferralRewardCoins:          100,
			MaxGiftAmount:                100000,
		},
	}
}

func newHarness(t *testing.T, tweaks ...func(*harnessOptions)) *harness {
	t.Helper()
	opts := defaultHarnessOptions()
	for _, tweak := range tweaks {
		tweak(&opts)
	}

	db := testutil.NewSeededDB(t)
	clock := testutil.NewClock()

	var store repository.IdempotencyRepository
	if opts.memoryStore {
		store = infraRepo.NewMemoryIdempotencyRepository()
	} else {
		store = infraRepo.NewIdempotencyRepository(db)
	}

	users := infraRepo.NewUserRepository(db)
	audit := NewAuditLogger(infraRepo.NewAuditRepository(db), clock.Now, nil)
	coordinatorOpts := append([]CoordinatorOption{WithClock(clock.Now)}, opts.coordinator...)
	coordinator := NewMutationCoordinator(store, infraRepo.NewTransactor(db), audit, opts.idempotency, coordinatorOpts...)
	currency := NewCurrencyLedger(users, clock.Now)
	entitlements := NewEntitlementLedger(infraRepo.NewEntitlementRepository(db), clock.Now)
	bonusRepo := infraRepo.NewBonusRepository(db)

	return &harness{
		db:           db,
		clock:        clock,
		store:        store,
		users:        users,
		audit:        audit,
		coordinator:  coordinator,
		currency:     currency,
		entitlements: entitlements,
		revenue: NewRevenueService(coordinator, entitlements, users,
			infraRepo.NewSkuRepository(db), infraRepo.NewOrderRepository(db), infraRepo.NewRevenueRepository(db),
			opts.economy, clock.Now),
		bonus:    NewBonusService(coordinator, currency, audit, bonusRepo, clock.Now),
		referral: NewReferralService(coordinator, currency, bonusRepo, users, opts.economy, clock.Now),
		gift:     NewGiftService(coordinator, currency, infraRepo.NewTransferRepository(db), opts.economy, clock.Now),
		admin:    NewAdminService(coordinator, entitlements, audit, users),
	}
}

func (h *harness) user(t *testing.T, name string, balances entity.Balances) uuid.UUID {
	t.Helper()
	return testutil.CreateUser(t, h.db, name, balances).ID
}

func (h *harness) balances(t *testing.T, userID uuid.UUID) entity.Balances {
	t.Helper()
	b, err := h.currency.Balances(context.Background(), userID)
	require.NoError(t, err)
	return b
}

func (h *harness) count(t *testing.T, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, h.db.Model(model).Where(query, args...).Count(&n).Error)
	return n
}

func mctx(userID uuid.UUID, key string) MutationContext {
	return MutationContext{UserID: userID, IdempotencyKey: key, RequestID: "req-" + key}
}

func decode(t *testing.T, result *MutationResult) map[string]any {
	t.Helper()
	require.NotNil(t, result)
	var body map[string]any
	require.NoError(t, json.Unmarshal(result.ResponseBody, &body))
	return body
}

func requireCode(t *testing.T, err error, code apperror.Code) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, code), "want %s, got %v", code, err)
}
