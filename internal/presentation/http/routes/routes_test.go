package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/economy-api/internal/application/service"
	"github.com/sangkips/economy-api/internal/config"
	"github.com/sangkips/economy-api/internal/domain/entity"
	"github.com/sangkips/economy-api/internal/infrastructure/logging"
	infraRepo "github.com/sangkips/economy-api/internal/infrastructure/repository"
	"github.com/sangkips/economy-api/internal/presentation/http/handler"
	"github.com/sangkips/economy-api/internal/testutil"
	"github.com/sangkips/economy-api/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
	jwt    *utils.JWTManager
}

type envelope struct {
	Success  bool            `json:"success"`
	Replayed bool            `json:"replayed"`
	Code     string          `json:"code"`
	Data     json.RawMessage `json:"data"`
	Meta     struct {
		RequestID string `json:"request_id"`
	} `json:"meta"`
}

func newTestServer(t *testing.T, tweak func(cfg *config.Config)) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		App:       config.AppConfig{Name: "economy-api", Env: "test"},
		Log:       config.LogConfig{Level: "error", Format: "json"},
		RateLimit: config.RateLimitConfig{Requests: 1000, Duration: 1},
		Idempotency: config.IdempotencyConfig{
			Store:       "database",
			LockTTL:     30 * time.Second,
			Retention:   24 * time.Hour,
			MaxAttempts: 5,
		},
		Economy: config.EconomyConfig{
			MaxPurchaseQty:               20,
			MaxActiveBoosters:            2,
			MaxStackedMultiplier:         "3.0",
			MaxRevenuePurchasesPerMinute: 8,
			ReferralDailyCap:             50,
			ReferralRewardCoins:          100,
			MaxGiftAmount:                100000,
		},
	}
	if tweak != nil {
		tweak(cfg)
	}

	db := testutil.NewSeededDB(t)
	logger := logging.NewWithWriter(cfg.Log, io.Discard)

	users := infraRepo.NewUserRepository(db)
	bonusRepo := infraRepo.NewBonusRepository(db)
	audit := service.NewAuditLogger(infraRepo.NewAuditRepository(db), nil, logger)
	coordinator := service.NewMutationCoordinator(infraRepo.NewIdempotencyRepository(db), infraRepo.NewTransactor(db), audit,
		cfg.Idempotency, service.WithLogger(logger))
	currency := service.NewCurrencyLedger(users, nil)
	entitlements := service.NewEntitlementLedger(infraRepo.NewEntitlementRepository(db), nil)

	handlers := &Handlers{
		User: handler.NewUserHandler(service.NewUserService(users, currency, nil), entitlements),
		Revenue: handler.NewRevenueHandler(service.NewRevenueService(coordinator, entitlements, users,
			infraRepo.NewSkuRepository(db), infraRepo.NewOrderRepository(db), infraRepo.NewRevenueRepository(db), cfg.Economy, nil)),
		Reward: handler.NewRewardHandler(
			service.NewBonusService(coordinator, currency, audit, bonusRepo, nil),
			service.NewReferralService(coordinator, currency, bonusRepo, users, cfg.Economy, nil),
			service.NewGiftService(coordinator, currency, infraRepo.NewTransferRepository(db), cfg.Economy, nil),
		),
		Admin: handler.NewAdminHandler(service.NewAdminService(coordinator, entitlements, audit, users)),
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	jwtManager := utils.NewJWTManager("test-secret", time.Hour)
	router := Setup(handlers, &Deps{JWTManager: jwtManager, Cfg: cfg, Logger: logger, Ctx: ctx})
	return &testServer{router: router, db: db, jwt: jwtManager}
}

func (s *testServer) token(t *testing.T, userID uuid.UUID, roles ...string) string {
	t.Helper()
	token, err := s.jwt.GenerateAccessToken(userID, roles)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, headers map[string]string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func key(k string) map[string]string {
	return map[string]string{"Idempotency-Key": k}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"idempotency_store":"database"`)
}

func TestRoutesRequireAuth(t *testing.T) {
	s := newTestServer(t, nil)
	w, env := s.do(t, http.MethodGet, "/api/v1/profile/balances", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", env.Code)

	w, _ = s.do(t, http.MethodGet, "/api/v1/profile/balances", "garbage", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPurchaseReplaysExactBody(t *testing.T) {
	s := newTestServer(t, nil)
	user := testutil.CreateUser(t, s.db, "buyer", entity.Balances{})
	token := s.token(t, user.ID)
	body := map[string]any{"stream": "tournament_ticket", "sku_key": "tournament_ticket_standard", "quantity": 2}

	w, env := s.do(t, http.MethodPost, "/api/v1/revenue/purchases", token, nil, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "IDEMPOTENCY_KEY_REQUIRED", env.Code)
	var orders int64
	require.NoError(t, s.db.Model(&entity.Order{}).Count(&orders).Error)
	assert.Zero(t, orders)

	first, firstEnv := s.do(t, http.MethodPost, "/api/v1/revenue/purchases", token, key("buy-1"), body)
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	assert.Equal(t, "false", first.Header().Get("X-Idempotency-Replayed"))
	assert.False(t, firstEnv.Replayed)

	second, secondEnv := s.do(t, http.MethodPost, "/api/v1/revenue/purchases", token,
		map[string]string{"X-Idempotency-Key": "buy-1"}, body)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "true", second.Header().Get("X-Idempotency-Replayed"))
	assert.True(t, secondEnv.Replayed)
	assert.Equal(t, string(firstEnv.Data), string(secondEnv.Data))

	require.NoError(t, s.db.Model(&entity.Order{}).Count(&orders).Error)
	assert.Equal(t, int64(1), orders)

	body["quantity"] = 3
	w, env = s.do(t, http.MethodPost, "/api/v1/revenue/purchases", token, key("buy-1"), body)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "IDEMPOTENCY_PAYLOAD_MISMATCH", env.Code)
}

func TestDomainErrorsCarryCodes(t *testing.T) {
	s := newTestServer(t, nil)
	user := testutil.CreateUser(t, s.db, "entrant", entity.Balances{})
	token := s.token(t, user.ID)

	w, env := s.do(t, http.MethodPost, "/api/v1/revenue/tournaments/t-1/entries", token, key("enter-1"), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "TOURNAMENT_TICKET_REQUIRED", env.Code)

	w, env = s.do(t, http.MethodPost, "/api/v1/bonuses/claim", token, key("bonus-1"), map[string]any{"bonus_type": "first_loss"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_BONUS_TYPE", env.Code)

	w, env = s.do(t, http.MethodGet, "/api/v1/revenue/season-pass/abc", token, nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_COVERAGEYEAR", env.Code)
}

func TestGiftWithKeyInBody(t *testing.T) {
	s := newTestServer(t, nil)
	sender := testutil.CreateUser(t, s.db, "sender", entity.Balances{Souls: 100})
	recipient := testutil.CreateUser(t, s.db, "recipient", entity.Balances{})
	token := s.token(t, sender.ID)

	body := map[string]any{
		"idempotency_key": "gift-1",
		"recipient_id":    recipient.ID.String(),
		"currency":        "souls",
		"amount":          40,
	}
	w, env := s.do(t, http.MethodPost, "/api/v1/gifts", token, nil, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var gift struct {
		Amount         int64           `json:"amount"`
		SenderBalances entity.Balances `json:"sender_balances"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &gift))
	assert.Equal(t, int64(40), gift.Amount)
	assert.Equal(t, int64(60), gift.SenderBalances.Souls)

	w, _ = s.do(t, http.MethodPost, "/api/v1/gifts", token, nil, body)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/v1/gifts", s.token(t, recipient.ID), nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var stored entity.User
	require.NoError(t, s.db.First(&stored, "id = ?", recipient.ID).Error)
	assert.Equal(t, int64(40), stored.Souls)
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t, nil)
	operator := testutil.CreateUser(t, s.db, "operator", entity.Balances{})
	player := testutil.CreateUser(t, s.db, "player", entity.Balances{})
	grant := map[string]any{"user_id": player.ID.String(), "entitlement_type": "tournament_ticket", "quantity": 2}

	w, env := s.do(t, http.MethodPost, "/api/v1/admin/entitlements", s.token(t, player.ID), key("grant-1"), grant)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", env.Code)

	adminToken := s.token(t, operator.ID, "admin")
	w, _ = s.do(t, http.MethodPost, "/api/v1/admin/entitlements", adminToken, key("grant-1"), grant)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, env = s.do(t, http.MethodGet, "/api/v1/admin/idempotency/admin.entitlement.grant/grant-1", adminToken, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"succeeded"`)

	w, env = s.do(t, http.MethodGet, "/api/v1/admin/idempotency/admin.entitlement.grant/missing", adminToken, nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", env.Code)

	w, _ = s.do(t, http.MethodGet, "/api/v1/admin/audit?event_type=admin.entitlement.grant.succeeded", adminToken, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "grant-1")

	w, _ = s.do(t, http.MethodGet, "/api/v1/profile/entitlements", s.token(t, player.ID), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":1`)
}

func TestMemoryStoreRefusedInProduction(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) {
		cfg.App.Env = "production"
		cfg.Idempotency.Store = "memory"
	})
	user := testutil.CreateUser(t, s.db, "prod", entity.Balances{})

	w, env := s.do(t, http.MethodPost, "/api/v1/bonuses/claim", s.token(t, user.ID), key("b-1"),
		map[string]any{"bonus_type": "first_game_played"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "PG_REQUIRED", env.Code)

	w, _ = s.do(t, http.MethodGet, "/api/v1/bonuses", s.token(t, user.ID), nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProfileProvision(t *testing.T) {
	s := newTestServer(t, nil)
	id := uuid.New()
	token := s.token(t, id)

	w, _ := s.do(t, http.MethodGet, "/api/v1/profile/balances", token, nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env := s.do(t, http.MethodPost, "/api/v1/profile", token, nil, map[string]any{"username": "ghost"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, string(env.Data), `"ghost"`)

	w, env = s.do(t, http.MethodGet, "/api/v1/profile/balances", token, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"horror_coins":0,"souls":0,"blood_gems":0}`, string(env.Data))
}
