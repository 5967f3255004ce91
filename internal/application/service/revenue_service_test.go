package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/economy-api/internal/domain/entity"
	"github.com/sangkips/economy-api/internal/domain/enum"
	"github.com/sangkips/economy-api/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64Ptr(v int64) *int64 { return &v }

func (h *harness) buy(t *testing.T, userID uuid.UUID, key string, input *PurchaseInput) map[string]any {
	t.Helper()
	result, err := h.revenue.Purchase(context.Background(), mctx(userID, key), input)
	require.NoError(t, err)
	return decode(t, result)
}

func TestPurchaseTournamentTicket(t *testing.T) {
	h := newHarness(t)
	userID := h.user(t, "buyer", entity.Balances{})

	body := h.buy(t, userID, "p1", &PurchaseInput{Stream: "tournament_ticket", SkuKey: "tournament_ticket_standard", Quantity: int64Ptr(2)})
	assert.Equal(t, "tournament_ticket", body["stream"])
	assert.Equal(t, float64(2), body["quantity"])
	assert.Equal(t, float64(398), body["amount"])
	assert.Equal(t, "USD", body["currency"])

	order := &entity.Order{}
	require.NoError(t, h.db.Preload("Items").First(order, "id = ?", body["order_id"]).Error)
	assert.Equal(t, int64(398), order.TotalAmount)
	require.Len(t, order.Items, 1)
	assert.Equal(t, int64(2), order.Items[0].Quantity)

	ent, err := h.entitlements.Get(context.Background(), body["entitlement_id"].(string))
	require.NoError(t, err)
	assert.Equal(t, int64(2), ent.Quantity)
	assert.Equal(t, "tournament_ticket_purchase", ent.GrantedReason)
	assert.JSONEq(t, `{"stream":"tournament_ticket","ticketTier":"standard"}`, string(ent.Metadata))
}

func TestPurchaseValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	userID := h.user(t, "picky", entity.Balances{})

	_, err := h.revenue.Purchase(ctx, mctx(userID, "a"), &PurchaseInput{Stream: "loot_box", SkuKey: "x"})
	requireCode(t, err, apperror.CodeInvalidStream)

	_, err = h.revenue.Purchase(ctx, mctx(userID, "b"), &PurchaseInput{Stream: "xp_booster", SkuKey: "tournament_ticket_standard"})
	requireCode(t, err, apperror.CodeInvalidSku)

	_, err = h.revenue.Purchase(ctx, mctx(userID, "c"), &PurchaseInput{Stream: "xp_booster", SkuKey: "nope"})
	requireCode(t, err, apperror.CodeSkuNotFound)

	_, err = h.revenue.Purchase(ctx, mctx(userID, "d"), &PurchaseInput{Stream: "tournament_ticket", SkuKey: "tournament_ticket_standard", Quantity: int64Ptr(21)})
	requireCode(t, err, apperror.CodeInvalidQuantity)

	bad := 7.5
	_, err = h.revenue.Purchase(ctx, mctx(userID, "e"), &PurchaseInput{Stream: "xp_booster", SkuKey: "xp_booster_125_60", Multiplier: &bad})
	requireCode(t, err, apperror.CodeInvalidMultiplier)

	_, err = h.revenue.Purchase(ctx, mctx(userID, "f"), &PurchaseInput{Stream: "xp_booster", SkuKey: "xp_booster_125_60", DurationMinutes: int64Ptr(2)})
	requireCode(t, err, apperror.CodeInvalidDuration)

	_, err = h.revenue.Purchase(ctx, mctx(userID, "g"), &PurchaseInput{Stream: "season_pass", SkuKey: "season_pass_annual", CoverageYear: int64Ptr(1999)})
	requireCode(t, err, apperror.CodeInvalidCoverageYear)

	_, err = h.revenue.Purchase(ctx, mctx(uuid.New(), "h"), &PurchaseInput{Stream: "founder_edition", SkuKey: "founder_edition"})
	requireCode(t, err, apperror.CodeUserNotFound)

	assert.Zero(t, h.count(t, &entity.Order{}, "user_id = ?", userID))
}

func TestPurchaseVelocityCap(t *testing.T) {
	h := newHarness(t, func(o *harnessOptions) { o.economy.MaxRevenuePurchasesPerMinute = 1 })
	ctx := context.Background()
	userID := h.user(t, "fast", entity.Balances{})
	input := &PurchaseInput{Stream: "tournament_ticket", SkuKey: "tournament_ticket_standard"}

	h.buy(t, userID, "v1", input)
	_, err := h.revenue.Purchase(ctx, mctx(userID, "v2"), input)
	requireCode(t, err, apperror.CodeRevenuePurchaseRateLimited)

	// a replay of the first purchase is not a new purchase
	replay, err := h.revenue.Purchase(ctx, mctx(userID, "v1"), input)
	require.NoError(t, err)
	assert.True(t, replay.Replayed)

	h.clock.Advance(61 * time.Second)
	h.buy(t, userID, "v3", input)
	assert.Equal(t, int64(2), h.count(t, &entity.Order{}, "user_id = ?", userID))
}

func TestTournamentEntryIsOncePerTournament(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	userID := h.user(t, "player", entity.Balances{})

	_, err := h.revenue.ConsumeTournamentTicket(ctx, mctx(userID, "t0"), "cup-1")
	requireCode(t, err, apperror.CodeTournamentTicketRequired)

	h.buy(t, userID, "buy", &PurchaseInput{Stream: "tournament_ticket", SkuKey: "tournament_ticket_standard", Quantity: int64Ptr(2)})

	first, err := h.revenue.ConsumeTournamentTicket(ctx, mctx(userID, "t1"), "cup-1")
	require.NoError(t, err)
	body := decode(t, first)
	assert.Equal(t, float64(1), body["remaining"])
	assert.Equal(t, float64(1), body["has_ticket"])

	replay, err := h.revenue.ConsumeTournamentTicket(ctx, mctx(userID, "t1"), "cup-1")
	require.NoError(t, err)
	assert.True(t, replay.Replayed)
	assert.Equal(t, string(first.ResponseBody), string(replay.ResponseBody))

	_, err = h.revenue.ConsumeTournamentTicket(ctx, mctx(userID, "t2"), "cup-1")
	requireCode(t, err, apperror.CodeTournamentAlreadyEntered)

	_, err = h.revenue.ConsumeTournamentTicket(ctx, mctx(userID, "t3"), "cup-2")
	require.NoError(t, err)

	_, err = h.revenue.ConsumeTournamentTicket(ctx, mctx(userID, "t4"), "cup-3")
	requireCode(t, err, apperror.CodeTournamentTicketRequired)

	assert.Equal(t, int64(2), h.count(t, &entity.TournamentTicketConsumption{}, "user_id = ?", userID))
	assert.Equal(t, int64(2), h.count(t, &entity.EntitlementConsumption{}, "user_id = ?", userID))
}

func TestBoosterActivationCaps(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	userID := h.user(t, "booster", entity.Balances{})

	_, err := h.revenue.ActivateBooster(ctx, mctx(userID, "a0"), "")
	requireCode(t, err, apperror.CodeNoXpBoosterAvailable)

	h.buy(t, userID, "buy", &PurchaseInput{Stream: "xp_booster", SkuKey: "xp_booster_200_30", Quantity: int64Ptr(2)})

	first, err := h.revenue.ActivateBooster(ctx, mctx(userID, "a1"), "")
	require.NoError(t, err)
	body := decode(t, first)
	assert.Equal(t, 2.0, body["effective_multiplier"])
	activation := body["activation"].(map[string]any)
	entitlementID := activation["entitlement_id"].(string)

	_, err = h.revenue.ActivateBooster(ctx, mctx(userID, "a2"), entitlementID)
	requireCode(t, err, apperror.CodeBoosterStackCapExceeded)

	assert.Equal(t, int64(1), h.count(t, &entity.XpBoosterActivation{}, "user_id = ?", userID))
	ent, err := h.entitlements.Get(ctx, entitlementID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), ent.ConsumedQuantity, "refused activation consumed nothing")

	multiplier, err := h.revenue.EffectiveMultiplier(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "2", multiplier.String())

	// after the 30 minute window closes the booster can stack again
	h.clock.Advance(31 * time.Minute)
	_, err = h.revenue.ActivateBooster(ctx, mctx(userID, "a3"), entitlementID)
	require.NoError(t, err)
}

func TestBoosterActiveCap(t *testing.T) {
	h := newHarness(t, func(o *harnessOptions) { o.economy.MaxStackedMultiplier = "5.0" })
	ctx := context.Background()
	userID := h.user(t, "stacker", entity.Balances{})
	h.buy(t, userID, "buy", &PurchaseInput{Stream: "xp_booster", SkuKey: "xp_booster_125_60", Quantity: int64Ptr(3)})

	for _, key := range []string{"a1", "a2"} {
		_, err := h.revenue.ActivateBooster(ctx, mctx(userID, key), "")
		require.NoError(t, err)
	}
	_, err := h.revenue.ActivateBooster(ctx, mctx(userID, "a3"), "")
	requireCode(t, err, apperror.CodeBoosterActiveCapReached)

	multiplier, err := h.revenue.EffectiveMultiplier(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "2.5", multiplier.String())
}

func TestBoosterBelongsToCaller(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.user(t, "owner", entity.Balances{})
	thief := h.user(t, "thief", entity.Balances{})
	body := h.buy(t, owner, "buy", &PurchaseInput{Stream: "xp_booster", SkuKey: "xp_booster_125_60"})

	_, err := h.revenue.ActivateBooster(ctx, mctx(thief, "steal"), body["entitlement_id"].(string))
	requireCode(t, err, apperror.CodeEntitlementNotFound)
}

func TestCharacterPackRedeem(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	userID := h.user(t, "collector", entity.Balances{})
	body := h.buy(t, userID, "buy", &PurchaseInput{Stream: "character_pack", SkuKey: "character_pack_night_terrors"})
	packID := body["entitlement_id"].(string)

	result, err := h.revenue.RedeemCharacterPack(ctx, mctx(userID, "r1"), packID)
	require.NoError(t, err)
	redeemed := decode(t, result)
	assert.Equal(t, []any{"wraith", "ghoul", "banshee"}, redeemed["unlocked_characters"])

	_, err = h.revenue.RedeemCharacterPack(ctx, mctx(userID, "r2"), packID)
	requireCode(t, err, apperror.CodeEntitlementAlreadyConsumed)

	status, err := h.revenue.Status(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 3, status.Characters.UnlockedCount)
}

func TestCharacterPackCustomKeysSkipOwned(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	userID := h.user(t, "collector", entity.Balances{})

	first := h.buy(t, userID, "b1", &PurchaseInput{Stream: "character_pack", SkuKey: "character_pack_night_terrors"})
	_, err := h.revenue.RedeemCharacterPack(ctx, mctx(userID, "r1"), first["entitlement_id"].(string))
	require.NoError(t, err)

	second := h.buy(t, userID, "b2", &PurchaseInput{Stream: "character_pack", SkuKey: "character_pack_night_terrors", CharacterKeys: []string{" ghoul ", "lich", "lich"}})
	result, err := h.revenue.RedeemCharacterPack(ctx, mctx(userID, "r2"), second["entitlement_id"].(string))
	require.NoError(t, err)
	assert.Equal(t, []any{"lich"}, decode(t, result)["unlocked_characters"])
}

func TestUnreadableEntitlementMetadataIsReported(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	userID := h.user(t, "corrupt", entity.Balances{})

	booster, err := h.entitlements.Grant(ctx, &GrantInput{
		UserID: userID, EntitlementType: enum.EntitlementXPBooster, Quantity: 1,
		Metadata: map[string]any{"multiplier": "lots", "durationMinutes": "forever"},
	})
	require.NoError(t, err)
	_, err = h.revenue.ActivateBooster(ctx, mctx(userID, "a1"), booster.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode booster metadata")
	assert.Zero(t, h.count(t, &entity.XpBoosterActivation{}, "user_id = ?", userID))

	pack, err := h.entitlements.Grant(ctx, &GrantInput{
		UserID: userID, EntitlementType: enum.EntitlementCharacterPack, Quantity: 1,
		Metadata: map[string]any{"characterKeys": "wraith"},
	})
	require.NoError(t, err)
	_, err = h.revenue.RedeemCharacterPack(ctx, mctx(userID, "r1"), pack.ID)
	requireCode(t, err, apperror.CodeCharacterPackMetadataInvalid)

	ent, err := h.entitlements.Get(ctx, pack.ID)
	require.NoError(t, err)
	assert.Zero(t, ent.ConsumedQuantity)
}

func TestSeasonPassCoverage(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	userID := h.user(t, "seasonal", entity.Balances{})

	h.buy(t, userID, "s1", &PurchaseInput{Stream: "season_pass", SkuKey: "season_pass_annual"})
	h.buy(t, userID, "s2", &PurchaseInput{Stream: "season_pass", SkuKey: "season_pass_annual", CoverageYear: int64Ptr(2027)})

	current, err := h.revenue.SeasonPassCoverage(ctx, userID, 2026)
	require.NoError(t, err)
	require.NotNil(t, current)

	next, err := h.revenue.SeasonPassCoverage(ctx, userID, 2027)
	require.NoError(t, err)
	require.NotNil(t, next)

	none, err := h.revenue.SeasonPassCoverage(ctx, userID, 2030)
	require.NoError(t, err)
	assert.Nil(t, none)

	status, err := h.revenue.Status(ctx, userID)
	require.NoError(t, err)
	assert.True(t, status.SeasonPass.Covered)
	assert.Equal(t, 2026, status.SeasonPass.CurrentYear)
}

func TestFounderEditionIsOwnedOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	userID := h.user(t, "founder", entity.Balances{})
	input := &PurchaseInput{Stream: "founder_edition", SkuKey: "founder_edition"}

	h.buy(t, userID, "f1", input)
	_, err := h.revenue.Purchase(ctx, mctx(userID, "f2"), input)
	requireCode(t, err, apperror.CodeFounderAlreadyOwned)

	assert.Equal(t, int64(1), h.count(t, &entity.Order{}, "user_id = ? AND stream = ?", userID, "founder_edition"))
	assert.Equal(t, int64(1), h.count(t, &entity.FounderTransferEvent{}, "from_user_id = ?", userID))

	status, err := h.revenue.Status(ctx, userID)
	require.NoError(t, err)
	assert.True(t, status.Founder.Owned)
	assert.False(t, status.Founder.Ownership.Transferable)
	assert.Len(t, status.Entitlements, 1)
}
