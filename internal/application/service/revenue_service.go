package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/economy-api/internal/config"
	"github.com/sangkips/economy-api/internal/domain/entity"
	"github.com/sangkips/economy-api/internal/domain/enum"
	"github.com/sangkips/economy-api/internal/domain/repository"
	"github.com/sangkips/economy-api/pkg/apperror"
	"github.com/sangkips/economy-api/pkg/normalize"
	"github.com/sangkips/economy-api/pkg/pagination"
	"github.com/sangkips/economy-api/pkg/utils"
	"github.com/shopspring/decimal"
)

const (
	defaultBoosterMultiplier = "1.25"
	defaultBoosterMinutes    = 60
	minBoosterMinutes        = 5
	maxBoosterMinutes        = 1440
	minCoverageYear          = 2020
	maxCoverageYear          = 2200
	purchaseSource           = "revenue_api"
)

var (
	minMultiplier = decimal.NewFromInt(1)
	maxMultiplier = decimal.NewFromInt(5)
)

// RevenueService sells revenue-stream products and redeems the entitlements they grant
type RevenueService struct {
	coordinator  *MutationCoordinator
	entitlements *EntitlementLedger
	userRepo     repository.UserRepository
	skuRepo      repository.SkuRepository
	orderRepo    repository.OrderRepository
	revenueRepo  repository.RevenueRepository
	cfg          config.EconomyConfig
	stackCap     decimal.Decimal
	now          func() time.Time
}

// NewRevenueService creates a new revenue service
func NewRevenueService(
	coordinator *MutationCoordinator,
	entitlements *EntitlementLedger,
	userRepo repository.UserRepository,
	skuRepo repository.SkuRepository,
	orderRepo repository.OrderRepository,
	revenueRepo repository.RevenueRepository,
	cfg config.EconomyConfig,
	now func() time.Time,
) *RevenueService {
	if now == nil {
		now = utcNow
	}
	stackCap, err := decimal.NewFromString(cfg.MaxStackedMultiplier)
	if err != nil || stackCap.LessThan(minMultiplier) {
		stackCap = decimal.RequireFromString("3.0")
	}
	return &RevenueService{
		coordinator:  coordinator,
		entitlements: entitlements,
		userRepo:     userRepo,
		skuRepo:      skuRepo,
		orderRepo:    orderRepo,
		revenueRepo:  revenueRepo,
		cfg:          cfg,
		stackCap:     stackCap,
		now:          now,
	}
}

// MutationContext carries the request identity shared by every idempotent call
type MutationContext struct {
	UserID         uuid.UUID
	IdempotencyKey string
	RequestID      string
}

func (m MutationContext) request(scope, entityType, eventType string, payload any) MutationRequest {
	userID := m.UserID
	return MutationRequest{
		Scope:          scope,
		IdempotencyKey: m.IdempotencyKey,
		Payload:        payload,
		ActorUserID:    &userID,
		TargetUserID:   &userID,
		EntityType:     entityType,
		EventType:      eventType,
		RequestID:      m.RequestID,
	}
}

// PurchaseInput represents the input for a revenue purchase
type PurchaseInput struct {
	Stream          string
	SkuKey          string
	Quantity        *int64
	Multiplier      *float64
	DurationMinutes *int64
	CharacterKeys   []string
	CoverageYear    *int64
	TicketTier      string
}

// PurchaseResult is the stored response of a purchase
type PurchaseResult struct {
	Stream        string `json:"stream"`
	SkuKey        string `json:"sku_key"`
	OrderID       string `json:"order_id"`
	EntitlementID string `json:"entitlement_id"`
	Quantity      int64  `json:"quantity"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
}

// purchaseConfig is the per-stream shape of the entitlement a purchase grants
type purchaseConfig struct {
	entitlementType string
	quantity        int64
	metadata        map[string]any
	coverageYear    int
}

// Purchase records an order for a SKU and grants the entitlement of its stream
func (s *RevenueService) Purchase(ctx context.Context, mc MutationContext, input *PurchaseInput) (*MutationResult, error) {
	stream, ok := enum.ParseRevenueStream(input.Stream)
	if !ok {
		return nil, apperror.New(apperror.CodeInvalidStream, "stream is required")
	}
	skuKey, err := normalize.RequiredString(input.SkuKey, "sku", normalize.MaxIDLength)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"userId":          mc.UserID,
		"stream":          stream,
		"skuKey":          skuKey,
		"quantity":        input.Quantity,
		"multiplier":      input.Multiplier,
		"durationMinutes": input.DurationMinutes,
		"characterKeys":   input.CharacterKeys,
		"coverageYear":    input.CoverageYear,
		"ticketTier":      strings.TrimSpace(input.TicketTier),
	}
	req := mc.request("revenue.purchase."+stream.String(), "revenue_purchase", "revenue."+stream.String()+".purchase", payload)

	return s.coordinator.Execute(ctx, req, func(ctx context.Context) (*MutationOutcome, error) {
		now := s.now()

		recent, err := s.orderRepo.CountByStreamSince(ctx, mc.UserID, stream.String(), now.Add(-time.Minute))
		if err != nil {
			return nil, err
		}
		if s.cfg.MaxRevenuePurchasesPerMinute > 0 && recent >= s.cfg.MaxRevenuePurchasesPerMinute {
			return nil, apperror.New(apperror.CodeRevenuePurchaseRateLimited, "Revenue purchase rate limit exceeded")
		}

		exists, err := s.userRepo.Exists(ctx, mc.UserID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, apperror.New(apperror.CodeUserNotFound, "User not found")
		}

		sku, err := s.skuRepo.GetByKey(ctx, skuKey)
		if err != nil {
			return nil, err
		}
		if sku == nil {
			return nil, apperror.New(apperror.CodeSkuNotFound, "SKU not found")
		}
		if sku.Stream != stream.String() {
			return nil, apperror.Newf(apperror.CodeInvalidSku, "SKU %s is not sold on the %s stream", skuKey, stream)
		}

		pc, err := s.purchaseConfig(stream, input, sku, now)
		if err != nil {
			return nil, err
		}

		if stream == enum.StreamFounderEdition {
			owned, err := s.revenueRepo.GetFounderOwnership(ctx, mc.UserID)
			if err != nil {
				return nil, err
			}
			if owned != nil {
				return nil, apperror.New(apperror.CodeFounderAlreadyOwned, "Founder edition already owned")
			}
		}

		total := sku.UnitAmount * pc.quantity
		orderMeta, _ := normalize.Metadata(map[string]any{"stream": stream, "skuKey": skuKey, "source": purchaseSource})
		itemMeta, _ := normalize.Metadata(map[string]any{"stream": stream})
		orderID := utils.NewID("ord")
		order := &entity.Order{
			ID:             orderID,
			UserID:         mc.UserID,
			Stream:         stream.String(),
			Status:         enum.OrderStatusCompleted,
			Currency:       sku.Currency,
			SubtotalAmount: total,
			TotalAmount:    total,
			Metadata:       orderMeta,
			CreatedAt:      now,
			UpdatedAt:      now,
			Items: []entity.OrderItem{{
				ID:          utils.NewID("ord_item"),
				OrderID:     orderID,
				SkuID:       sku.ID,
				Quantity:    pc.quantity,
				UnitAmount:  sku.UnitAmount,
				TotalAmount: total,
				Metadata:    itemMeta,
				CreatedAt:   now,
			}},
		}
		if err := s.orderRepo.Create(ctx, order); err != nil {
			return nil, fmt.Errorf("create order: %w", err)
		}

		entitlement, err := s.entitlements.Grant(ctx, &GrantInput{
			UserID:           mc.UserID,
			EntitlementType:  pc.entitlementType,
			Quantity:         pc.quantity,
			SkuID:            &sku.ID,
			GrantedByOrderID: &order.ID,
			GrantedReason:    stream.String() + "_purchase",
			Metadata:         pc.metadata,
		})
		if err != nil {
			return nil, err
		}

		switch stream {
		case enum.StreamSeasonPass:
			if err := s.coverSeason(ctx, mc.UserID, pc.coverageYear, entitlement.ID, order.ID, now); err != nil {
				return nil, err
			}
		case enum.StreamFounderEdition:
			if err := s.recordFounder(ctx, mc.UserID, entitlement.ID, order.ID, now); err != nil {
				return nil, err
			}
		}

		return &MutationOutcome{
			Body: &PurchaseResult{
				Stream:        stream.String(),
				SkuKey:        skuKey,
				OrderID:       order.ID,
				EntitlementID: entitlement.ID,
				Quantity:      pc.quantity,
				Amount:        total,
				Currency:      sku.Currency,
			},
			ResourceType: "revenue_purchase",
			ResourceID:   order.ID,
		}, nil
	})
}

func (s *RevenueService) purchaseConfig(stream enum.RevenueStream, input *PurchaseInput, sku *entity.Sku, now time.Time) (*purchaseConfig, error) {
	quantity := int64(1)
	if input.Quantity != nil {
		q, err := normalize.PositiveInt(*input.Quantity, "quantity", 1, s.maxPurchaseQty())
		if err != nil {
			return nil, err
		}
		quantity = q
	}

	var skuMeta skuMetadata
	if len(sku.Metadata) > 0 {
		if err := json.Unmarshal(sku.Metadata, &skuMeta); err != nil {
			return nil, fmt.Errorf("decode sku metadata: %w", err)
		}
	}

	pc := &purchaseConfig{
		entitlementType: stream.EntitlementType(),
		quantity:        quantity,
		metadata:        map[string]any{"stream": stream},
	}

	switch stream {
	case enum.StreamTournamentTicket:
		tier := strings.TrimSpace(input.TicketTier)
		if tier == "" {
			tier = "standard"
		}
		pc.metadata["ticketTier"] = tier

	case enum.StreamXPBooster:
		multiplier := decimal.RequireFromString(defaultBoosterMultiplier)
		switch {
		case input.Multiplier != nil:
			multiplier = decimal.NewFromFloat(*input.Multiplier)
		case skuMeta.Multiplier != nil:
			multiplier = *skuMeta.Multiplier
		}
		multiplier, err := validMultiplier(multiplier)
		if err != nil {
			return nil, err
		}
		minutes := int64(defaultBoosterMinutes)
		switch {
		case input.DurationMinutes != nil:
			minutes = *input.DurationMinutes
		case skuMeta.DurationMinutes != nil:
			minutes = *skuMeta.DurationMinutes
		}
		minutes, err = normalize.PositiveInt(minutes, "durationMinutes", minBoosterMinutes, maxBoosterMinutes)
		if err != nil {
			return nil, err
		}
		pc.metadata["multiplier"] = multiplier.InexactFloat64()
		pc.metadata["durationMinutes"] = minutes

	case enum.StreamCharacterPack:
		keys := normalize.Keys(input.CharacterKeys)
		if len(keys) == 0 {
			keys = normalize.Keys(skuMeta.CharacterKeys)
		}
		if len(keys) == 0 {
			return nil, apperror.New(apperror.CodeCharacterKeysRequired, "characterKeys are required for character_pack")
		}
		pc.quantity = 1
		pc.metadata["packKey"] = sku.SkuKey
		pc.metadata["characterKeys"] = keys

	case enum.StreamSeasonPass:
		year := int64(now.Year())
		if input.CoverageYear != nil {
			y, err := normalize.PositiveInt(*input.CoverageYear, "coverageYear", minCoverageYear, maxCoverageYear)
			if err != nil {
				return nil, err
			}
			year = y
		}
		pc.quantity = 1
		pc.coverageYear = int(year)
		pc.metadata["coverageYear"] = year

	case enum.StreamFounderEdition:
		pc.quantity = 1
		pc.metadata["transfer"] = map[string]any{
			"transferable":      false,
			"eligibilityStatus": "not_eligible",
		}
		pc.metadata["lifetimePerks"] = []string{"founder_badge", "founder_title", "legacy_cosmetics"}
	}

	return pc, nil
}

func (s *RevenueService) maxPurchaseQty() int64 {
	if s.cfg.MaxPurchaseQty > 0 {
		return s.cfg.MaxPurchaseQty
	}
	return 20
}

func (s *RevenueService) coverSeason(ctx context.Context, userID uuid.UUID, year int, entitlementID, orderID string, now time.Time) error {
	metadata, _ := normalize.Metadata(map[string]any{"stream": enum.StreamSeasonPass, "sourceOrderId": orderID})
	return s.revenueRepo.UpsertSeasonPassCoverage(ctx, &entity.SeasonPassCoverage{
		ID:            utils.NewID("sp_cov"),
		UserID:        userID,
		CoverageYear:  year,
		EntitlementID: entitlementID,
		Status:        "active",
		Metadata:      metadata,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
}

func (s *RevenueService) recordFounder(ctx context.Context, userID uuid.UUID, entitlementID, orderID string, now time.Time) error {
	metadata, _ := normalize.Metadata(map[string]any{
		"stream":               enum.StreamFounderEdition,
		"sourceOrderId":        orderID,
		"lifetimePerksGranted": true,
	})
	ownership := &entity.FounderOwnership{
		ID:                        utils.NewID("founder"),
		UserID:                    userID,
		EntitlementID:             entitlementID,
		Transferable:              false,
		TransferEligibilityStatus: "not_eligible",
		Metadata:                  metadata,
		CreatedAt:                 now,
		UpdatedAt:                 now,
	}
	inserted, err := s.revenueRepo.CreateFounderOwnership(ctx, ownership)
	if err != nil {
		return err
	}
	if !inserted {
		return apperror.New(apperror.CodeFounderAlreadyOwned, "Founder edition already owned")
	}

	eventMeta, _ := normalize.Metadata(map[string]any{"transferable": false, "eligibilityStatus": "not_eligible"})
	from := userID
	return s.revenueRepo.CreateFounderTransferEvent(ctx, &entity.FounderTransferEvent{
		ID:                 utils.NewID("founder_tx"),
		FounderOwnershipID: ownership.ID,
		FromUserID:         &from,
		TransferStatus:     "initialized",
		Reason:             "initial_purchase",
		Metadata:           eventMeta,
		CreatedAt:          now,
	})
}

// TournamentEntryResult is the stored response of a tournament entry
type TournamentEntryResult struct {
	TournamentID  string `json:"tournament_id"`
	EntitlementID string `json:"entitlement_id"`
	Remaining     int64  `json:"remaining"`
	AlreadyUsed   int    `json:"already_used"`
	HasTicket     int    `json:"has_ticket"`
}

// ConsumeTournamentTicket spends the oldest usable ticket to enter a tournament once
func (s *RevenueService) ConsumeTournamentTicket(ctx context.Context, mc MutationContext, tournamentID string) (*MutationResult, error) {
	tournamentID, err := normalize.RequiredString(tournamentID, "tournamentId", normalize.MaxIDLength)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{"userId": mc.UserID, "tournamentId": tournamentID}
	req := mc.request("revenue.tournament.consume", "tournament_ticket", "revenue.tournament.consume", payload)

	return s.coordinator.Execute(ctx, req, func(ctx context.Context) (*MutationOutcome, error) {
		now := s.now()
		alreadyEntered := apperror.New(apperror.CodeTournamentAlreadyEntered, "Tournament entry already consumed for this tournament")
		noTicket := apperror.New(apperror.CodeTournamentTicketRequired, "No tournament ticket available")

		entered, err := s.revenueRepo.HasTournamentEntry(ctx, mc.UserID, tournamentID)
		if err != nil {
			return nil, err
		}
		if entered {
			return nil, alreadyEntered
		}

		ticket, err := s.entitlements.GetActiveByType(ctx, mc.UserID, enum.EntitlementTournamentTicket)
		if err != nil {
			return nil, err
		}
		if ticket == nil {
			return nil, noTicket
		}

		metadata, _ := normalize.Metadata(map[string]any{"source": purchaseSource})
		inserted, err := s.revenueRepo.CreateTournamentEntry(ctx, &entity.TournamentTicketConsumption{
			ID:             utils.NewID("ttc"),
			UserID:         mc.UserID,
			TournamentID:   tournamentID,
			EntitlementID:  ticket.ID,
			IdempotencyKey: optional(mc.IdempotencyKey, normalize.MaxIdempotencyKeyLength),
			Metadata:       metadata,
			ConsumedAt:     now,
			CreatedAt:      now,
		})
		if err != nil {
			return nil, err
		}
		if !inserted {
			return nil, alreadyEntered
		}

		updated, err := s.entitlements.ConsumeQuantity(ctx, ticket.ID, 1)
		if err != nil {
			if apperror.IsAppError(err) {
				return nil, noTicket
			}
			return nil, err
		}

		if _, err := s.entitlements.RecordConsumption(ctx, &ConsumptionInput{
			EntitlementID:  ticket.ID,
			UserID:         mc.UserID,
			Quantity:       1,
			IdempotencyKey: mc.IdempotencyKey,
			Metadata:       map[string]any{"reason": "tournament_entry", "tournamentId": tournamentID},
		}); err != nil {
			return nil, err
		}

		return &MutationOutcome{
			Body: &TournamentEntryResult{
				TournamentID:  tournamentID,
				EntitlementID: ticket.ID,
				Remaining:     updated.Remaining(),
				AlreadyUsed:   0,
				HasTicket:     1,
			},
			ResourceType: "tournament_consume",
			ResourceID:   mc.UserID.String() + ":" + tournamentID,
		}, nil
	})
}

// CharacterPackResult is the stored response of a pack redemption
type CharacterPackResult struct {
	EntitlementID      string   `json:"entitlement_id"`
	UnlockedCharacters []string `json:"unlocked_characters"`
}

// RedeemCharacterPack consumes a character pack and unlocks every character it holds
func (s *RevenueService) RedeemCharacterPack(ctx context.Context, mc MutationContext, entitlementID string) (*MutationResult, error) {
	entitlementID, err := normalize.RequiredString(entitlementID, "entitlementId", normalize.MaxIDLength)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{"userId": mc.UserID, "entitlementId": entitlementID}
	req := mc.request("revenue.character_pack.redeem", "character_pack", "revenue.character_pack.redeem", payload)

	return s.coordinator.Execute(ctx, req, func(ctx context.Context) (*MutationOutcome, error) {
		pack, err := s.ownedEntitlement(ctx, mc.UserID, entitlementID, enum.EntitlementCharacterPack, "Character pack entitlement not found")
		if err != nil {
			return nil, err
		}
		if err := checkUsable(pack, s.now()); err != nil {
			return nil, err
		}

		var meta packMetadata
		if len(pack.Metadata) > 0 {
			if err := json.Unmarshal(pack.Metadata, &meta); err != nil {
				return nil, apperror.New(apperror.CodeCharacterPackMetadataInvalid, "Character pack metadata is invalid")
			}
		}
		keys := normalize.Keys(meta.CharacterKeys)
		if len(keys) == 0 {
			return nil, apperror.New(apperror.CodeCharacterPackMetadataInvalid, "Character pack metadata is invalid")
		}

		now := s.now()
		unlocked := make([]string, 0, len(keys))
		unlockMeta, _ := normalize.Metadata(map[string]any{"source": "character_pack_redeem"})
		for _, key := range keys {
			inserted, err := s.revenueRepo.CreateCharacterUnlock(ctx, &entity.CharacterUnlock{
				ID:                  utils.NewID("char_unlock"),
				UserID:              mc.UserID,
				CharacterKey:        key,
				SourceEntitlementID: &pack.ID,
				SourcePackKey:       optional(meta.PackKey, normalize.MaxIDLength),
				Metadata:            unlockMeta,
				CreatedAt:           now,
			})
			if err != nil {
				return nil, err
			}
			if inserted {
				unlocked = append(unlocked, key)
			}
		}

		if _, err := s.entitlements.ConsumeQuantity(ctx, pack.ID, 1); err != nil {
			return nil, err
		}
		if _, err := s.entitlements.RecordConsumption(ctx, &ConsumptionInput{
			EntitlementID:  pack.ID,
			UserID:         mc.UserID,
			Quantity:       1,
			IdempotencyKey: mc.IdempotencyKey,
			Metadata:       map[string]any{"reason": "character_pack_redeem", "unlockedCharacters": unlocked},
		}); err != nil {
			return nil, err
		}

		return &MutationOutcome{
			Body:         &CharacterPackResult{EntitlementID: pack.ID, UnlockedCharacters: unlocked},
			ResourceType: "character_pack_redeem",
			ResourceID:   pack.ID,
		}, nil
	})
}

// BoosterActivationResult is the stored response of a booster activation
type BoosterActivationResult struct {
	Activation          *entity.XpBoosterActivation `json:"activation"`
	EffectiveMultiplier float64                     `json:"effective_multiplier"`
}

// ActivateBooster consumes a booster charge and opens its multiplier window. Without an
// entitlement id the oldest usable booster is used.
func (s *RevenueService) ActivateBooster(ctx context.Context, mc MutationContext, entitlementID string) (*MutationResult, error) {
	entitlementID = strings.TrimSpace(entitlementID)
	if len([]rune(entitlementID)) > normalize.MaxIDLength {
		return nil, apperror.Newf(apperror.CodeInvalidEntitlementID, "entitlementId must be <= %d chars", normalize.MaxIDLength)
	}

	var payloadID any
	if entitlementID != "" {
		payloadID = entitlementID
	}
	payload := map[string]any{"userId": mc.UserID, "entitlementId": payloadID}
	req := mc.request("revenue.booster.activate", "xp_booster", "revenue.booster.activate", payload)

	return s.coordinator.Execute(ctx, req, func(ctx context.Context) (*MutationOutcome, error) {
		var booster *entity.Entitlement
		var err error
		if entitlementID != "" {
			booster, err = s.ownedEntitlement(ctx, mc.UserID, entitlementID, enum.EntitlementXPBooster, "XP booster entitlement not found")
		} else {
			booster, err = s.entitlements.GetActiveByType(ctx, mc.UserID, enum.EntitlementXPBooster)
			if err == nil && booster == nil {
				err = apperror.New(apperror.CodeNoXpBoosterAvailable, "No XP booster available")
			}
		}
		if err != nil {
			return nil, err
		}

		now := s.now()
		if err := checkUsable(booster, now); err != nil {
			return nil, err
		}

		var meta boosterMetadata
		if len(booster.Metadata) > 0 {
			if err := json.Unmarshal(booster.Metadata, &meta); err != nil {
				return nil, fmt.Errorf("decode booster metadata for %s: %w", booster.ID, err)
			}
		}
		multiplier := decimal.RequireFromString(defaultBoosterMultiplier)
		if meta.Multiplier != nil && !meta.Multiplier.IsZero() {
			multiplier = *meta.Multiplier
		}
		multiplier, err = validMultiplier(multiplier)
		if err != nil {
			return nil, err
		}
		minutes := int64(defaultBoosterMinutes)
		if meta.DurationMinutes != nil && *meta.DurationMinutes != 0 {
			minutes = *meta.DurationMinutes
		}
		minutes, err = normalize.PositiveInt(minutes, "durationMinutes", minBoosterMinutes, maxBoosterMinutes)
		if err != nil {
			return nil, err
		}

		active, err := s.revenueRepo.ListActiveBoosters(ctx, mc.UserID, now)
		if err != nil {
			return nil, err
		}
		if s.cfg.MaxActiveBoosters > 0 && len(active) >= s.cfg.MaxActiveBoosters {
			return nil, apperror.New(apperror.CodeBoosterActiveCapReached, "Maximum concurrent boosters reached")
		}
		if sumMultipliers(active).Add(multiplier).GreaterThan(s.stackCap) {
			return nil, apperror.New(apperror.CodeBoosterStackCapExceeded, "Booster stack cap exceeded")
		}

		if _, err := s.entitlements.ConsumeQuantity(ctx, booster.ID, 1); err != nil {
			return nil, err
		}

		activationMeta, _ := normalize.Metadata(map[string]any{
			"source":    purchaseSource,
			"stackCap":  s.stackCap.InexactFloat64(),
			"activeCap": s.cfg.MaxActiveBoosters,
		})
		activation := &entity.XpBoosterActivation{
			ID:             utils.NewID("xp_boost"),
			UserID:         mc.UserID,
			EntitlementID:  booster.ID,
			Multiplier:     multiplier,
			StartsAt:       now,
			EndsAt:         now.Add(time.Duration(minutes) * time.Minute),
			IdempotencyKey: optional(mc.IdempotencyKey, normalize.MaxIdempotencyKeyLength),
			Metadata:       activationMeta,
			CreatedAt:      now,
		}
		if err := s.revenueRepo.CreateBoosterActivation(ctx, activation); err != nil {
			return nil, err
		}

		if _, err := s.entitlements.RecordConsumption(ctx, &ConsumptionInput{
			EntitlementID:  booster.ID,
			UserID:         mc.UserID,
			Quantity:       1,
			IdempotencyKey: mc.IdempotencyKey,
			Metadata: map[string]any{
				"reason":       "xp_booster_activation",
				"activationId": activation.ID,
				"startsAt":     activation.StartsAt,
				"endsAt":       activation.EndsAt,
			},
		}); err != nil {
			return nil, err
		}

		effective := effectiveMultiplier(append(active, *activation))
		return &MutationOutcome{
			Body:         &BoosterActivationResult{Activation: activation, EffectiveMultiplier: effective.InexactFloat64()},
			ResourceType: "xp_booster_activation",
			ResourceID:   activation.ID,
		}, nil
	})
}

// EffectiveMultiplier is the sum of the active booster multipliers, 1 when none is active
func (s *RevenueService) EffectiveMultiplier(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	active, err := s.revenueRepo.ListActiveBoosters(ctx, userID, s.now())
	if err != nil {
		return decimal.Zero, err
	}
	return effectiveMultiplier(active), nil
}

// SeasonPassCoverage returns the coverage row for a year, nil when not covered
func (s *RevenueService) SeasonPassCoverage(ctx context.Context, userID uuid.UUID, year int) (*entity.SeasonPassCoverage, error) {
	if _, err := normalize.PositiveInt(int64(year), "coverageYear", minCoverageYear, maxCoverageYear); err != nil {
		return nil, err
	}
	return s.revenueRepo.GetSeasonPassCoverage(ctx, userID, year)
}

// RevenueStatus is a snapshot of everything a user holds across the revenue streams
type RevenueStatus struct {
	Entitlements []entity.Entitlement `json:"entitlements"`
	Booster      struct {
		ActiveCount         int                          `json:"active_count"`
		Active              []entity.XpBoosterActivation `json:"active"`
		EffectiveMultiplier float64                      `json:"effective_multiplier"`
	} `json:"booster"`
	Characters struct {
		UnlockedCount int                      `json:"unlocked_count"`
		Unlocks       []entity.CharacterUnlock `json:"unlocks"`
	} `json:"characters"`
	SeasonPass struct {
		CurrentYear int                        `json:"current_year"`
		Covered     bool                       `json:"covered"`
		Coverage    *entity.SeasonPassCoverage `json:"coverage"`
	} `json:"season_pass"`
	Founder struct {
		Owned     bool                     `json:"owned"`
		Ownership *entity.FounderOwnership `json:"ownership"`
	} `json:"founder"`
}

// Status collects the user's active entitlements, boosters, unlocks, coverage and founder state
func (s *RevenueService) Status(ctx context.Context, userID uuid.UUID) (*RevenueStatus, error) {
	now := s.now()
	status := &RevenueStatus{}

	entitlements, err := s.entitlements.ListByUser(ctx, userID, &repository.EntitlementFilterParams{
		Pagination: &pagination.PaginationParams{Page: 1, PerPage: 100},
		Status:     enum.EntitlementStatusActive,
	})
	if err != nil {
		return nil, err
	}
	status.Entitlements = entitlements.Items

	active, err := s.revenueRepo.ListActiveBoosters(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	if active == nil {
		active = []entity.XpBoosterActivation{}
	}
	status.Booster.Active = active
	status.Booster.ActiveCount = len(active)
	status.Booster.EffectiveMultiplier = effectiveMultiplier(active).InexactFloat64()

	unlocks, err := s.revenueRepo.ListCharacterUnlocks(ctx, userID)
	if err != nil {
		return nil, err
	}
	if unlocks == nil {
		unlocks = []entity.CharacterUnlock{}
	}
	status.Characters.Unlocks = unlocks
	status.Characters.UnlockedCount = len(unlocks)

	coverage, err := s.revenueRepo.GetSeasonPassCoverage(ctx, userID, now.Year())
	if err != nil {
		return nil, err
	}
	status.SeasonPass.CurrentYear = now.Year()
	status.SeasonPass.Covered = coverage != nil
	status.SeasonPass.Coverage = coverage

	founder, err := s.revenueRepo.GetFounderOwnership(ctx, userID)
	if err != nil {
		return nil, err
	}
	status.Founder.Owned = founder != nil
	status.Founder.Ownership = founder

	return status, nil
}

// ownedEntitlement loads an entitlement that must belong to userID and have the given type
func (s *RevenueService) ownedEntitlement(ctx context.Context, userID uuid.UUID, id, entitlementType, notFound string) (*entity.Entitlement, error) {
	e, err := s.entitlements.entitlementRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil || e.UserID != userID || e.EntitlementType != entitlementType {
		return nil, apperror.New(apperror.CodeEntitlementNotFound, notFound)
	}
	return e, nil
}

func checkUsable(e *entity.Entitlement, now time.Time) error {
	if !e.IsActiveAt(now) {
		return apperror.New(apperror.CodeEntitlementNotActive, "Entitlement is not active")
	}
	if e.Remaining() <= 0 {
		return apperror.New(apperror.CodeEntitlementAlreadyConsumed, "Entitlement already consumed")
	}
	return nil
}

func validMultiplier(m decimal.Decimal) (decimal.Decimal, error) {
	if m.LessThan(minMultiplier) || m.GreaterThan(maxMultiplier) {
		return decimal.Zero, apperror.New(apperror.CodeInvalidMultiplier, "multiplier must be between 1.0 and 5.0")
	}
	return m.Round(3), nil
}

func sumMultipliers(active []entity.XpBoosterActivation) decimal.Decimal {
	total := decimal.Zero
	for _, a := range active {
		total = total.Add(a.Multiplier)
	}
	return total
}

func effectiveMultiplier(active []entity.XpBoosterActivation) decimal.Decimal {
	total := sumMultipliers(active)
	if !total.IsPositive() {
		return decimal.NewFromInt(1)
	}
	return total.Round(3)
}

type skuMetadata struct {
	Multiplier      *decimal.Decimal `json:"multiplier"`
	DurationMinutes *int64           `json:"durationMinutes"`
	CharacterKeys   []string         `json:"characterKeys"`
}

type boosterMetadata struct {
	Multiplier      *decimal.Decimal `json:"multiplier"`
	DurationMinutes *int64           `json:"durationMinutes"`
}

type packMetadata struct {
	PackKey       string   `json:"packKey"`
	CharacterKeys []string `json:"characterKeys"`
}
