package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/economy-api/internal/domain/entity"
	"github.com/sangkips/economy-api/internal/domain/repository"
	"github.com/sangkips/economy-api/pkg/apperror"
	"github.com/sangkips/economy-api/pkg/normalize"
	"github.com/sangkips/economy-api/pkg/utils"
)

// BonusReward is the payout of one first-time bonus type
type BonusReward struct {
	Souls       int64  `json:"souls"`
	BloodGems   int64  `json:"blood_gems"`
	HorrorCoins int64  `json:"horror_coins"`
	Description string `json:"description"`
	PerGame     bool   `json:"per_game"`
}

func (r BonusReward) delta() Delta {
	return Delta{HorrorCoins: r.HorrorCoins, Souls: r.Souls, BloodGems: r.BloodGems}
}

// FirstTimeBonuses lists every claimable bonus type
var FirstTimeBonuses = map[string]BonusReward{
	"first_game_played":      {Souls: 500, Description: "First game played!"},
	"first_win_per_game":     {Souls: 1000, BloodGems: 10, Description: "First win in {gameName}!", PerGame: true},
	"first_referral":         {BloodGems: 500, Description: "First friend referred!"},
	"first_marketplace_sale": {BloodGems: 100, Description: "First marketplace sale!"},
	"first_purchase":         {BloodGems: 50, Description: "First store purchase!"},
	"first_achievement":      {Souls: 250, BloodGems: 5, Description: "First achievement unlocked!"},
	"first_perfect_run":      {Souls: 2000, BloodGems: 25, Description: "First perfect run (no deaths)!"},
	"first_boss_kill":        {Souls: 750, BloodGems: 15, Description: "First boss defeated!"},
	"first_daily_challenge":  {Souls: 300, HorrorCoins: 25, Description: "First daily challenge completed!"},
	"first_prestige":         {BloodGems: 100, Description: "First prestige achieved!"},
}

// BonusService pays one-off first-time rewards
type BonusService struct {
	coordinator *MutationCoordinator
	currency    *CurrencyLedger
	audit       *AuditLogger
	bonusRepo   repository.BonusRepository
	now         func() time.Time
}

// NewBonusService creates a new bonus service
func NewBonusService(
	coordinator *MutationCoordinator,
	currency *CurrencyLedger,
	audit *AuditLogger,
	bonusRepo repository.BonusRepository,
	now func() time.Time,
) *BonusService {
	if now == nil {
		now = utcNow
	}
	return &BonusService{
		coordinator: coordinator,
		currency:    currency,
		audit:       audit,
		bonusRepo:   bonusRepo,
		now:         now,
	}
}

// ClaimBonusResult is the stored response of a bonus claim
type ClaimBonusResult struct {
	BonusID     string          `json:"bonus_id"`
	BonusType   string          `json:"bonus_type"`
	GameID      string          `json:"game_id,omitempty"`
	Rewards     BonusReward     `json:"rewards"`
	NewBalances entity.Balances `json:"new_balances"`
	Description string          `json:"description"`
}

// Claim credits a first-time bonus once per user, bonus type and (for per-game bonuses) game
func (s *BonusService) Claim(ctx context.Context, mc MutationContext, bonusType, gameID string) (*MutationResult, error) {
	bonusType = normalize.Lower(bonusType)
	reward, ok := FirstTimeBonuses[bonusType]
	if !ok {
		return nil, apperror.Newf(apperror.CodeInvalidBonusType, "unknown bonus type %q", bonusType)
	}
	gameID = strings.TrimSpace(gameID)
	if reward.PerGame {
		var err error
		if gameID, err = normalize.RequiredString(gameID, "gameId", normalize.MaxIDLength); err != nil {
			return nil, err
		}
	} else {
		gameID = ""
	}

	payload := map[string]any{"userId": mc.UserID, "bonusType": bonusType, "gameId": gameID}
	req := mc.request("first_time_bonus.claim", "first_time_bonus", "first_time_bonus_claimed", payload)

	return s.coordinator.Execute(ctx, req, func(ctx context.Context) (*MutationOutcome, error) {
		metadata, _ := normalize.Metadata(map[string]any{"description": reward.Description})
		bonus := &entity.FirstTimeBonus{
			ID:             utils.NewID("ftb"),
			UserID:         mc.UserID,
			BonusType:      bonusType,
			GameKey:        gameID,
			HorrorCoins:    reward.HorrorCoins,
			Souls:          reward.Souls,
			BloodGems:      reward.BloodGems,
			IdempotencyKey: optional(mc.IdempotencyKey, normalize.MaxIdempotencyKeyLength),
			Metadata:       metadata,
			CreatedAt:      s.now(),
		}
		inserted, err := s.bonusRepo.CreateFirstTimeBonus(ctx, bonus)
		if err != nil {
			return nil, err
		}
		if !inserted {
			return nil, apperror.New(apperror.CodeBonusAlreadyClaimed, "Bonus already claimed")
		}

		balances, err := s.currency.CreditOrDebit(ctx, mc.UserID, reward.delta())
		if err != nil {
			return nil, err
		}

		userID := mc.UserID
		if _, err := s.audit.Append(ctx, AuditEntry{
			ActorUserID:    &userID,
			TargetUserID:   &userID,
			EntityType:     "currency",
			EntityID:       userID.String(),
			EventType:      "currency.credit",
			RequestID:      mc.RequestID,
			IdempotencyKey: mc.IdempotencyKey,
			Metadata: map[string]any{
				"reason":    "first_time_bonus",
				"bonusType": bonusType,
				"gameId":    gameID,
				"amounts":   reward.delta(),
			},
		}); err != nil {
			return nil, err
		}

		return &MutationOutcome{
			Body: &ClaimBonusResult{
				BonusID:     bonus.ID,
				BonusType:   bonusType,
				GameID:      gameID,
				Rewards:     reward,
				NewBalances: balances,
				Description: reward.Description,
			},
			ResourceType: "first_time_bonus",
			ResourceID:   bonus.ID,
		}, nil
	})
}

// BonusStatus lists claimed bonuses and the types still open
type BonusStatus struct {
	Claimed   []entity.FirstTimeBonus `json:"claimed"`
	Available []string                `json:"available"`
}

// Status reports which bonuses a user already claimed. Per-game bonuses stay available.
func (s *BonusService) Status(ctx context.Context, userID uuid.UUID) (*BonusStatus, error) {
	claimed, err := s.bonusRepo.ListFirstTimeBonuses(ctx, userID)
	if err != nil {
		return nil, err
	}
	if claimed == nil {
		claimed = []entity.FirstTimeBonus{}
	}

	taken := make(map[string]bool, len(claimed))
	for _, b := range claimed {
		taken[b.BonusType] = true
	}
	available := make([]string, 0, len(FirstTimeBonuses))
	for bonusType, reward := range FirstTimeBonuses {
		if reward.PerGame || !taken[bonusType] {
			available = append(available, bonusType)
		}
	}
	sort.Strings(available)

	return &BonusStatus{Claimed: claimed, Available: available}, nil
}
