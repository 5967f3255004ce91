package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/economy-api/internal/config"
	"github.com/sangkips/economy-api/internal/domain/entity"
	"github.com/sangkips/economy-api/internal/domain/enum"
	"github.com/sangkips/economy-api/internal/domain/repository"
	"github.com/sangkips/economy-api/pkg/apperror"
	"github.com/sangkips/economy-api/pkg/normalize"
	"github.com/sangkips/economy-api/pkg/utils"
)

// ReferralService pays referrers once per referred user
type ReferralService struct {
	coordinator *MutationCoordinator
	currency    *CurrencyLedger
	bonusRepo   repository.BonusRepository
	userRepo    repository.UserRepository
	cfg         config.EconomyConfig
	now         func() time.Time
}

// NewReferralService creates a new referral service
func NewReferralService(
	coordinator *MutationCoordinator,
	currency *CurrencyLedger,
	bonusRepo repository.BonusRepository,
	userRepo repository.UserRepository,
	cfg config.EconomyConfig,
	now func() time.Time,
) *ReferralService {
	if now == nil {
		now = utcNow
	}
	if cfg.ReferralRewardCoins <= 0 {
		cfg.ReferralRewardCoins = 100
	}
	return &ReferralService{
		coordinator: coordinator,
		currency:    currency,
		bonusRepo:   bonusRepo,
		userRepo:    userRepo,
		cfg:         cfg,
		now:         now,
	}
}

// ReferralBonusResult is the stored response of a referral payout
type ReferralBonusResult struct {
	BonusID        string          `json:"bonus_id"`
	ReferredUserID uuid.UUID       `json:"referred_user_id"`
	Currency       string          `json:"currency"`
	Amount         int64           `json:"amount"`
	NewBalances    entity.Balances `json:"new_balances"`
}

// AwardBonus credits the referrer in mc for bringing in referredUserID
func (s *ReferralService) AwardBonus(ctx context.Context, mc MutationContext, referredUserID uuid.UUID) (*MutationResult, error) {
	if referredUserID == uuid.Nil || referredUserID == mc.UserID {
		return nil, apperror.New(apperror.CodeInvalidReferral, "referredUserId must be another user")
	}

	payload := map[string]any{"referrerId": mc.UserID, "referredUserId": referredUserID}
	req := mc.request("referral.bonus", "referral_bonus", "referral.bonus", payload)

	return s.coordinator.Execute(ctx, req, func(ctx context.Context) (*MutationOutcome, error) {
		now := s.now()

		exists, err := s.userRepo.Exists(ctx, referredUserID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, apperror.New(apperror.CodeUserNotFound, "Referred user not found")
		}

		if s.cfg.ReferralDailyCap > 0 {
			count, err := s.bonusRepo.CountReferralBonusesSince(ctx, mc.UserID, now.Add(-24*time.Hour))
			if err != nil {
				return nil, err
			}
			if count >= s.cfg.ReferralDailyCap {
				return nil, apperror.New(apperror.CodeReferralDailyCapReached, "Daily referral bonus cap reached")
			}
		}

		bonus := &entity.ReferralBonus{
			ID:             utils.NewID("ref_bonus"),
			ReferrerID:     mc.UserID,
			ReferredUserID: referredUserID,
			Currency:       enum.CurrencyHorrorCoins.String(),
			Amount:         s.cfg.ReferralRewardCoins,
			IdempotencyKey: optional(mc.IdempotencyKey, normalize.MaxIdempotencyKeyLength),
			CreatedAt:      now,
		}
		inserted, err := s.bonusRepo.CreateReferralBonus(ctx, bonus)
		if err != nil {
			return nil, err
		}
		if !inserted {
			return nil, apperror.New(apperror.CodeReferralAlreadyRewarded, "Referral already rewarded")
		}

		balances, err := s.currency.CreditOrDebit(ctx, mc.UserID, DeltaFor(enum.CurrencyHorrorCoins, bonus.Amount))
		if err != nil {
			return nil, err
		}

		return &MutationOutcome{
			Body: &ReferralBonusResult{
				BonusID:        bonus.ID,
				ReferredUserID: referredUserID,
				Currency:       bonus.Currency,
				Amount:         bonus.Amount,
				NewBalances:    balances,
			},
			ResourceType: "referral_bonus",
			ResourceID:   bonus.ID,
		}, nil
	})
}
