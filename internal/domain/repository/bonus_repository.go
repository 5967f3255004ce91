package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/economy-api/internal/domain/entity"
)

// BonusRepository defines the interface for one-off reward records
type BonusRepository interface {
	// CreateFirstTimeBonus inserts unless (user, bonus type, game) was already claimed
	CreateFirstTimeBonus(ctx context.Context, bonus *entity.FirstTimeBonus) (bool, error)
	ListFirstTimeBonuses(ctx context.Context, userID uuid.UUID) ([]entity.FirstTimeBonus, error)

	// CreateReferralBonus inserts unless the (referrer, referred) pair was already paid
	CreateReferralBonus(ctx context.Context, bonus *entity.ReferralBonus) (bool, error)
	CountReferralBonusesSince(ctx context.Context, referrerID uuid.UUID, since time.Time) (int64, error)
}

// TransferRepository records currency gifts
type TransferRepository interface {
	Create(ctx context.Context, transfer *entity.CurrencyTransfer) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]entity.CurrencyTransfer, error)
}
