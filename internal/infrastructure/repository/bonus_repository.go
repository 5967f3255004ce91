package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/economy-api/internal/domain/entity"
	domainRepo "github.com/sangkips/economy-api/internal/domain/repository"
	"gorm.io/gorm"
)

type bonusRepository struct {
	db *gorm.DB
}

// NewBonusRepository creates a new bonus repository
func NewBonusRepository(db *gorm.DB) domainRepo.BonusRepository {
	return &bonusRepository{db: db}
}

func (r *bonusRepository) CreateFirstTimeBonus(ctx context.Context, bonus *entity.FirstTimeBonus) (bool, error) {
	return insertIgnore(conn(ctx, r.db), bonus, "user_id", "bonus_type", "game_key")
}

func (r *bonusRepository) ListFirstTimeBonuses(ctx context.Context, userID uuid.UUID) ([]entity.FirstTimeBonus, error) {
	var bonuses []entity.FirstTimeBonus
	err := conn(ctx, r.db).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&bonuses).Error
	return bonuses, err
}

func (r *bonusRepository) CreateReferralBonus(ctx context.Context, bonus *entity.ReferralBonus) (bool, error) {
	return insertIgnore(conn(ctx, r.db), bonus, "referrer_id", "referred_user_id")
}

func (r *bonusRepository) CountReferralBonusesSince(ctx context.Context, referrerID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&entity.ReferralBonus{}).
		Where("referrer_id = ? AND created_at >= ?", referrerID, since).
		Count(&count).Error
	return count, err
}

type transferRepository struct {
	db *gorm.DB
}

// NewTransferRepository creates a new currency transfer repository
func NewTransferRepository(db *gorm.DB) domainRepo.TransferRepository {
	return &transferRepository{db: db}
}

func (r *transferRepository) Create(ctx context.Context, transfer *entity.CurrencyTransfer) error {
	return conn(ctx, r.db).Create(transfer).Error
}

func (r *transferRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]entity.CurrencyTransfer, error) {
	var transfers []entity.CurrencyTransfer
	err := conn(ctx, r.db).
		Where("sender_id = ? OR recipient_id = ?", userID, userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&transfers).Error
	return transfers, err
}
