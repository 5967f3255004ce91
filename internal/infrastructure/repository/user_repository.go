package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/economy-api/internal/domain/entity"
	domainRepo "github.com/sangkips/economy-api/internal/domain/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) domainRepo.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) CreateIfAbsent(ctx context.Context, user *entity.User) (bool, error) {
	result := conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(user)
	return result.RowsAffected > 0, result.Error
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var user entity.User
	err := conn(ctx, r.db).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &user, err
}

func (r *userRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var user entity.User
	err := conn(ctx, r.db).Scopes(ForUpdate).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &user, err
}

func (r *userRepository) GetManyForUpdate(ctx context.Context, ids []uuid.UUID) ([]entity.User, error) {
	if len(ids) == 0 {
		return []entity.User{}, nil
	}
	var users []entity.User
	err := conn(ctx, r.db).Scopes(ForUpdate).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&users).Error
	return users, err
}

func (r *userRepository) UpdateBalances(ctx context.Context, id uuid.UUID, balances entity.Balances, now time.Time) error {
	return conn(ctx, r.db).Model(&entity.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"horror_coins": balances.HorrorCoins,
			"souls":        balances.Souls,
			"blood_gems":   balances.BloodGems,
			"updated_at":   now,
		}).Error
}

func (r *userRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&entity.User{}).Where("id = ?", id).Limit(1).Count(&count).Error
	return count > 0, err
}
