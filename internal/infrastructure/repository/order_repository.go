package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/economy-api/internal/domain/entity"
	domainRepo "github.com/sangkips/economy-api/internal/domain/repository"
	"gorm.io/gorm"
)

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *gorm.DB) domainRepo.OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *entity.Order) error {
	return conn(ctx, r.db).Create(order).Error
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	var order entity.Order
	err := conn(ctx, r.db).
		Preload("Items").
		First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &order, err
}

func (r *orderRepository) CountByStreamSince(ctx context.Context, userID uuid.UUID, stream string, since time.Time) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&entity.Order{}).
		Where("user_id = ? AND stream = ? AND created_at >= ?", userID, stream, since).
		Count(&count).Error
	return count, err
}

type skuRepository struct {
	db *gorm.DB
}

// NewSkuRepository creates a new SKU repository
func NewSkuRepository(db *gorm.DB) domainRepo.SkuRepository {
	return &skuRepository{db: db}
}

func (r *skuRepository) Create(ctx context.Context, sku *entity.Sku) error {
	return conn(ctx, r.db).Create(sku).Error
}

func (r *skuRepository) GetByKey(ctx context.Context, skuKey string) (*entity.Sku, error) {
	var sku entity.Sku
	err := conn(ctx, r.db).First(&sku, "sku_key = ? AND is_active = ?", skuKey, true).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &sku, err
}

func (r *skuRepository) ListActive(ctx context.Context, stream string) ([]entity.Sku, error) {
	var skus []entity.Sku
	query := conn(ctx, r.db).Where("is_active = ?", true)
	if stream != "" {
		query = query.Where("stream = ?", stream)
	}
	err := query.Order("stream ASC").Order("unit_amount ASC").Find(&skus).Error
	return skus, err
}
