package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/economy-api/internal/domain/entity"
	"github.com/sangkips/economy-api/internal/domain/enum"
	domainRepo "github.com/sangkips/economy-api/internal/domain/repository"
	"gorm.io/gorm"
)

type entitlementRepository struct {
	db *gorm.DB
}

// NewEntitlementRepository creates a new entitlement repository
func NewEntitlementRepository(db *gorm.DB) domainRepo.EntitlementRepository {
	return &entitlementRepository{db: db}
}

func (r *entitlementRepository) Create(ctx context.Context, entitlement *entity.Entitlement) error {
	return conn(ctx, r.db).Create(entitlement).Error
}

func (r *entitlementRepository) GetByID(ctx context.Context, id string) (*entity.Entitlement, error) {
	var entitlement entity.Entitlement
	err := conn(ctx, r.db).First(&entitlement, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &entitlement, err
}

func (r *entitlementRepository) GetActiveByType(ctx context.Context, userID uuid.UUID, entitlementType string, now time.Time) (*entity.Entitlement, error) {
	var entitlement entity.Entitlement
	err := conn(ctx, r.db).
		Scopes(UsableEntitlements(now)).
		Where("user_id = ? AND entitlement_type = ?", userID, entitlementType).
		Order("created_at ASC").Order("id ASC").
		First(&entitlement).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &entitlement, err
}

// ConsumeQuantity atomically consumes units only if the entitlement is still usable.
// Uses: UPDATE entitlements SET consumed_quantity = consumed_quantity + n
// WHERE id = ? AND status = 'active' AND (expires_at IS NULL OR expires_at > now) AND quantity - consumed_quantity >= n
func (r *entitlementRepository) ConsumeQuantity(ctx context.Context, id string, quantity int64, now time.Time) (*entity.Entitlement, error) {
	result := conn(ctx, r.db).Model(&entity.Entitlement{}).
		Where("id = ? AND status = ?", id, enum.EntitlementStatusActive).
		Where("(expires_at IS NULL OR expires_at > ?)", now).
		Where("quantity - consumed_quantity >= ?", quantity).
		Updates(map[string]interface{}{
			"consumed_quantity": gorm.Expr("consumed_quantity + ?", quantity),
			"updated_at":        now,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return r.GetByID(ctx, id)
}

func (r *entitlementRepository) ListByUser(ctx context.Context, userID uuid.UUID, params *domainRepo.EntitlementFilterParams) ([]entity.Entitlement, int64, error) {
	var entitlements []entity.Entitlement
	var total int64
	if params == nil {
		params = &domainRepo.EntitlementFilterParams{}
	}

	query := conn(ctx, r.db).Model(&entity.Entitlement{}).Where("user_id = ?", userID)
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.EntitlementType != "" {
		query = query.Where("entitlement_type = ?", params.EntitlementType)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Scopes(Paginate(params.Pagination)).
		Order("created_at ASC").Order("id ASC").
		Find(&entitlements).Error
	return entitlements, total, err
}

func (r *entitlementRepository) CreateConsumption(ctx context.Context, consumption *entity.EntitlementConsumption) error {
	return conn(ctx, r.db).Create(consumption).Error
}
