package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sangkips/economy-api/internal/domain/entity"
	"github.com/sangkips/economy-api/internal/domain/enum"
	domainRepo "github.com/sangkips/economy-api/internal/domain/repository"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type idempotencyRepository struct {
	db *gorm.DB
}

// NewIdempotencyRepository creates a new idempotency repository
func NewIdempotencyRepository(db *gorm.DB) domainRepo.IdempotencyRepository {
	return &idempotencyRepository{db: db}
}

func (r *idempotencyRepository) CreateOrGet(ctx context.Context, record *entity.IdempotencyRecord) (*entity.IdempotencyRecord, bool, error) {
	db := conn(ctx, r.db)

	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "scope"}, {Name: "idempotency_key"}},
		DoNothing: true,
	}).Create(record)
	if result.Error != nil {
		return nil, false, result.Error
	}
	if result.RowsAffected > 0 {
		return record, true, nil
	}

	// Lost the race for the slot: only last_seen_at may change on the winner's row
	err := db.Model(&entity.IdempotencyRecord{}).
		Where("scope = ? AND idempotency_key = ?", record.Scope, record.IdempotencyKey).
		UpdateColumn("last_seen_at", record.LastSeenAt).Error
	if err != nil {
		return nil, false, err
	}

	existing, err := r.GetByKey(ctx, record.Scope, record.IdempotencyKey)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, fmt.Errorf("idempotency record %s/%s disappeared after conflict", record.Scope, record.IdempotencyKey)
	}
	return existing, false, nil
}

func (r *idempotencyRepository) GetByKey(ctx context.Context, scope, key string) (*entity.IdempotencyRecord, error) {
	var record entity.IdempotencyRecord
	err := conn(ctx, r.db).
		Where("scope = ? AND idempotency_key = ?", scope, key).
		First(&record).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &record, err
}

func (r *idempotencyRepository) TakeOver(ctx context.Context, scope, key string, observedAttempt int, now, lockedUntil time.Time) (*entity.IdempotencyRecord, bool, error) {
	result := conn(ctx, r.db).Model(&entity.IdempotencyRecord{}).
		Where("scope = ? AND idempotency_key = ? AND attempt_count = ?", scope, key, observedAttempt).
		Where("(status = ? OR (status = ? AND (locked_until IS NULL OR locked_until <= ?)))",
			enum.IdempotencyStatusFailed, enum.IdempotencyStatusInProgress, now).
		Updates(map[string]interface{}{
			"status":        enum.IdempotencyStatusInProgress,
			"locked_until":  lockedUntil,
			"attempt_count": gorm.Expr("attempt_count + 1"),
			"updated_at":    now,
			"last_seen_at":  now,
		})
	if result.Error != nil {
		return nil, false, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, false, nil
	}

	record, err := r.GetByKey(ctx, scope, key)
	if err != nil || record == nil {
		return nil, false, err
	}
	return record, true, nil
}

func (r *idempotencyRepository) Finalize(ctx context.Context, params domainRepo.FinalizeParams) (bool, error) {
	updates := map[string]interface{}{
		"status":        params.Status,
		"response_code": params.ResponseCode,
		"response_body": datatypes.JSON(params.ResponseBody),
		"locked_until":  nil,
		"updated_at":    params.Now,
		"last_seen_at":  params.Now,
	}
	if params.ResourceType != "" {
		updates["resource_type"] = params.ResourceType
	}
	if params.ResourceID != "" {
		updates["resource_id"] = params.ResourceID
	}

	result := conn(ctx, r.db).Model(&entity.IdempotencyRecord{}).
		Where("scope = ? AND idempotency_key = ? AND attempt_count = ? AND status = ?",
			params.Scope, params.Key, params.Attempt, enum.IdempotencyStatusInProgress).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DeleteExpired removes rows past expires_at. In-progress rows additionally need an
// elapsed lock so a long-running attempt is never purged from under its owner.
func (r *idempotencyRepository) DeleteExpired(ctx context.Context, now time.Time, batch int) (int64, error) {
	db := conn(ctx, r.db)
	expired := db.Model(&entity.IdempotencyRecord{}).
		Select("id").
		Where("expires_at < ?", now).
		Where("(status <> ? OR locked_until IS NULL OR locked_until < ?)", enum.IdempotencyStatusInProgress, now).
		Limit(batch)

	result := db.Where("id IN (?)", expired).Delete(&entity.IdempotencyRecord{})
	return result.RowsAffected, result.Error
}

func (r *idempotencyRepository) Transactional() bool {
	return true
}
