package repository

import (
	"context"

	"github.com/sangkips/economy-api/internal/domain/entity"
	domainRepo "github.com/sangkips/economy-api/internal/domain/repository"
	"gorm.io/gorm"
)

type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates a new audit log repository
func NewAuditRepository(db *gorm.DB) domainRepo.AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(ctx context.Context, event *entity.AuditEvent) error {
	return conn(ctx, r.db).Create(event).Error
}

func (r *auditRepository) List(ctx context.Context, params *domainRepo.AuditFilterParams) ([]entity.AuditEvent, int64, error) {
	var events []entity.AuditEvent
	var total int64
	if params == nil {
		params = &domainRepo.AuditFilterParams{}
	}

	query := conn(ctx, r.db).Model(&entity.AuditEvent{})
	if params.ActorUserID != nil {
		query = query.Where("actor_user_id = ?", *params.ActorUserID)
	}
	if params.TargetUserID != nil {
		query = query.Where("target_user_id = ?", *params.TargetUserID)
	}
	if params.EventType != "" {
		query = query.Where("event_type = ?", params.EventType)
	}
	if params.IdempotencyKey != "" {
		query = query.Where("idempotency_key = ?", params.IdempotencyKey)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Scopes(Paginate(params.Pagination)).
		Order("created_at DESC").Order("id DESC").
		Find(&events).Error
	return events, total, err
}
