package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/economy-api/internal/domain/entity"
	"github.com/sangkips/economy-api/pkg/pagination"
)

// AuditFilterParams contains filtering parameters for audit queries
type AuditFilterParams struct {
	Pagination     *pagination.PaginationParams
	ActorUserID    *uuid.UUID
	TargetUserID   *uuid.UUID
	EventType      string
	IdempotencyKey string
}

// AuditRepository is append-only: there is no update or delete
type AuditRepository interface {
	Create(ctx context.Context, event *entity.AuditEvent) error
	List(ctx context.Context, params *AuditFilterParams) ([]entity.AuditEvent, int64, error)
}
