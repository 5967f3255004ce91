package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/economy-api/internal/domain/entity"
	"github.com/sangkips/economy-api/internal/domain/enum"
	"github.com/sangkips/economy-api/pkg/pagination"
)

// EntitlementFilterParams contains filtering parameters for entitlement queries
type EntitlementFilterParams struct {
	Pagination      *pagination.PaginationParams
	Status          enum.EntitlementStatus
	EntitlementType string
}

// EntitlementRepository defines the interface for entitlement data operations
type EntitlementRepository interface {
	Create(ctx context.Context, entitlement *entity.Entitlement) error
	GetByID(ctx context.Context, id string) (*entity.Entitlement, error)
	// GetActiveByType returns the oldest usable entitlement of the given type
	GetActiveByType(ctx context.Context, userID uuid.UUID, entitlementType string, now time.Time) (*entity.Entitlement, error)
	// ConsumeQuantity atomically consumes quantity units with a conditional UPDATE.
	// Returns (nil, nil) when the entitlement is missing, inactive, expired or short.
	ConsumeQuantity(ctx context.Context, id string, quantity int64, now time.Time) (*entity.Entitlement, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params *EntitlementFilterParams) ([]entity.Entitlement, int64, error)
	CreateConsumption(ctx context.Context, consumption *entity.EntitlementConsumption) error
}
