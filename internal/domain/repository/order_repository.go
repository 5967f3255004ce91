package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/economy-api/internal/domain/entity"
)

// OrderRepository defines the interface for order data operations
type OrderRepository interface {
	// Create stores the order together with its items
	Create(ctx context.Context, order *entity.Order) error
	GetByID(ctx context.Context, id string) (*entity.Order, error)
	// CountByStreamSince counts a user's orders on a stream created at or after since
	CountByStreamSince(ctx context.Context, userID uuid.UUID, stream string, since time.Time) (int64, error)
}

// SkuRepository defines the interface for catalogue reads
type SkuRepository interface {
	Create(ctx context.Context, sku *entity.Sku) error
	GetByKey(ctx context.Context, skuKey string) (*entity.Sku, error)
	ListActive(ctx context.Context, stream string) ([]entity.Sku, error)
}
