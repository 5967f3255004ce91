package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/economy-api/internal/domain/entity"
)

// UserRepository defines the interface for economy profile operations
type UserRepository interface {
	// CreateIfAbsent inserts user unless the id exists and reports whether it did
	CreateIfAbsent(ctx context.Context, user *entity.User) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	// GetForUpdate reads the row under SELECT ... FOR UPDATE
	GetForUpdate(ctx context.Context, id uuid.UUID) (*entity.User, error)
	// GetManyForUpdate locks the rows in ascending id order
	GetManyForUpdate(ctx context.Context, ids []uuid.UUID) ([]entity.User, error)
	UpdateBalances(ctx context.Context, id uuid.UUID, balances entity.Balances, now time.Time) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}
