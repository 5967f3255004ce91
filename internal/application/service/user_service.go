package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/economy-api/internal/domain/entity"
	"github.com/sangkips/economy-api/internal/domain/repository"
	"github.com/sangkips/economy-api/pkg/apperror"
)

// UserService handles economy profiles
type UserService struct {
	userRepo repository.UserRepository
	currency *CurrencyLedger
	now      func() time.Time
}

// NewUserService creates a new user service
func NewUserService(userRepo repository.UserRepository, currency *CurrencyLedger, now func() time.Time) *UserService {
	if now == nil {
		now = utcNow
	}
	return &UserService{
		userRepo: userRepo,
		currency: currency,
		now:      now,
	}
}

// Provision creates the economy profile for an authenticated user on first contact.
// Existing profiles are returned untouched.
func (s *UserService) Provision(ctx context.Context, userID uuid.UUID, username string) (*entity.User, error) {
	if userID == uuid.Nil {
		return nil, apperror.ErrUnauthorized
	}
	username = strings.TrimSpace(username)
	if username == "" {
		username = userID.String()
	}

	now := s.now()
	if _, err := s.userRepo.CreateIfAbsent(ctx, &entity.User{
		ID:        userID,
		Username:  username,
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		return nil, err
	}
	return s.GetUser(ctx, userID)
}

// GetUser returns a user by ID
func (s *UserService) GetUser(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.New(apperror.CodeUserNotFound, "User not found")
	}
	return user, nil
}

// Balances returns the current holdings of a user
func (s *UserService) Balances(ctx context.Context, userID uuid.UUID) (entity.Balances, error) {
	return s.currency.Balances(ctx, userID)
}
