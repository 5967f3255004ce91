package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/economy-api/internal/domain/entity"
)

// RevenueRepository stores the per-stream side effects of purchases and redemptions.
// The Create* methods that return a bool are insert-if-absent on their unique key.
type RevenueRepository interface {
	HasTournamentEntry(ctx context.Context, userID uuid.UUID, tournamentID string) (bool, error)
	CreateTournamentEntry(ctx context.Context, entry *entity.TournamentTicketConsumption) (bool, error)

	CreateBoosterActivation(ctx context.Context, activation *entity.XpBoosterActivation) error
	ListActiveBoosters(ctx context.Context, userID uuid.UUID, now time.Time) ([]entity.XpBoosterActivation, error)

	CreateCharacterUnlock(ctx context.Context, unlock *entity.CharacterUnlock) (bool, error)
	ListCharacterUnlocks(ctx context.Context, userID uuid.UUID) ([]entity.CharacterUnlock, error)

	UpsertSeasonPassCoverage(ctx context.Context, coverage *entity.SeasonPassCoverage) error
	GetSeasonPassCoverage(ctx context.Context, userID uuid.UUID, year int) (*entity.SeasonPassCoverage, error)

	GetFounderOwnership(ctx context.Context, userID uuid.UUID) (*entity.FounderOwnership, error)
	CreateFounderOwnership(ctx context.Context, ownership *entity.FounderOwnership) (bool, error)
	CreateFounderTransferEvent(ctx context.Context, event *entity.FounderTransferEvent) error
}
