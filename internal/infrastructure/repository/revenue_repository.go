package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/economy-api/internal/domain/entity"
	domainRepo "github.com/sangkips/economy-api/internal/domain/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type revenueRepository struct {
	db *gorm.DB
}

// NewRevenueRepository creates a new revenue stream repository
func NewRevenueRepository(db *gorm.DB) domainRepo.RevenueRepository {
	return &revenueRepository{db: db}
}

// insertIgnore inserts value unless it collides with columns, reporting whether a row was written
func insertIgnore(db *gorm.DB, value interface{}, columns ...string) (bool, error) {
	cols := make([]clause.Column, len(columns))
	for i, c := range columns {
		cols[i] = clause.Column{Name: c}
	}
	result := db.Clauses(clause.OnConflict{Columns: cols, DoNothing: true}).Create(value)
	return result.RowsAffected > 0, result.Error
}

func (r *revenueRepository) HasTournamentEntry(ctx context.Context, userID uuid.UUID, tournamentID string) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&entity.TournamentTicketConsumption{}).
		Where("user_id = ? AND tournament_id = ?", userID, tournamentID).
		Count(&count).Error
	return count > 0, err
}

func (r *revenueRepository) CreateTournamentEntry(ctx context.Context, entry *entity.TournamentTicketConsumption) (bool, error) {
	return insertIgnore(conn(ctx, r.db), entry, "user_id", "tournament_id")
}

func (r *revenueRepository) CreateBoosterActivation(ctx context.Context, activation *entity.XpBoosterActivation) error {
	return conn(ctx, r.db).Create(activation).Error
}

func (r *revenueRepository) ListActiveBoosters(ctx context.Context, userID uuid.UUID, now time.Time) ([]entity.XpBoosterActivation, error) {
	var activations []entity.XpBoosterActivation
	err := conn(ctx, r.db).
		Where("user_id = ? AND starts_at <= ? AND ends_at > ?", userID, now, now).
		Order("ends_at ASC").
		Find(&activations).Error
	return activations, err
}

func (r *revenueRepository) CreateCharacterUnlock(ctx context.Context, unlock *entity.CharacterUnlock) (bool, error) {
	return insertIgnore(conn(ctx, r.db), unlock, "user_id", "character_key")
}

func (r *revenueRepository) ListCharacterUnlocks(ctx context.Context, userID uuid.UUID) ([]entity.CharacterUnlock, error) {
	var unlocks []entity.CharacterUnlock
	err := conn(ctx, r.db).
		Where("user_id = ?", userID).
		Order("created_at ASC").Order("character_key ASC").
		Find(&unlocks).Error
	return unlocks, err
}

func (r *revenueRepository) UpsertSeasonPassCoverage(ctx context.Context, coverage *entity.SeasonPassCoverage) error {
	return conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "coverage_year"}},
		DoUpdates: clause.AssignmentColumns([]string{"entitlement_id", "status", "metadata", "updated_at"}),
	}).Create(coverage).Error
}

func (r *revenueRepository) GetSeasonPassCoverage(ctx context.Context, userID uuid.UUID, year int) (*entity.SeasonPassCoverage, error) {
	var coverage entity.SeasonPassCoverage
	err := conn(ctx, r.db).
		Where("user_id = ? AND coverage_year = ? AND status = ?", userID, year, "active").
		First(&coverage).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &coverage, err
}

func (r *revenueRepository) GetFounderOwnership(ctx context.Context, userID uuid.UUID) (*entity.FounderOwnership, error) {
	var ownership entity.FounderOwnership
	err := conn(ctx, r.db).First(&ownership, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &ownership, err
}

func (r *revenueRepository) CreateFounderOwnership(ctx context.Context, ownership *entity.FounderOwnership) (bool, error) {
	return insertIgnore(conn(ctx, r.db), ownership, "user_id")
}

func (r *revenueRepository) CreateFounderTransferEvent(ctx context.Context, event *entity.FounderTransferEvent) error {
	return conn(ctx, r.db).Create(event).Error
}
