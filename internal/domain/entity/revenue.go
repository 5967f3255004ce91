package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// TournamentTicketConsumption is the single entry a user may hold for a tournament
type TournamentTicketConsumption struct {
	ID             string         `gorm:"size:120;primaryKey" json:"id"`
	UserID         uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:ux_ticket_user_tournament,priority:1" json:"user_id"`
	TournamentID   string         `gorm:"size:120;not null;uniqueIndex:ux_ticket_user_tournament,priority:2" json:"tournament_id"`
	EntitlementID  string         `gorm:"size:120;not null" json:"entitlement_id"`
	IdempotencyKey *string        `gorm:"size:255" json:"idempotency_key,omitempty"`
	Metadata       datatypes.JSON `json:"metadata"`
	ConsumedAt     time.Time      `json:"consumed_at"`
	CreatedAt      time.Time      `json:"created_at"`
}

// TableName returns the table name for TournamentTicketConsumption
func (TournamentTicketConsumption) TableName() string {
	return "tournament_ticket_consumptions"
}

// XpBoosterActivation is a window during which a booster multiplies earned XP
type XpBoosterActivation struct {
	ID             string          `gorm:"size:120;primaryKey" json:"id"`
	UserID         uuid.UUID       `gorm:"type:uuid;not null;index:idx_xp_boost_user_window,priority:1" json:"user_id"`
	EntitlementID  string          `gorm:"size:120;not null" json:"entitlement_id"`
	Multiplier     decimal.Decimal `gorm:"type:numeric(6,3);not null" json:"multiplier"`
	StartsAt       time.Time       `gorm:"not null" json:"starts_at"`
	EndsAt         time.Time       `gorm:"not null;index:idx_xp_boost_user_window,priority:2" json:"ends_at"`
	IdempotencyKey *string         `gorm:"size:255" json:"idempotency_key,omitempty"`
	Metadata       datatypes.JSON  `json:"metadata"`
	CreatedAt      time.Time       `json:"created_at"`
}

// TableName returns the table name for XpBoosterActivation
func (XpBoosterActivation) TableName() string {
	return "xp_booster_activations"
}

// CharacterUnlock grants a character to a user permanently
type CharacterUnlock struct {
	ID                  string         `gorm:"size:120;primaryKey" json:"id"`
	UserID              uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:ux_character_unlock,priority:1" json:"user_id"`
	CharacterKey        string         `gorm:"size:120;not null;uniqueIndex:ux_character_unlock,priority:2" json:"character_key"`
	SourceEntitlementID *string        `gorm:"size:120" json:"source_entitlement_id,omitempty"`
	SourcePackKey       *string        `gorm:"size:120" json:"source_pack_key,omitempty"`
	Metadata            datatypes.JSON `json:"metadata"`
	CreatedAt           time.Time      `json:"created_at"`
}

// TableName returns the table name for CharacterUnlock
func (CharacterUnlock) TableName() string {
	return "character_unlocks"
}

// SeasonPassCoverage marks a calendar year as covered by an annual season pass
type SeasonPassCoverage struct {
	ID            string         `gorm:"size:120;primaryKey" json:"id"`
	UserID        uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:ux_season_pass_year,priority:1" json:"user_id"`
	CoverageYear  int            `gorm:"not null;uniqueIndex:ux_season_pass_year,priority:2" json:"coverage_year"`
	EntitlementID string         `gorm:"size:120;not null" json:"entitlement_id"`
	Status        string         `gorm:"size:32;not null;default:'active'" json:"status"`
	Metadata      datatypes.JSON `json:"metadata"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// TableName returns the table name for SeasonPassCoverage
func (SeasonPassCoverage) TableName() string {
	return "season_pass_coverage"
}

// FounderOwnership records the single founder edition a user may own
type FounderOwnership struct {
	ID                        string         `gorm:"size:120;primaryKey" json:"id"`
	UserID                    uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	EntitlementID             string         `gorm:"size:120;not null" json:"entitlement_id"`
	Transferable              bool           `gorm:"not null;default:false" json:"transferable"`
	TransferEligibilityStatus string         `gorm:"size:64;not null;default:'not_eligible'" json:"transfer_eligibility_status"`
	Metadata                  datatypes.JSON `json:"metadata"`
	CreatedAt                 time.Time      `json:"created_at"`
	UpdatedAt                 time.Time      `json:"updated_at"`
}

// TableName returns the table name for FounderOwnership
func (FounderOwnership) TableName() string {
	return "founder_ownerships"
}

// FounderTransferEvent tracks the transfer history of a founder edition
type FounderTransferEvent struct {
	ID                 string         `gorm:"size:120;primaryKey" json:"id"`
	FounderOwnershipID string         `gorm:"size:120;not null;index" json:"founder_ownership_id"`
	FromUserID         *uuid.UUID     `gorm:"type:uuid" json:"from_user_id,omitempty"`
	ToUserID           *uuid.UUID     `gorm:"type:uuid" json:"to_user_id,omitempty"`
	TransferStatus     string         `gorm:"size:64;not null" json:"transfer_status"`
	Reason             string         `gorm:"size:120" json:"reason"`
	Metadata           datatypes.JSON `json:"metadata"`
	CreatedAt          time.Time      `json:"created_at"`
}

// TableName returns the table name for FounderTransferEvent
func (FounderTransferEvent) TableName() string {
	return "founder_transfer_events"
}
