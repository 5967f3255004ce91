package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// FirstTimeBonus is a one-off reward claimed by a user. GameKey is empty for bonuses
// that are not tracked per game.
type FirstTimeBonus struct {
	ID             string         `gorm:"size:120;primaryKey" json:"id"`
	UserID         uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:ux_first_time_bonus,priority:1" json:"user_id"`
	BonusType      string         `gorm:"size:64;not null;uniqueIndex:ux_first_time_bonus,priority:2" json:"bonus_type"`
	GameKey        string         `gorm:"size:120;not null;default:'';uniqueIndex:ux_first_time_bonus,priority:3" json:"game_key,omitempty"`
	HorrorCoins    int64          `gorm:"not null;default:0" json:"horror_coins"`
	Souls          int64          `gorm:"not null;default:0" json:"souls"`
	BloodGems      int64          `gorm:"not null;default:0" json:"blood_gems"`
	IdempotencyKey *string        `gorm:"size:255" json:"idempotency_key,omitempty"`
	Metadata       datatypes.JSON `json:"metadata"`
	CreatedAt      time.Time      `json:"created_at"`
}

// TableName returns the table name for FirstTimeBonus
func (FirstTimeBonus) TableName() string {
	return "first_time_bonuses"
}

// ReferralBonus pays a referrer once per referred user
type ReferralBonus struct {
	ID             string    `gorm:"size:120;primaryKey" json:"id"`
	ReferrerID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_referral_pair,priority:1;index:idx_referral_referrer_created,priority:1" json:"referrer_id"`
	ReferredUserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_referral_pair,priority:2" json:"referred_user_id"`
	Currency       string    `gorm:"size:32;not null" json:"currency"`
	Amount         int64     `gorm:"not null" json:"amount"`
	IdempotencyKey *string   `gorm:"size:255" json:"idempotency_key,omitempty"`
	CreatedAt      time.Time `gorm:"index:idx_referral_referrer_created,priority:2" json:"created_at"`
}

// TableName returns the table name for ReferralBonus
func (ReferralBonus) TableName() string {
	return "referral_bonuses"
}

// CurrencyTransfer records a gift of soft currency between two users
type CurrencyTransfer struct {
	ID             string    `gorm:"size:120;primaryKey" json:"id"`
	SenderID       uuid.UUID `gorm:"type:uuid;not null;index" json:"sender_id"`
	RecipientID    uuid.UUID `gorm:"type:uuid;not null;index" json:"recipient_id"`
	Currency       string    `gorm:"size:32;not null" json:"currency"`
	Amount         int64     `gorm:"not null" json:"amount"`
	Message        *string   `gorm:"size:500" json:"message,omitempty"`
	IdempotencyKey *string   `gorm:"size:255" json:"idempotency_key,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName returns the table name for CurrencyTransfer
func (CurrencyTransfer) TableName() string {
	return "currency_transfers"
}
