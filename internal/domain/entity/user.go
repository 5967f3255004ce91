package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the economy profile of a player. Identity and credentials live with the
// identity service; this row only carries balances.
type User struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Username    string    `gorm:"size:255;unique" json:"username"`
	HorrorCoins int64     `gorm:"not null;default:0;check:chk_users_horror_coins,horror_coins >= 0" json:"horror_coins"`
	Souls       int64     `gorm:"not null;default:0;check:chk_users_souls,souls >= 0" json:"souls"`
	BloodGems   int64     `gorm:"not null;default:0;check:chk_users_blood_gems,blood_gems >= 0" json:"blood_gems"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BeforeCreate generates a UUID before creating a new user
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}

// Balances is a snapshot of a user's soft-currency holdings
type Balances struct {
	HorrorCoins int64 `json:"horror_coins"`
	Souls       int64 `json:"souls"`
	BloodGems   int64 `json:"blood_gems"`
}

// Balances returns the current holdings of u
func (u *User) Balances() Balances {
	return Balances{HorrorCoins: u.HorrorCoins, Souls: u.Souls, BloodGems: u.BloodGems}
}
