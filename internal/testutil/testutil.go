// Package testutil provides fixtures shared by package tests.
package testutil

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sangkips/economy-api/internal/domain/entity"
	"github.com/sangkips/economy-api/internal/infrastructure/database"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a migrated in-memory SQLite database private to t. A single connection
// serialises access, so code under test must not reach for a second connection while
// a transaction is open.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

// NewSeededDB is NewDB plus the default catalogue
func NewSeededDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := NewDB(t)
	require.NoError(t, database.SeedDefaultData(db))
	return db
}

// CreateUser inserts a user holding the given balances
func CreateUser(t *testing.T, db *gorm.DB, username string, balances entity.Balances) *entity.User {
	t.Helper()
	user := &entity.User{
		Username:    username,
		HorrorCoins: balances.HorrorCoins,
		Souls:       balances.Souls,
		BloodGems:   balances.BloodGems,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// Clock is a settable time source for code that takes func() time.Time
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock starts a clock at a fixed UTC instant
func NewClock() *Clock {
	return &Clock{now: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
