package database

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sangkips/economy-api/internal/config"
	"github.com/sangkips/economy-api/internal/domain/entity"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// NewDB opens the configured database. PostgreSQL is the production store; SQLite is
// accepted for local development and tests.
func NewDB(cfg *config.DatabaseConfig, debug bool) (*gorm.DB, error) {
	logLevel := logger.Warn
	if debug {
		logLevel = logger.Info
	}
	gormCfg := &gorm.Config{
		Logger:  logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time { return time.Now().UTC() },
	}

	var dialector gorm.Dialector
	switch strings.ToLower(cfg.Driver) {
	case DriverPostgres, "":
		dialector = postgres.New(postgres.Config{
			DSN:                  cfg.DSN(),
			PreferSimpleProtocol: true, // disables implicit prepared statement usage
		})
	case DriverSQLite:
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying SQL DB to set connection pool settings
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if IsPostgres(db) {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	} else {
		// one writer; a second connection would only wait on SQLITE_BUSY
		sqlDB.SetMaxOpenConns(1)
	}

	slog.Info("connected to database", "driver", db.Dialector.Name())
	return db, nil
}

// IsPostgres reports whether db is backed by PostgreSQL
func IsPostgres(db *gorm.DB) bool {
	return db != nil && db.Dialector.Name() == DriverPostgres
}

// AutoMigrate runs GORM auto-migration for all entities
func AutoMigrate(db *gorm.DB) error {
	slog.Info("running database migrations")

	err := db.AutoMigrate(
		// Users and balances
		&entity.User{},

		// Catalogue and orders
		&entity.Sku{},
		&entity.Order{},
		&entity.OrderItem{},

		// Entitlements and revenue streams
		&entity.Entitlement{},
		&entity.EntitlementConsumption{},
		&entity.TournamentTicketConsumption{},
		&entity.XpBoosterActivation{},
		&entity.CharacterUnlock{},
		&entity.SeasonPassCoverage{},
		&entity.FounderOwnership{},
		&entity.FounderTransferEvent{},

		// Rewards and gifting
		&entity.FirstTimeBonus{},
		&entity.ReferralBonus{},
		&entity.CurrencyTransfer{},

		// System entities
		&entity.IdempotencyRecord{},
		&entity.AuditEvent{},
	)

	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Info("database migrations completed")
	return nil
}
