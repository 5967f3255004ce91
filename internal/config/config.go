package config

import (
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App         AppConfig
	Log         LogConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	CORS        CORSConfig
	RateLimit   RateLimitConfig
	Idempotency IdempotencyConfig
	Redis       RedisConfig
	Economy     EconomyConfig
}

type AppConfig struct {
	Name  string
	Env   string
	Port  string
	Debug bool
}

// IsProduction reports whether the service runs in the production tier
func (c AppConfig) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

type LogConfig struct {
	Level  string
	Format string
}

type DatabaseConfig struct {
	Driver       string // postgres or sqlite
	Host         string
	Port         string
	Name         string
	User         string
	Password     string
	SSLMode      string
	Timezone     string
	SQLitePath   string
	MaxIdleConns int
	MaxOpenConns int
}

type JWTConfig struct {
	Secret      string
	ExpiryHours time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

type RateLimitConfig struct {
	Requests int
	Duration int
}

type IdempotencyConfig struct {
	Store           string // database or memory
	LockTTL         time.Duration
	Retention       time.Duration
	MaxAttempts     int
	BackoffBase     time.Duration
	BackoffMax      time.Duration
	JanitorInterval time.Duration
	JanitorBatch    int
}

// UsesMemoryStore reports whether the degraded in-process store is selected
func (c IdempotencyConfig) UsesMemoryStore() bool {
	return strings.EqualFold(c.Store, "memory")
}

type RedisConfig struct {
	Enabled   bool
	Addr      string
	Password  string
	DB        int
	ReplayTTL time.Duration
	Prefix    string
}

type EconomyConfig struct {
	MaxPurchaseQty               int64
	MaxActiveBoosters            int
	MaxStackedMultiplier         string
	MaxRevenuePurchasesPerMinute int64
	ReferralDailyCap             int64
	ReferralRewardCoins          int64
	MaxGiftAmount                int64
}

func Load() *Config {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		slog.Warn(".env file not found, using environment variables", "error", err)
	}

	// Set defaults
	viper.SetDefault("APP_NAME", "economy-api")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("APP_DEBUG", false)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "json")
	viper.SetDefault("DB_DRIVER", "postgres")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_NAME", "economy")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_SSL_MODE", "disable")
	viper.SetDefault("DB_TIMEZONE", "UTC")
	viper.SetDefault("DB_SQLITE_PATH", "economy.db")
	viper.SetDefault("DB_MAX_IDLE_CONNS", 10)
	viper.SetDefault("DB_MAX_OPEN_CONNS", 100)
	viper.SetDefault("JWT_SECRET", "change-this-secret-in-production")
	viper.SetDefault("JWT_EXPIRY_HOURS", 24)
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("CORS_ALLOWED_HEADERS", []string{})
	viper.SetDefault("RATE_LIMIT_REQUESTS", 100)
	viper.SetDefault("RATE_LIMIT_DURATION", 60)
	viper.SetDefault("IDEMPOTENCY_STORE", "database")
	viper.SetDefault("IDEMPOTENCY_LOCK_TTL_SECONDS", 30)
	viper.SetDefault("IDEMPOTENCY_RETENTION_HOURS", 24)
	viper.SetDefault("IDEMPOTENCY_MAX_ATTEMPTS", 5)
	viper.SetDefault("IDEMPOTENCY_BACKOFF_BASE_MS", 500)
	viper.SetDefault("IDEMPOTENCY_BACKOFF_MAX_SECONDS", 60)
	viper.SetDefault("IDEMPOTENCY_JANITOR_INTERVAL_SECONDS", 300)
	viper.SetDefault("IDEMPOTENCY_JANITOR_BATCH", 500)
	viper.SetDefault("REDIS_ENABLED", false)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_REPLAY_TTL_SECONDS", 3600)
	viper.SetDefault("REDIS_PREFIX", "economy:idem:")
	viper.SetDefault("MAX_PURCHASE_QTY", 20)
	viper.SetDefault("MAX_ACTIVE_BOOSTERS", 2)
	viper.SetDefault("MAX_STACKED_MULTIPLIER", "3.0")
	viper.SetDefault("MAX_REVENUE_PURCHASES_PER_MINUTE", 8)
	viper.SetDefault("REFERRAL_DAILY_CAP", 50)
	viper.SetDefault("REFERRAL_REWARD_COINS", 100)
	viper.SetDefault("MAX_GIFT_AMOUNT", 100000)

	return &Config{
		App: AppConfig{
			Name:  viper.GetString("APP_NAME"),
			Env:   viper.GetString("APP_ENV"),
			Port:  viper.GetString("APP_PORT"),
			Debug: viper.GetBool("APP_DEBUG"),
		},
		Log: LogConfig{
			Level:  viper.GetString("LOG_LEVEL"),
			Format: viper.GetString("LOG_FORMAT"),
		},
		Database: DatabaseConfig{
			Driver:       viper.GetString("DB_DRIVER"),
			Host:         viper.GetString("DB_HOST"),
			Port:         viper.GetString("DB_PORT"),
			Name:         viper.GetString("DB_NAME"),
			User:         viper.GetString("DB_USER"),
			Password:     viper.GetString("DB_PASSWORD"),
			SSLMode:      viper.GetString("DB_SSL_MODE"),
			Timezone:     viper.GetString("DB_TIMEZONE"),
			SQLitePath:   viper.GetString("DB_SQLITE_PATH"),
			MaxIdleConns: viper.GetInt("DB_MAX_IDLE_CONNS"),
			MaxOpenConns: viper.GetInt("DB_MAX_OPEN_CONNS"),
		},
		JWT: JWTConfig{
			Secret:      viper.GetString("JWT_SECRET"),
			ExpiryHours: time.Duration(viper.GetInt("JWT_EXPIRY_HOURS")) * time.Hour,
		},
		CORS: CORSConfig{
			AllowedOrigins: viper.GetStringSlice("CORS_ALLOWED_ORIGINS"),
			AllowedMethods: viper.GetStringSlice("CORS_ALLOWED_METHODS"),
			AllowedHeaders: viper.GetStringSlice("CORS_ALLOWED_HEADERS"),
		},
		RateLimit: RateLimitConfig{
			Requests: viper.GetInt("RATE_LIMIT_REQUESTS"),
			Duration: viper.GetInt("RATE_LIMIT_DURATION"),
		},
		Idempotency: IdempotencyConfig{
			Store:           viper.GetString("IDEMPOTENCY_STORE"),
			LockTTL:         time.Duration(viper.GetInt("IDEMPOTENCY_LOCK_TTL_SECONDS")) * time.Second,
			Retention:       time.Duration(viper.GetInt("IDEMPOTENCY_RETENTION_HOURS")) * time.Hour,
			MaxAttempts:     viper.GetInt("IDEMPOTENCY_MAX_ATTEMPTS"),
			BackoffBase:     time.Duration(viper.GetInt("IDEMPOTENCY_BACKOFF_BASE_MS")) * time.Millisecond,
			BackoffMax:      time.Duration(viper.GetInt("IDEMPOTENCY_BACKOFF_MAX_SECONDS")) * time.Second,
			JanitorInterval: time.Duration(viper.GetInt("IDEMPOTENCY_JANITOR_INTERVAL_SECONDS")) * time.Second,
			JanitorBatch:    viper.GetInt("IDEMPOTENCY_JANITOR_BATCH"),
		},
		Redis: RedisConfig{
			Enabled:   viper.GetBool("REDIS_ENABLED"),
			Addr:      viper.GetString("REDIS_ADDR"),
			Password:  viper.GetString("REDIS_PASSWORD"),
			DB:        viper.GetInt("REDIS_DB"),
			ReplayTTL: time.Duration(viper.GetInt("REDIS_REPLAY_TTL_SECONDS")) * time.Second,
			Prefix:    viper.GetString("REDIS_PREFIX"),
		},
		Economy: EconomyConfig{
			MaxPurchaseQty:               viper.GetInt64("MAX_PURCHASE_QTY"),
			MaxActiveBoosters:            viper.GetInt("MAX_ACTIVE_BOOSTERS"),
			MaxStackedMultiplier:         viper.GetString("MAX_STACKED_MULTIPLIER"),
			MaxRevenuePurchasesPerMinute: viper.GetInt64("MAX_REVENUE_PURCHASES_PER_MINUTE"),
			ReferralDailyCap:             viper.GetInt64("REFERRAL_DAILY_CAP"),
			ReferralRewardCoins:          viper.GetInt64("REFERRAL_REWARD_COINS"),
			MaxGiftAmount:                viper.GetInt64("MAX_GIFT_AMOUNT"),
		},
	}
}

func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.Timezone
}
