package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/economy-api/internal/application/service"
	"github.com/sangkips/economy-api/internal/config"
	domainRepo "github.com/sangkips/economy-api/internal/domain/repository"
	"github.com/sangkips/economy-api/internal/infrastructure/cache"
	"github.com/sangkips/economy-api/internal/infrastructure/database"
	"github.com/sangkips/economy-api/internal/infrastructure/logging"
	"github.com/sangkips/economy-api/internal/infrastructure/repository"
	"github.com/sangkips/economy-api/internal/presentation/http/handler"
	"github.com/sangkips/economy-api/internal/presentation/http/routes"
	"github.com/sangkips/economy-api/pkg/utils"
)

func main() {
	// Load configuration
	cfg := config.Load()
	logger := logging.New(cfg.Log)

	// Set Gin mode based on environment
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	db, err := database.NewDB(&cfg.Database, cfg.App.Debug)
	if err != nil {
		fatal(logger, "failed to connect to database", err)
	}

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		fatal(logger, "failed to run migrations", err)
	}

	// Seed default data
	if err := database.SeedDefaultData(db); err != nil {
		logger.Warn("failed to seed default data", slog.Any("error", err))
	}

	jwtManager := utils.NewJWTManager(cfg.JWT.Secret, cfg.JWT.ExpiryHours)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	entitlementRepo := repository.NewEntitlementRepository(db)
	bonusRepo := repository.NewBonusRepository(db)
	transferRepo := repository.NewTransferRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	skuRepo := repository.NewSkuRepository(db)
	revenueRepo := repository.NewRevenueRepository(db)
	transactor := repository.NewTransactor(db)

	var idempotencyStore domainRepo.IdempotencyRepository
	if cfg.Idempotency.UsesMemoryStore() {
		logger.Warn("idempotency records are kept in process memory; they do not survive restarts or span instances",
			slog.Bool("production", cfg.App.IsProduction()))
		idempotencyStore = repository.NewMemoryIdempotencyRepository()
	} else {
		idempotencyStore = repository.NewIdempotencyRepository(db)
	}

	coordinatorOpts := []service.CoordinatorOption{service.WithLogger(logger)}
	if cfg.Redis.Enabled {
		client, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			logger.Warn("replay cache disabled", slog.Any("error", err))
		} else {
			defer client.Close()
			coordinatorOpts = append(coordinatorOpts,
				service.WithReplayCache(cache.NewReplayCache(client, cfg.Redis.Prefix, cfg.Redis.ReplayTTL)))
		}
	}

	// Initialize services
	audit := service.NewAuditLogger(auditRepo, nil, logger)
	coordinator := service.NewMutationCoordinator(idempotencyStore, transactor, audit, cfg.Idempotency, coordinatorOpts...)
	currency := service.NewCurrencyLedger(userRepo, nil)
	entitlements := service.NewEntitlementLedger(entitlementRepo, nil)

	userService := service.NewUserService(userRepo, currency, nil)
	revenueService := service.NewRevenueService(coordinator, entitlements, userRepo, skuRepo, orderRepo, revenueRepo, cfg.Economy, nil)
	bonusService := service.NewBonusService(coordinator, currency, audit, bonusRepo, nil)
	referralService := service.NewReferralService(coordinator, currency, bonusRepo, userRepo, cfg.Economy, nil)
	giftService := service.NewGiftService(coordinator, currency, transferRepo, cfg.Economy, nil)
	adminService := service.NewAdminService(coordinator, entitlements, audit, userRepo)

	janitor := service.NewIdempotencyJanitor(idempotencyStore, cfg.Idempotency.JanitorInterval, cfg.Idempotency.JanitorBatch, logger)
	go janitor.Run(ctx)

	// Initialize handlers
	handlers := &routes.Handlers{
		User:    handler.NewUserHandler(userService, entitlements),
		Revenue: handler.NewRevenueHandler(revenueService),
		Reward:  handler.NewRewardHandler(bonusService, referralService, giftService),
		Admin:   handler.NewAdminHandler(adminService),
	}

	router := routes.Setup(handlers, &routes.Deps{
		JWTManager: jwtManager,
		Cfg:        cfg,
		Logger:     logger,
		Ctx:        ctx,
	})

	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting server",
			slog.String("service", cfg.App.Name),
			slog.String("port", port),
			slog.String("env", cfg.App.Env),
			slog.String("idempotency_store", cfg.Idempotency.Store))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(logger, "failed to start server", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, slog.Any("error", err))
	os.Exit(1)
}
