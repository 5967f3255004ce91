package routes

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/economy-api/internal/config"
	"github.com/sangkips/economy-api/internal/presentation/http/handler"
	"github.com/sangkips/economy-api/internal/presentation/http/middleware"
	"github.com/sangkips/economy-api/pkg/utils"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	User    *handler.UserHandler
	Revenue *handler.RevenueHandler
	Reward  *handler.RewardHandler
	Admin   *handler.AdminHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	JWTManager *utils.JWTManager
	Cfg        *config.Config
	Logger     *slog.Logger
	// Ctx bounds background work started by the router, such as limiter cleanup
	Ctx context.Context
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()
	ctx := deps.Ctx
	if ctx == nil {
		ctx = context.Background()
	}

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware(deps.Logger))
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	rateLimiter := middleware.NewUserRateLimiter(ctx, middleware.RateLimiterConfigFrom(deps.Cfg.RateLimit))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":            "ok",
			"service":           deps.Cfg.App.Name,
			"idempotency_store": deps.Cfg.Idempotency.Store,
			"rate_limiter":      rateLimiter.Stats(),
		})
	})

	v1 := router.Group("/api/v1")
	{
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(deps.JWTManager))
		protected.Use(rateLimiter.Middleware())

		registerProtectedRoutes(protected, h, deps)
	}

	return router
}

func registerProtectedRoutes(protected *gin.RouterGroup, h *Handlers, deps *Deps) {
	// Every economy mutation needs an idempotency key and, in production, a durable store
	mutation := []gin.HandlerFunc{
		middleware.RequireDurableStore(deps.Cfg.Idempotency.UsesMemoryStore(), deps.Cfg.App.IsProduction()),
		middleware.RequireIdempotencyKey(),
	}

	registerProfileRoutes(protected, h)
	registerRevenueRoutes(protected, h, mutation)
	registerRewardRoutes(protected, h, mutation)
	registerAdminRoutes(protected, h, mutation)
}

func registerProfileRoutes(protected *gin.RouterGroup, h *Handlers) {
	profile := protected.Group("/profile")
	{
		profile.GET("", h.User.Get)
		profile.POST("", h.User.Provision)
		profile.GET("/balances", h.User.Balances)
		profile.GET("/entitlements", h.User.Entitlements)
	}
}

func registerRevenueRoutes(protected *gin.RouterGroup, h *Handlers, mutation []gin.HandlerFunc) {
	revenue := protected.Group("/revenue")
	{
		revenue.GET("/status", h.Revenue.Status)
		revenue.GET("/boosters/multiplier", h.Revenue.Multiplier)
		revenue.GET("/season-pass/:year", h.Revenue.SeasonPass)

		writes := revenue.Group("", mutation...)
		writes.POST("/purchases", h.Revenue.Purchase)
		writes.POST("/tournaments/:tournament_id/entries", h.Revenue.EnterTournament)
		writes.POST("/character-packs/:entitlement_id/redeem", h.Revenue.RedeemCharacterPack)
		writes.POST("/boosters/activate", h.Revenue.ActivateBooster)
	}
}

func registerRewardRoutes(protected *gin.RouterGroup, h *Handlers, mutation []gin.HandlerFunc) {
	bonuses := protected.Group("/bonuses")
	{
		bonuses.GET("", h.Reward.BonusStatus)
		bonuses.POST("/claim", chain(mutation, h.Reward.ClaimBonus)...)
	}

	protected.POST("/referrals/bonus", chain(mutation, h.Reward.ReferralBonus)...)

	gifts := protected.Group("/gifts")
	{
		gifts.GET("", h.Reward.GiftHistory)
		gifts.POST("", chain(mutation, h.Reward.SendGift)...)
	}
}

func registerAdminRoutes(protected *gin.RouterGroup, h *Handlers, mutation []gin.HandlerFunc) {
	admin := protected.Group("/admin")
	admin.Use(middleware.RequireRole("admin"))
	{
		admin.POST("/entitlements", chain(mutation, h.Admin.GrantEntitlement)...)
		admin.GET("/users/:user_id/entitlements", h.Admin.ListUserEntitlements)
		admin.GET("/audit", h.Admin.ListAudit)
		admin.GET("/idempotency/:scope/:key", h.Admin.InspectIdempotency)
	}
}

// chain returns a fresh handler list so route registrations never share a backing array
func chain(middlewares []gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(middlewares)+1)
	out = append(out, middlewares...)
	return append(out, h)
}
