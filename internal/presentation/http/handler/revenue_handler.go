package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/economy-api/internal/application/service"
	"github.com/sangkips/economy-api/internal/presentation/http/dto/request"
	"github.com/sangkips/economy-api/internal/presentation/http/dto/response"
	"github.com/sangkips/economy-api/pkg/apperror"
)

// RevenueHandler handles revenue stream HTTP requests
type RevenueHandler struct {
	revenueService *service.RevenueService
}

// NewRevenueHandler creates a new revenue handler
func NewRevenueHandler(revenueService *service.RevenueService) *RevenueHandler {
	return &RevenueHandler{revenueService: revenueService}
}

// Purchase handles buying a SKU in one of the revenue streams
func (h *RevenueHandler) Purchase(c *gin.Context) {
	mc, ok := mutationContext(c)
	if !ok {
		return
	}

	var req request.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}

	result, err := h.revenueService.Purchase(c.Request.Context(), mc, &service.PurchaseInput{
		Stream:          req.Stream,
		SkuKey:          req.SkuKey,
		Quantity:        req.Quantity,
		Multiplier:      req.Multiplier,
		DurationMinutes: req.DurationMinutes,
		CharacterKeys:   req.CharacterKeys,
		CoverageYear:    req.CoverageYear,
		TicketTier:      req.TicketTier,
	})
	respondMutation(c, result, err)
}

// EnterTournament consumes one tournament ticket for the tournament in the path
func (h *RevenueHandler) EnterTournament(c *gin.Context) {
	mc, ok := mutationContext(c)
	if !ok {
		return
	}

	result, err := h.revenueService.ConsumeTournamentTicket(c.Request.Context(), mc, c.Param("tournament_id"))
	respondMutation(c, result, err)
}

// RedeemCharacterPack unlocks the characters in a pack
func (h *RevenueHandler) RedeemCharacterPack(c *gin.Context) {
	mc, ok := mutationContext(c)
	if !ok {
		return
	}

	result, err := h.revenueService.RedeemCharacterPack(c.Request.Context(), mc, c.Param("entitlement_id"))
	respondMutation(c, result, err)
}

// ActivateBooster starts an XP booster; without an entitlement id the oldest is used
func (h *RevenueHandler) ActivateBooster(c *gin.Context) {
	mc, ok := mutationContext(c)
	if !ok {
		return
	}

	var req request.ActivateBoosterRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			invalidBody(c, err)
			return
		}
	}

	result, err := h.revenueService.ActivateBooster(c.Request.Context(), mc, req.EntitlementID)
	respondMutation(c, result, err)
}

// Status returns the caller's revenue snapshot
func (h *RevenueHandler) Status(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	status, err := h.revenueService.Status(c.Request.Context(), *userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Revenue status retrieved successfully", status)
}

// Multiplier returns the caller's effective XP multiplier
func (h *RevenueHandler) Multiplier(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	multiplier, err := h.revenueService.EffectiveMultiplier(c.Request.Context(), *userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Effective multiplier retrieved successfully", gin.H{
		"effective_multiplier": multiplier.InexactFloat64(),
	})
}

// SeasonPass reports whether the caller's season pass covers the year in the path
func (h *RevenueHandler) SeasonPass(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		response.Error(c, apperror.New(apperror.CodeInvalidCoverageYear, "year must be an integer"))
		return
	}

	coverage, err := h.revenueService.SeasonPassCoverage(c.Request.Context(), *userID, year)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Season pass coverage retrieved successfully", gin.H{
		"year":     year,
		"covered":  coverage != nil,
		"coverage": coverage,
	})
}
