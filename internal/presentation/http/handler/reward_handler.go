package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/economy-api/internal/application/service"
	"github.com/sangkips/economy-api/internal/presentation/http/dto/request"
	"github.com/sangkips/economy-api/internal/presentation/http/dto/response"
)

// RewardHandler handles bonus, referral and gift HTTP requests
type RewardHandler struct {
	bonusService    *service.BonusService
	referralService *service.ReferralService
	giftService     *service.GiftService
}

// NewRewardHandler creates a new reward handler
func NewRewardHandler(
	bonusService *service.BonusService,
	referralService *service.ReferralService,
	giftService *service.GiftService,
) *RewardHandler {
	return &RewardHandler{
		bonusService:    bonusService,
		referralService: referralService,
		giftService:     giftService,
	}
}

// ClaimBonus handles claiming a first-time bonus
func (h *RewardHandler) ClaimBonus(c *gin.Context) {
	mc, ok := mutationContext(c)
	if !ok {
		return
	}

	var req request.ClaimBonusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}

	result, err := h.bonusService.Claim(c.Request.Context(), mc, req.BonusType, req.GameID)
	respondMutation(c, result, err)
}

// BonusStatus lists claimed and available first-time bonuses
func (h *RewardHandler) BonusStatus(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	status, err := h.bonusService.Status(c.Request.Context(), *userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Bonus status retrieved successfully", status)
}

// ReferralBonus rewards the caller for a referred user
func (h *RewardHandler) ReferralBonus(c *gin.Context) {
	mc, ok := mutationContext(c)
	if !ok {
		return
	}

	var req request.ReferralBonusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}
	referred, err := uuid.Parse(req.ReferredUserID)
	if err != nil {
		invalidBody(c, err)
		return
	}

	result, err := h.referralService.AwardBonus(c.Request.Context(), mc, referred)
	respondMutation(c, result, err)
}

// SendGift transfers currency from the caller to another user
func (h *RewardHandler) SendGift(c *gin.Context) {
	mc, ok := mutationContext(c)
	if !ok {
		return
	}

	var req request.SendGiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}
	recipient, err := uuid.Parse(req.RecipientID)
	if err != nil {
		invalidBody(c, err)
		return
	}

	result, err := h.giftService.Send(c.Request.Context(), mc, &service.SendGiftInput{
		RecipientID: recipient,
		Currency:    req.Currency,
		Amount:      req.Amount,
		Message:     req.Message,
	})
	respondMutation(c, result, err)
}

// GiftHistory lists recent gifts sent or received by the caller
func (h *RewardHandler) GiftHistory(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	transfers, err := h.giftService.History(c.Request.Context(), *userID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Gift history retrieved successfully", transfers)
}
