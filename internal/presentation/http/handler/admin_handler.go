package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/economy-api/internal/application/service"
	"github.com/sangkips/economy-api/internal/domain/repository"
	"github.com/sangkips/economy-api/internal/presentation/http/dto/request"
	"github.com/sangkips/economy-api/internal/presentation/http/dto/response"
	"github.com/sangkips/economy-api/pkg/pagination"
)

// AdminHandler handles operator HTTP requests
type AdminHandler struct {
	adminService *service.AdminService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// GrantEntitlement issues an entitlement to a user
func (h *AdminHandler) GrantEntitlement(c *gin.Context) {
	mc, ok := mutationContext(c)
	if !ok {
		return
	}

	var req request.AdminGrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}
	target, err := uuid.Parse(req.UserID)
	if err != nil {
		invalidBody(c, err)
		return
	}

	result, err := h.adminService.GrantEntitlement(c.Request.Context(), mc, &service.AdminGrantInput{
		TargetUserID:    target,
		EntitlementType: req.EntitlementType,
		Quantity:        req.Quantity,
		ExpiresAt:       req.ExpiresAt,
		Reason:          req.Reason,
		Metadata:        req.Metadata,
	})
	respondMutation(c, result, err)
}

// ListAudit handles listing audit events
func (h *AdminHandler) ListAudit(c *gin.Context) {
	params := &repository.AuditFilterParams{
		Pagination:     pagination.FromQuery(c.Query("page"), c.Query("per_page")),
		EventType:      c.Query("event_type"),
		IdempotencyKey: c.Query("idempotency_key"),
	}
	if actor, err := uuid.Parse(c.Query("actor_user_id")); err == nil {
		params.ActorUserID = &actor
	}
	if target, err := uuid.Parse(c.Query("target_user_id")); err == nil {
		params.TargetUserID = &target
	}

	result, err := h.adminService.ListAudit(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, "Audit events retrieved successfully", result)
}

// InspectIdempotency returns the stored record for a scope and key
func (h *AdminHandler) InspectIdempotency(c *gin.Context) {
	record, err := h.adminService.InspectIdempotency(c.Request.Context(), c.Param("scope"), c.Param("key"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Idempotency record retrieved successfully", record)
}

// ListUserEntitlements lists any user's entitlements
func (h *AdminHandler) ListUserEntitlements(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		response.BadRequest(c, "Invalid user ID")
		return
	}

	params := &repository.EntitlementFilterParams{
		Pagination: pagination.FromQuery(c.Query("page"), c.Query("per_page")),
	}
	result, err := h.adminService.ListEntitlements(c.Request.Context(), userID, params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, "Entitlements retrieved successfully", result)
}
