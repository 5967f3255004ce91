package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/economy-api/internal/application/service"
	"github.com/sangkips/economy-api/internal/domain/enum"
	"github.com/sangkips/economy-api/internal/domain/repository"
	"github.com/sangkips/economy-api/internal/presentation/http/dto/request"
	"github.com/sangkips/economy-api/internal/presentation/http/dto/response"
	"github.com/sangkips/economy-api/pkg/pagination"
)

// UserHandler handles the caller's economy profile
type UserHandler struct {
	userService  *service.UserService
	entitlements *service.EntitlementLedger
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *service.UserService, entitlements *service.EntitlementLedger) *UserHandler {
	return &UserHandler{userService: userService, entitlements: entitlements}
}

// Provision creates the caller's economy profile if it does not exist yet
// @Summary Provision Profile
// @Description Create the economy profile for the authenticated user. Existing profiles are returned unchanged.
// @Tags profile
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body request.ProvisionProfileRequest false "Profile"
// @Success 200 {object} response.APIResponse
// @Router /profile [post]
func (h *UserHandler) Provision(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	var req request.ProvisionProfileRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			invalidBody(c, err)
			return
		}
	}

	user, err := h.userService.Provision(c.Request.Context(), *userID, req.Username)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Profile ready", user)
}

// Get returns the caller's profile
// @Summary Get Profile
// @Tags profile
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.APIResponse
// @Router /profile [get]
func (h *UserHandler) Get(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	user, err := h.userService.GetUser(c.Request.Context(), *userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Profile retrieved successfully", user)
}

// Balances returns the caller's currency balances
func (h *UserHandler) Balances(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	balances, err := h.userService.Balances(c.Request.Context(), *userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Balances retrieved successfully", balances)
}

// Entitlements lists the caller's entitlements with optional status and type filters
func (h *UserHandler) Entitlements(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	params := &repository.EntitlementFilterParams{
		Pagination:      pagination.FromQuery(c.Query("page"), c.Query("per_page")),
		Status:          enum.EntitlementStatus(c.Query("status")),
		EntitlementType: c.Query("type"),
	}

	result, err := h.entitlements.ListByUser(c.Request.Context(), *userID, params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, "Entitlements retrieved successfully", result)
}
