package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/economy-api/internal/application/service"
	"github.com/sangkips/economy-api/internal/presentation/http/dto/response"
	"github.com/sangkips/economy-api/internal/presentation/http/middleware"
	"github.com/sangkips/economy-api/pkg/apperror"
)

// GetUserID extracts the user ID from the Gin context
func GetUserID(c *gin.Context) *uuid.UUID {
	userIDVal, exists := c.Get("user_id")
	if !exists {
		return nil
	}
	userID, ok := userIDVal.(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return nil
	}
	return &userID
}

// GetUserRoles extracts the user roles from the Gin context
func GetUserRoles(c *gin.Context) []string {
	roles, exists := c.Get("user_roles")
	if !exists {
		return nil
	}
	list, _ := roles.([]string)
	return list
}

// mutationContext collects the caller identity and idempotency key for a mutation.
// It writes the error response itself and returns false when either is missing.
func mutationContext(c *gin.Context) (service.MutationContext, bool) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return service.MutationContext{}, false
	}
	key := c.GetString(middleware.IdempotencyKeyContext)
	if key == "" {
		response.Error(c, apperror.ErrKeyRequired)
		return service.MutationContext{}, false
	}
	return service.MutationContext{
		UserID:         *userID,
		IdempotencyKey: key,
		RequestID:      c.GetString("request_id"),
	}, true
}

// respondMutation writes the outcome of an idempotent service call
func respondMutation(c *gin.Context, result *service.MutationResult, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Mutation(c, result.Replayed, result.ResponseBody)
}

func invalidBody(c *gin.Context, err error) {
	response.Error(c, apperror.NewBadRequestError("Invalid request body: "+err.Error()))
}
