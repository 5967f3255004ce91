package response

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/economy-api/pkg/apperror"
	"github.com/sangkips/economy-api/pkg/pagination"
)

// ReplayedHeader tells clients whether a mutation response was replayed
const ReplayedHeader = "X-Idempotency-Replayed"

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool                  `json:"success"`
	Message string                `json:"message,omitempty"`
	Code    apperror.Code         `json:"code,omitempty"`
	Data    interface{}           `json:"data,omitempty"`
	Errors  []apperror.FieldError `json:"errors,omitempty"`
	Meta    *Meta                 `json:"meta,omitempty"`
}

// Meta contains metadata about the response
type Meta struct {
	Timestamp string `json:"timestamp"`
	RequestID string `json:"request_id"`
}

// newMeta creates metadata for the response
func newMeta(c *gin.Context) *Meta {
	requestID := c.GetString("request_id")
	if requestID == "" {
		requestID = c.GetHeader("X-Request-ID")
	}
	if requestID == "" {
		requestID = uuid.New().String()
	}
	return &Meta{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RequestID: requestID,
	}
}

// Success sends a success response
func Success(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, APIResponse{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    newMeta(c),
	})
}

// SuccessWithPagination sends a success response with pagination
func SuccessWithPagination[T any](c *gin.Context, statusCode int, message string, result *pagination.PaginatedResult[T]) {
	c.JSON(statusCode, APIResponse{
		Success: true,
		Message: message,
		Data:    result,
		Meta:    newMeta(c),
	})
}

// Mutation sends the stored body of an idempotent mutation. The body is written
// verbatim so a replay is byte-identical to the first response. First successes
// answer 201, replays 200.
func Mutation(c *gin.Context, replayed bool, body []byte) {
	status := http.StatusCreated
	if replayed {
		status = http.StatusOK
	}
	if len(body) == 0 {
		body = []byte(`{}`)
	}
	meta, _ := json.Marshal(newMeta(c))

	var buf bytes.Buffer
	buf.WriteString(`{"success":true,"replayed":`)
	buf.WriteString(strconv.FormatBool(replayed))
	buf.WriteString(`,"data":`)
	buf.Write(body)
	buf.WriteString(`,"meta":`)
	buf.Write(meta)
	buf.WriteByte('}')

	c.Header(ReplayedHeader, strconv.FormatBool(replayed))
	c.Data(status, "application/json; charset=utf-8", buf.Bytes())
}

// Error sends an error response carrying the stable error code
func Error(c *gin.Context, err error) {
	appErr := apperror.GetAppError(err)
	if appErr.Status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(appErr.Status, APIResponse{
		Success: false,
		Message: appErr.Message,
		Code:    appErr.Code,
		Errors:  appErr.Errors,
		Meta:    newMeta(c),
	})
}

// ErrorWithCode sends an error response with a specific status code
func ErrorWithCode(c *gin.Context, statusCode int, code apperror.Code, message string) {
	c.JSON(statusCode, APIResponse{
		Success: false,
		Message: message,
		Code:    code,
		Meta:    newMeta(c),
	})
}

// Created sends a 201 Created response
func Created(c *gin.Context, message string, data interface{}) {
	Success(c, http.StatusCreated, message, data)
}

// OK sends a 200 OK response
func OK(c *gin.Context, message string, data interface{}) {
	Success(c, http.StatusOK, message, data)
}

// NotFound sends a 404 Not Found response
func NotFound(c *gin.Context, message string) {
	ErrorWithCode(c, http.StatusNotFound, apperror.CodeNotFound, message)
}

// Unauthorized sends a 401 Unauthorized response
func Unauthorized(c *gin.Context, message string) {
	ErrorWithCode(c, http.StatusUnauthorized, apperror.CodeUnauthorized, message)
}

// Forbidden sends a 403 Forbidden response
func Forbidden(c *gin.Context, message string) {
	ErrorWithCode(c, http.StatusForbidden, apperror.CodeForbidden, message)
}

// BadRequest sends a 400 Bad Request response
func BadRequest(c *gin.Context, message string) {
	ErrorWithCode(c, http.StatusBadRequest, apperror.CodeBadRequest, message)
}
