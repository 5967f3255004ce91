package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError represents an application error with HTTP status and a stable machine-readable code
type AppError struct {
	Status  int          `json:"-"`
	Code    Code         `json:"code"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// FieldError represents a validation error for a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return string(e.Code) + ": " + e.Message
}

// Is matches on Code so sentinel comparisons survive wrapping and re-construction.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Common errors
var (
	ErrNotFound        = New(CodeNotFound, "Resource not found")
	ErrUnauthorized    = New(CodeUnauthorized, "Unauthorized")
	ErrForbidden       = New(CodeForbidden, "Forbidden")
	ErrBadRequest      = New(CodeBadRequest, "Bad request")
	ErrInternalServer  = New(CodeInternal, "Internal server error")
	ErrConflict        = New(CodeConflict, "Resource already exists")
	ErrInvalidToken    = New(CodeUnauthorized, "Invalid token")
	ErrKeyRequired     = New(CodeIdempotencyKeyRequired, "Idempotency-Key header is required")
	ErrPayloadMismatch = New(CodeIdempotencyPayloadMismatch, "Idempotency key already used with a different payload")
	ErrInProgress      = New(CodeIdempotencyInProgress, "Request with this idempotency key is currently in progress")
	ErrLeaseLost       = New(CodeIdempotencyLeaseLost, "Idempotency lease was taken over by another attempt")
)

// New creates an application error whose HTTP status comes from the code table
func New(code Code, message string) *AppError {
	return &AppError{
		Status:  StatusFor(code),
		Code:    code,
		Message: message,
	}
}

// Newf is New with a formatted message
func Newf(code Code, format string, args ...any) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// NewAppError creates an application error with an explicit status
func NewAppError(status int, code Code, message string) *AppError {
	return &AppError{
		Status:  status,
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(fieldErrors []FieldError) *AppError {
	return &AppError{
		Status:  http.StatusUnprocessableEntity,
		Code:    CodeValidationFailed,
		Message: "Validation failed",
		Errors:  fieldErrors,
	}
}

// NewNotFoundError creates a not found error with a custom message
func NewNotFoundError(resource string) *AppError {
	return New(CodeNotFound, resource+" not found")
}

// NewConflictError creates a conflict error with a custom message
func NewConflictError(message string) *AppError {
	return New(CodeConflict, message)
}

// NewBadRequestError creates a bad request error with a custom message
func NewBadRequestError(message string) *AppError {
	return New(CodeBadRequest, message)
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// HasCode reports whether err carries the given code
func HasCode(err error, code Code) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// GetAppError converts an error to AppError if possible
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{
		Status:  http.StatusInternalServerError,
		Code:    CodeInternal,
		Message: "Internal server error",
	}
}
