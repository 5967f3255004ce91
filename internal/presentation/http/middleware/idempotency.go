package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/economy-api/internal/presentation/http/dto/response"
	"github.com/sangkips/economy-api/pkg/apperror"
)

const (
	// IdempotencyKeyHeader is the HTTP header for idempotency keys
	IdempotencyKeyHeader = "Idempotency-Key"
	// AltIdempotencyKeyHeader is accepted from older clients
	AltIdempotencyKeyHeader = "X-Idempotency-Key"
	// IdempotencyKeyContext is the gin context key the resolved key is stored under
	IdempotencyKeyContext = "idempotency_key"

	maxPeekBytes = 1 << 20
)

// RequireIdempotencyKey resolves the idempotency key from the headers or the JSON body
// and rejects the request before any handler runs when none is present.
func RequireIdempotencyKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
		if key == "" {
			key = strings.TrimSpace(c.GetHeader(AltIdempotencyKeyHeader))
		}
		if key == "" {
			var err error
			if key, err = keyFromBody(c); err != nil {
				response.Error(c, err)
				c.Abort()
				return
			}
		}
		if key == "" {
			response.Error(c, apperror.ErrKeyRequired)
			c.Abort()
			return
		}

		c.Set(IdempotencyKeyContext, key)
		c.Next()
	}
}

// keyFromBody peeks at the body for the key and restores it for the handler.
// Bodies too large to peek whole are refused rather than handed on truncated.
func keyFromBody(c *gin.Context) (string, error) {
	if c.Request.Body == nil {
		return "", nil
	}
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxPeekBytes+1))
	_ = c.Request.Body.Close()
	c.Request.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil || len(raw) == 0 {
		return "", nil
	}
	if len(raw) > maxPeekBytes {
		return "", apperror.New(apperror.CodeBodyTooLarge, "Request body too large")
	}

	var body struct {
		IdempotencyKey       string `json:"idempotency_key"`
		IdempotencyKeyCompat string `json:"idempotencyKey"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", nil
	}
	if key := strings.TrimSpace(body.IdempotencyKey); key != "" {
		return key, nil
	}
	return strings.TrimSpace(body.IdempotencyKeyCompat), nil
}

// RequireDurableStore refuses economy mutations in production when idempotency
// records live only in process memory.
func RequireDurableStore(memoryStore, production bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if memoryStore && production {
			response.Error(c, apperror.New(apperror.CodePgRequired, "A database-backed idempotency store is required"))
			c.Abort()
			return
		}
		c.Next()
	}
}
