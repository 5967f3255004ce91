package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/economy-api/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(handler gin.HandlerFunc) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)
	c.Set("request_id", "req-1")
	handler(c)
	return w
}

func TestMutationWritesStoredBytesVerbatim(t *testing.T) {
	stored := []byte(`{"b":"<tag>","a":1.50}`)

	first := record(func(c *gin.Context) { Mutation(c, false, stored) })
	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, "false", first.Header().Get(ReplayedHeader))

	replay := record(func(c *gin.Context) { Mutation(c, true, stored) })
	assert.Equal(t, http.StatusOK, replay.Code)
	assert.Equal(t, "true", replay.Header().Get(ReplayedHeader))

	var env struct {
		Success  bool            `json:"success"`
		Replayed bool            `json:"replayed"`
		Data     json.RawMessage `json:"data"`
		Meta     Meta            `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(replay.Body.Bytes(), &env))
	assert.True(t, env.Success)
	assert.True(t, env.Replayed)
	assert.Equal(t, string(stored), string(env.Data))
	assert.Equal(t, "req-1", env.Meta.RequestID)
}

func TestMutationEmptyBody(t *testing.T) {
	w := record(func(c *gin.Context) { Mutation(c, false, nil) })
	assert.Contains(t, w.Body.String(), `"data":{}`)
}

func TestErrorUsesCodeStatus(t *testing.T) {
	w := record(func(c *gin.Context) {
		Error(c, apperror.New(apperror.CodeInsufficientBalance, "Not enough souls"))
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	var body APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, apperror.CodeInsufficientBalance, body.Code)
	assert.Equal(t, "Not enough souls", body.Message)

	w = record(func(c *gin.Context) { Error(c, errors.New("boom")) })
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"INTERNAL_ERROR"`)
	assert.NotContains(t, w.Body.String(), "boom")
}
