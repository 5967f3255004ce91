package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIDIsPrefixedAndUnique(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id := NewID("ord_item")
		require.True(t, strings.HasPrefix(id, "ord_item_"), id)
		assert.Len(t, id, len("ord_item_")+26)
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}

func TestNewIDSortsByCreation(t *testing.T) {
	first := NewID("ent")
	time.Sleep(2 * time.Millisecond)
	second := NewID("ent")
	assert.Less(t, first, second)
}

func TestIDPrefix(t *testing.T) {
	assert.Equal(t, "ent_consume", IDPrefix(NewID("ent_consume")))
	assert.Equal(t, "", IDPrefix("plain"))
}

func TestJWTRoundTrip(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)
	userID := uuid.New()

	token, err := m.GenerateAccessToken(userID, []string{"admin"})
	require.NoError(t, err)

	claims, err := m.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.True(t, claims.HasRole("support", "admin"))
	assert.False(t, claims.HasRole("support"))
}

func TestJWTRejectsForeignSecretAndIssuer(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)
	other := NewJWTManager("other", time.Hour)

	token, err := other.GenerateAccessToken(uuid.New(), nil)
	require.NoError(t, err)
	_, err = m.ValidateAccessToken(token)
	assert.Error(t, err)

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, &JWTClaims{
		UserID:           uuid.New(),
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "someone-else"},
	})
	signed, err := foreign.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = m.ValidateAccessToken(signed)
	assert.Error(t, err)
}

func TestJWTRejectsExpiredToken(t *testing.T) {
	m := NewJWTManager("secret", -time.Minute)
	token, err := m.GenerateAccessToken(uuid.New(), nil)
	require.NoError(t, err)
	_, err = m.ValidateAccessToken(token)
	assert.Error(t, err)
}
