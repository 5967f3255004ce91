package normalize

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/sangkips/economy-api/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequiredString(t *testing.T) {
	got, err := RequiredString("  abc  ", "scope", 10)
	require.NoError(t, err)
	assert.Equal(t, "abc", got)

	_, err = RequiredString("   ", "scope", 10)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidScope))

	_, err = RequiredString(strings.Repeat("x", 11), "scope", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "<= 10")
}

func TestRequiredStringCountsRunes(t *testing.T) {
	got, err := RequiredString("ééé", "key", 3)
	require.NoError(t, err)
	assert.Equal(t, "ééé", got)
}

func TestOptionalString(t *testing.T) {
	blank := "  "
	got, err := OptionalString(&blank, "gameId", 10)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = OptionalString(nil, "gameId", 10)
	require.NoError(t, err)
	assert.Nil(t, got)

	v := " g1 "
	got, err = OptionalString(&v, "gameId", 10)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "g1", *got)
}

func TestCurrency(t *testing.T) {
	c, err := Currency("")
	require.NoError(t, err)
	assert.Equal(t, "USD", c)

	c, err = Currency(" eur ")
	require.NoError(t, err)
	assert.Equal(t, "EUR", c)

	_, err = Currency("TOOLONGCODE")
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidCurrency))
}

func TestAmountAndPositiveInt(t *testing.T) {
	v, err := Amount(0, "amount")
	require.NoError(t, err)
	assert.Zero(t, v)

	_, err = Amount(-1, "amount")
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidAmount))

	_, err = PositiveInt(21, "quantity", 1, 20)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidQuantity))

	_, err = PositiveInt(4, "durationMinutes", 5, 1440)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidDuration))

	v, err = PositiveInt(2025, "coverageYear", 2020, 2200)
	require.NoError(t, err)
	assert.EqualValues(t, 2025, v)
}

func TestTimestamp(t *testing.T) {
	ts, err := Timestamp("", "expiresAt")
	require.NoError(t, err)
	assert.Nil(t, ts)

	ts, err = Timestamp("2026-01-02T03:04:05+02:00", "expiresAt")
	require.NoError(t, err)
	require.NotNil(t, ts)
	assert.Equal(t, 1, ts.Hour())

	_, err = Timestamp("yesterday", "expiresAt")
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidTimestamp))
}

func TestMetadata(t *testing.T) {
	raw, err := Metadata(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(raw))

	raw, err = Metadata(map[string]any{"stream": "xp_booster"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"stream":"xp_booster"}`, string(raw))

	raw, err = Metadata(json.RawMessage(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(raw))

	_, err = Metadata(make(chan int))
	assert.Error(t, err)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, []string{"wraith", "ghoul"}, Keys([]string{" wraith", "", "ghoul", "wraith "}))
	assert.Empty(t, Keys(nil))
}
