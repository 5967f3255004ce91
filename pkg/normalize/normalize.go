// Package normalize validates and coerces caller-supplied values before they reach storage.
package normalize

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sangkips/economy-api/pkg/apperror"
	"gorm.io/datatypes"
)

// Length limits shared by the ledger tables
const (
	MaxIDLength             = 120
	MaxScopeLength          = 120
	MaxIdempotencyKeyLength = 255
	MaxStatusLength         = 64
	MaxSeverityLength       = 32
	MaxTypeLength           = 120
	MaxCurrencyLength       = 8
	MaxMessageLength        = 500
)

// DefaultCurrency is applied when a caller omits the currency
const DefaultCurrency = "USD"

// codeFor derives the INVALID_<FIELD> code from a camelCase field name.
func codeFor(field string) apperror.Code {
	return apperror.Code("INVALID_" + strings.ToUpper(field))
}

func invalid(field, format string, args ...any) *apperror.AppError {
	err := apperror.Newf(codeFor(field), format, args...)
	err.Errors = []apperror.FieldError{{Field: field, Message: err.Message}}
	return err
}

// RequiredString trims value and rejects blanks or values longer than maxLen runes
func RequiredString(value, field string, maxLen int) (string, error) {
	normalized := strings.TrimSpace(value)
	if normalized == "" {
		return "", invalid(field, "%s is required", field)
	}
	if utf8.RuneCountInString(normalized) > maxLen {
		return "", invalid(field, "%s must be <= %d chars", field, maxLen)
	}
	return normalized, nil
}

// OptionalString is RequiredString that maps blank input to nil
func OptionalString(value *string, field string, maxLen int) (*string, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	normalized, err := RequiredString(*value, field, maxLen)
	if err != nil {
		return nil, err
	}
	return &normalized, nil
}

// Currency upper-cases a currency code, defaulting to USD
func Currency(value string) (string, error) {
	if strings.TrimSpace(value) == "" {
		return DefaultCurrency, nil
	}
	normalized, err := RequiredString(value, "currency", MaxCurrencyLength)
	if err != nil {
		return "", err
	}
	return strings.ToUpper(normalized), nil
}

// Amount rejects negative integer amounts
func Amount(value int64, field string) (int64, error) {
	if value < 0 {
		return 0, invalid(field, "%s must be >= 0", field)
	}
	return value, nil
}

// PositiveInt checks min <= value <= max
func PositiveInt(value int64, field string, min, max int64) (int64, error) {
	if value < min || value > max {
		return 0, invalid(field, "%s must be between %d and %d", field, min, max)
	}
	return value, nil
}

// Timestamp parses an RFC3339 timestamp; empty input yields nil
func Timestamp(value, field string) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(value))
	if err != nil {
		e := apperror.Newf(apperror.CodeInvalidTimestamp, "%s must be a valid timestamp", field)
		e.Errors = []apperror.FieldError{{Field: field, Message: e.Message}}
		return nil, e
	}
	utc := parsed.UTC()
	return &utc, nil
}

// Metadata serialises value for a JSON column, falling back to an empty object
func Metadata(value any) (datatypes.JSON, error) {
	if value == nil {
		return datatypes.JSON(`{}`), nil
	}
	switch v := value.(type) {
	case datatypes.JSON:
		if len(v) == 0 {
			return datatypes.JSON(`{}`), nil
		}
		return v, nil
	case json.RawMessage:
		if len(v) == 0 {
			return datatypes.JSON(`{}`), nil
		}
		return datatypes.JSON(v), nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	if string(raw) == "null" {
		return datatypes.JSON(`{}`), nil
	}
	return datatypes.JSON(raw), nil
}

// Keys trims each value, drops blanks and duplicates, and keeps first-seen order
func Keys(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		k := strings.TrimSpace(v)
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// Lower trims and lower-cases value
func Lower(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
