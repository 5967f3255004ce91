package apperror

import "net/http"

// Code is a stable, client-visible error identifier
type Code string

const (
	CodeBadRequest       Code = "BAD_REQUEST"
	CodeValidationFailed Code = "VALIDATION_FAILED"
	CodeUnauthorized     Code = "UNAUTHORIZED"
	CodeForbidden        Code = "FORBIDDEN"
	CodeNotFound         Code = "NOT_FOUND"
	CodeConflict         Code = "CONFLICT"
	CodeRateLimited      Code = "RATE_LIMITED"
	CodeInternal         Code = "INTERNAL_ERROR"
	CodePgRequired       Code = "PG_REQUIRED"
	CodeBodyTooLarge     Code = "BODY_TOO_LARGE"

	// Idempotency
	CodeIdempotencyKeyRequired     Code = "IDEMPOTENCY_KEY_REQUIRED"
	CodeIdempotencyPayloadMismatch Code = "IDEMPOTENCY_PAYLOAD_MISMATCH"
	CodeIdempotencyInProgress      Code = "IDEMPOTENCY_IN_PROGRESS"
	CodeIdempotencyRetryExhausted  Code = "IDEMPOTENCY_RETRY_EXHAUSTED"
	CodeIdempotencyRetryThrottled  Code = "IDEMPOTENCY_RETRY_THROTTLED"
	CodeIdempotencyLeaseLost       Code = "IDEMPOTENCY_LEASE_LOST"

	// Input validation
	CodeInvalidScope           Code = "INVALID_SCOPE"
	CodeInvalidIdempotencyKey  Code = "INVALID_IDEMPOTENCY_KEY"
	CodeInvalidStream          Code = "INVALID_STREAM"
	CodeInvalidSku             Code = "INVALID_SKU"
	CodeInvalidQuantity        Code = "INVALID_QUANTITY"
	CodeInvalidAmount          Code = "INVALID_AMOUNT"
	CodeInvalidCurrency        Code = "INVALID_CURRENCY"
	CodeInvalidCoverageYear    Code = "INVALID_COVERAGEYEAR"
	CodeInvalidMultiplier      Code = "INVALID_MULTIPLIER"
	CodeInvalidDuration        Code = "INVALID_DURATIONMINUTES"
	CodeInvalidTournamentID    Code = "INVALID_TOURNAMENTID"
	CodeInvalidEntitlementID   Code = "INVALID_ENTITLEMENTID"
	CodeInvalidEntitlementType Code = "INVALID_ENTITLEMENTTYPE"
	CodeInvalidTimestamp       Code = "INVALID_TIMESTAMP"
	CodeInvalidBonusType       Code = "INVALID_BONUS_TYPE"
	CodeInvalidReferral        Code = "INVALID_REFERRAL"
	CodeInvalidGift            Code = "INVALID_GIFT"
	CodeCharacterKeysRequired  Code = "CHARACTER_KEYS_REQUIRED"

	// Domain
	CodeUserNotFound                 Code = "USER_NOT_FOUND"
	CodeSkuNotFound                  Code = "SKU_NOT_FOUND"
	CodeEntitlementNotFound          Code = "ENTITLEMENT_NOT_FOUND"
	CodeEntitlementNotActive         Code = "ENTITLEMENT_NOT_ACTIVE"
	CodeEntitlementAlreadyConsumed   Code = "ENTITLEMENT_ALREADY_CONSUMED"
	CodeTournamentTicketRequired     Code = "TOURNAMENT_TICKET_REQUIRED"
	CodeTournamentAlreadyEntered     Code = "TOURNAMENT_ALREADY_ENTERED"
	CodeBoosterActiveCapReached      Code = "BOOSTER_ACTIVE_CAP_REACHED"
	CodeBoosterStackCapExceeded      Code = "BOOSTER_STACK_CAP_EXCEEDED"
	CodeNoXpBoosterAvailable         Code = "NO_XP_BOOSTER_AVAILABLE"
	CodeCharacterPackMetadataInvalid Code = "CHARACTER_PACK_METADATA_INVALID"
	CodeFounderAlreadyOwned          Code = "FOUNDER_ALREADY_OWNED"
	CodeBonusAlreadyClaimed          Code = "BONUS_ALREADY_CLAIMED"
	CodeReferralAlreadyRewarded      Code = "REFERRAL_ALREADY_REWARDED"
	CodeInsufficientBalance          Code = "INSUFFICIENT_BALANCE"
	CodeRevenuePurchaseRateLimited   Code = "REVENUE_PURCHASE_RATE_LIMITED"
	CodeReferralDailyCapReached      Code = "REFERRAL_DAILY_CAP_REACHED"
)

var statusByCode = map[Code]int{
	CodeBadRequest:       http.StatusBadRequest,
	CodeValidationFailed: http.StatusUnprocessableEntity,
	CodeUnauthorized:     http.StatusUnauthorized,
	CodeForbidden:        http.StatusForbidden,
	CodeNotFound:         http.StatusNotFound,
	CodeConflict:         http.StatusConflict,
	CodeRateLimited:      http.StatusTooManyRequests,
	CodeInternal:         http.StatusInternalServerError,
	CodePgRequired:       http.StatusServiceUnavailable,
	CodeBodyTooLarge:     http.StatusRequestEntityTooLarge,

	CodeIdempotencyKeyRequired:     http.StatusBadRequest,
	CodeIdempotencyPayloadMismatch: http.StatusConflict,
	CodeIdempotencyInProgress:      http.StatusConflict,
	CodeIdempotencyRetryExhausted:  http.StatusConflict,
	CodeIdempotencyRetryThrottled:  http.StatusTooManyRequests,
	CodeIdempotencyLeaseLost:       http.StatusInternalServerError,

	CodeInvalidScope:           http.StatusBadRequest,
	CodeInvalidIdempotencyKey:  http.StatusBadRequest,
	CodeInvalidStream:          http.StatusBadRequest,
	CodeInvalidSku:             http.StatusBadRequest,
	CodeInvalidQuantity:        http.StatusBadRequest,
	CodeInvalidAmount:          http.StatusBadRequest,
	CodeInvalidCurrency:        http.StatusBadRequest,
	CodeInvalidCoverageYear:    http.StatusBadRequest,
	CodeInvalidMultiplier:      http.StatusBadRequest,
	CodeInvalidDuration:        http.StatusBadRequest,
	CodeInvalidTournamentID:    http.StatusBadRequest,
	CodeInvalidEntitlementID:   http.StatusBadRequest,
	CodeInvalidEntitlementType: http.StatusBadRequest,
	CodeInvalidTimestamp:       http.StatusBadRequest,
	CodeInvalidBonusType:       http.StatusBadRequest,
	CodeInvalidReferral:        http.StatusBadRequest,
	CodeInvalidGift:            http.StatusBadRequest,
	CodeCharacterKeysRequired:  http.StatusBadRequest,

	CodeUserNotFound:                 http.StatusNotFound,
	CodeSkuNotFound:                  http.StatusNotFound,
	CodeEntitlementNotFound:          http.StatusNotFound,
	CodeEntitlementNotActive:         http.StatusConflict,
	CodeEntitlementAlreadyConsumed:   http.StatusConflict,
	CodeTournamentTicketRequired:     http.StatusConflict,
	CodeTournamentAlreadyEntered:     http.StatusConflict,
	CodeBoosterActiveCapReached:      http.StatusConflict,
	CodeBoosterStackCapExceeded:      http.StatusConflict,
	CodeNoXpBoosterAvailable:         http.StatusConflict,
	CodeCharacterPackMetadataInvalid: http.StatusConflict,
	CodeFounderAlreadyOwned:          http.StatusConflict,
	CodeBonusAlreadyClaimed:          http.StatusConflict,
	CodeReferralAlreadyRewarded:      http.StatusConflict,
	CodeInsufficientBalance:          http.StatusConflict,
	CodeRevenuePurchaseRateLimited:   http.StatusTooManyRequests,
	CodeReferralDailyCapReached:      http.StatusTooManyRequests,
}

// StatusFor returns the HTTP status registered for code. Unknown codes are client errors.
func StatusFor(code Code) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusBadRequest
}

// Retryable reports whether a client may retry the same idempotency key after this error.
// A payload mismatch or exhausted retry budget burns the key.
func Retryable(code Code) bool {
	switch code {
	case CodeIdempotencyPayloadMismatch, CodeIdempotencyRetryExhausted:
		return false
	}
	return true
}
