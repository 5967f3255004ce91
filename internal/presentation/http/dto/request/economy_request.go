package request

// IdempotencyKeyBody is embedded by mutation requests that accept the key in the body
type IdempotencyKeyBody struct {
	IdempotencyKey string `json:"idempotency_key"`
}

// PurchaseRequest represents a revenue purchase
type PurchaseRequest struct {
	IdempotencyKeyBody
	Stream          string   `json:"stream" binding:"required"`
	SkuKey          string   `json:"sku_key" binding:"required"`
	Quantity        *int64   `json:"quantity"`
	Multiplier      *float64 `json:"multiplier"`
	DurationMinutes *int64   `json:"duration_minutes"`
	CharacterKeys   []string `json:"character_keys"`
	CoverageYear    *int64   `json:"coverage_year"`
	TicketTier      string   `json:"ticket_tier"`
}

// ActivateBoosterRequest selects a booster; empty means oldest first
type ActivateBoosterRequest struct {
	IdempotencyKeyBody
	EntitlementID string `json:"entitlement_id"`
}

// ClaimBonusRequest represents a first-time bonus claim
type ClaimBonusRequest struct {
	IdempotencyKeyBody
	BonusType string `json:"bonus_type" binding:"required"`
	GameID    string `json:"game_id"`
}

// ReferralBonusRequest rewards the caller for referring another user
type ReferralBonusRequest struct {
	IdempotencyKeyBody
	ReferredUserID string `json:"referred_user_id" binding:"required,uuid"`
}

// SendGiftRequest represents a currency gift
type SendGiftRequest struct {
	IdempotencyKeyBody
	RecipientID string `json:"recipient_id" binding:"required,uuid"`
	Currency    string `json:"currency" binding:"required"`
	Amount      int64  `json:"amount" binding:"required"`
	Message     string `json:"message" binding:"max=500"`
}

// AdminGrantRequest represents an operator-issued entitlement
type AdminGrantRequest struct {
	IdempotencyKeyBody
	UserID          string         `json:"user_id" binding:"required,uuid"`
	EntitlementType string         `json:"entitlement_type" binding:"required"`
	Quantity        int64          `json:"quantity"`
	ExpiresAt       string         `json:"expires_at"`
	Reason          string         `json:"reason"`
	Metadata        map[string]any `json:"metadata"`
}

// ProvisionProfileRequest creates the caller's economy profile
type ProvisionProfileRequest struct {
	Username string `json:"username" binding:"max=120"`
}
