package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/economy-api/internal/config"
	"github.com/sangkips/economy-api/internal/domain/entity"
	"github.com/sangkips/economy-api/internal/domain/enum"
	"github.com/sangkips/economy-api/internal/domain/repository"
	"github.com/sangkips/economy-api/pkg/apperror"
	"github.com/sangkips/economy-api/pkg/normalize"
	"github.com/sangkips/economy-api/pkg/utils"
)

// GiftService moves soft currency between players
type GiftService struct {
	coordinator  *MutationCoordinator
	currency     *CurrencyLedger
	transferRepo repository.TransferRepository
	cfg          config.EconomyConfig
	now          func() time.Time
}

// NewGiftService creates a new gift service
func NewGiftService(
	coordinator *MutationCoordinator,
	currency *CurrencyLedger,
	transferRepo repository.TransferRepository,
	cfg config.EconomyConfig,
	now func() time.Time,
) *GiftService {
	if now == nil {
		now = utcNow
	}
	if cfg.MaxGiftAmount <= 0 {
		cfg.MaxGiftAmount = 100000
	}
	return &GiftService{
		coordinator:  coordinator,
		currency:     currency,
		transferRepo: transferRepo,
		cfg:          cfg,
		now:          now,
	}
}

// SendGiftInput represents the input for a currency gift
type SendGiftInput struct {
	RecipientID uuid.UUID
	Currency    string
	Amount      int64
	Message     string
}

// GiftResult is the stored response of a gift
type GiftResult struct {
	TransferID        string          `json:"transfer_id"`
	RecipientID       uuid.UUID       `json:"recipient_id"`
	Currency          string          `json:"currency"`
	Amount            int64           `json:"amount"`
	SenderBalances    entity.Balances `json:"sender_balances"`
	RecipientBalances entity.Balances `json:"recipient_balances"`
}

// Send transfers currency from the user in mc to the recipient
func (s *GiftService) Send(ctx context.Context, mc MutationContext, input *SendGiftInput) (*MutationResult, error) {
	if input.RecipientID == uuid.Nil || input.RecipientID == mc.UserID {
		return nil, apperror.New(apperror.CodeInvalidGift, "recipientId must be another user")
	}
	currency, ok := enum.ParseCurrency(input.Currency)
	if !ok {
		return nil, apperror.Newf(apperror.CodeInvalidCurrency, "unknown currency %q", input.Currency)
	}
	amount, err := normalize.PositiveInt(input.Amount, "amount", 1, s.cfg.MaxGiftAmount)
	if err != nil {
		return nil, err
	}
	message, err := normalize.OptionalString(&input.Message, "message", normalize.MaxMessageLength)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"senderId":    mc.UserID,
		"recipientId": input.RecipientID,
		"currency":    currency,
		"amount":      amount,
		"message":     message,
	}
	req := mc.request("gifting.currency.send", "currency_transfer", "gifting.currency.send", payload)
	recipient := input.RecipientID
	req.TargetUserID = &recipient

	return s.coordinator.Execute(ctx, req, func(ctx context.Context) (*MutationOutcome, error) {
		balances, err := s.currency.Transfer(ctx, mc.UserID, input.RecipientID, currency, amount)
		if err != nil {
			return nil, err
		}

		transfer := &entity.CurrencyTransfer{
			ID:             utils.NewID("gift"),
			SenderID:       mc.UserID,
			RecipientID:    input.RecipientID,
			Currency:       currency.String(),
			Amount:         amount,
			Message:        message,
			IdempotencyKey: optional(mc.IdempotencyKey, normalize.MaxIdempotencyKeyLength),
			CreatedAt:      s.now(),
		}
		if err := s.transferRepo.Create(ctx, transfer); err != nil {
			return nil, err
		}

		return &MutationOutcome{
			Body: &GiftResult{
				TransferID:        transfer.ID,
				RecipientID:       input.RecipientID,
				Currency:          transfer.Currency,
				Amount:            amount,
				SenderBalances:    balances.From,
				RecipientBalances: balances.To,
			},
			ResourceType: "currency_transfer",
			ResourceID:   transfer.ID,
		}, nil
	})
}

// History returns the most recent gifts sent or received by userID
func (s *GiftService) History(ctx context.Context, userID uuid.UUID, limit int) ([]entity.CurrencyTransfer, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	transfers, err := s.transferRepo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	if transfers == nil {
		transfers = []entity.CurrencyTransfer{}
	}
	return transfers, nil
}
