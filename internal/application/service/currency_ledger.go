package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/economy-api/internal/domain/entity"
	"github.com/sangkips/economy-api/internal/domain/enum"
	"github.com/sangkips/economy-api/internal/domain/repository"
	"github.com/sangkips/economy-api/pkg/apperror"
)

// Delta is a signed change to each balance
type Delta struct {
	HorrorCoins int64 `json:"horror_coins"`
	Souls       int64 `json:"souls"`
	BloodGems   int64 `json:"blood_gems"`
}

// DeltaFor builds a delta touching a single currency
func DeltaFor(currency enum.Currency, amount int64) Delta {
	switch currency {
	case enum.CurrencyHorrorCoins:
		return Delta{HorrorCoins: amount}
	case enum.CurrencySouls:
		return Delta{Souls: amount}
	case enum.CurrencyBloodGems:
		return Delta{BloodGems: amount}
	}
	return Delta{}
}

func (d Delta) negate() Delta {
	return Delta{HorrorCoins: -d.HorrorCoins, Souls: -d.Souls, BloodGems: -d.BloodGems}
}

func (d Delta) applyTo(b entity.Balances) entity.Balances {
	return entity.Balances{
		HorrorCoins: b.HorrorCoins + d.HorrorCoins,
		Souls:       b.Souls + d.Souls,
		BloodGems:   b.BloodGems + d.BloodGems,
	}
}

func negative(b entity.Balances) bool {
	return b.HorrorCoins < 0 || b.Souls < 0 || b.BloodGems < 0
}

// CurrencyLedger mutates balances under a row lock. Callers run it inside a transaction.
type CurrencyLedger struct {
	userRepo repository.UserRepository
	now      func() time.Time
}

// NewCurrencyLedger creates a new currency ledger
func NewCurrencyLedger(userRepo repository.UserRepository, now func() time.Time) *CurrencyLedger {
	if now == nil {
		now = utcNow
	}
	return &CurrencyLedger{userRepo: userRepo, now: now}
}

// CreditOrDebit locks the user row, applies delta to all balances and writes them back.
// A result below zero in any currency aborts with INSUFFICIENT_BALANCE.
func (l *CurrencyLedger) CreditOrDebit(ctx context.Context, userID uuid.UUID, delta Delta) (entity.Balances, error) {
	user, err := l.userRepo.GetForUpdate(ctx, userID)
	if err != nil {
		return entity.Balances{}, err
	}
	if user == nil {
		return entity.Balances{}, apperror.New(apperror.CodeUserNotFound, "User not found")
	}

	next := delta.applyTo(user.Balances())
	if negative(next) {
		return entity.Balances{}, apperror.New(apperror.CodeInsufficientBalance, "Insufficient balance")
	}
	if err := l.userRepo.UpdateBalances(ctx, userID, next, l.now()); err != nil {
		return entity.Balances{}, err
	}
	return next, nil
}

// TransferResult carries both balances after a transfer
type TransferResult struct {
	From entity.Balances
	To   entity.Balances
}

// Transfer moves amount of currency between two users. Both rows are locked in
// ascending id order so opposite transfers cannot deadlock.
func (l *CurrencyLedger) Transfer(ctx context.Context, from, to uuid.UUID, currency enum.Currency, amount int64) (*TransferResult, error) {
	if from == to {
		return nil, apperror.New(apperror.CodeInvalidGift, "Cannot transfer to the same user")
	}
	if amount < 1 {
		return nil, apperror.New(apperror.CodeInvalidAmount, "amount must be >= 1")
	}
	if _, ok := enum.ParseCurrency(string(currency)); !ok {
		return nil, apperror.Newf(apperror.CodeInvalidCurrency, "unknown currency %q", currency)
	}

	users, err := l.userRepo.GetManyForUpdate(ctx, []uuid.UUID{from, to})
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*entity.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}
	sender, recipient := byID[from], byID[to]
	if sender == nil || recipient == nil {
		return nil, apperror.New(apperror.CodeUserNotFound, "User not found")
	}

	delta := DeltaFor(currency, amount)
	fromBalances := delta.negate().applyTo(sender.Balances())
	if negative(fromBalances) {
		return nil, apperror.New(apperror.CodeInsufficientBalance, "Insufficient balance")
	}
	toBalances := delta.applyTo(recipient.Balances())

	now := l.now()
	if err := l.userRepo.UpdateBalances(ctx, from, fromBalances, now); err != nil {
		return nil, fmt.Errorf("debit sender: %w", err)
	}
	if err := l.userRepo.UpdateBalances(ctx, to, toBalances, now); err != nil {
		return nil, fmt.Errorf("credit recipient: %w", err)
	}
	return &TransferResult{From: fromBalances, To: toBalances}, nil
}

// Balances reads a user's holdings without locking
func (l *CurrencyLedger) Balances(ctx context.Context, userID uuid.UUID) (entity.Balances, error) {
	user, err := l.userRepo.GetByID(ctx, userID)
	if err != nil {
		return entity.Balances{}, err
	}
	if user == nil {
		return entity.Balances{}, apperror.New(apperror.CodeUserNotFound, "User not found")
	}
	return user.Balances(), nil
}
