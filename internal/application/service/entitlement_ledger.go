package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/economy-api/internal/domain/entity"
	"github.com/sangkips/economy-api/internal/domain/enum"
	"github.com/sangkips/economy-api/internal/domain/repository"
	"github.com/sangkips/economy-api/pkg/apperror"
	"github.com/sangkips/economy-api/pkg/normalize"
	"github.com/sangkips/economy-api/pkg/pagination"
	"github.com/sangkips/economy-api/pkg/utils"
)

// EntitlementLedger grants and consumes entitlement units
type EntitlementLedger struct {
	entitlementRepo repository.EntitlementRepository
	now             func() time.Time
}

// NewEntitlementLedger creates a new entitlement ledger
func NewEntitlementLedger(entitlementRepo repository.EntitlementRepository, now func() time.Time) *EntitlementLedger {
	if now == nil {
		now = utcNow
	}
	return &EntitlementLedger{
		entitlementRepo: entitlementRepo,
		now:             now,
	}
}

// GrantInput represents the input for granting an entitlement
type GrantInput struct {
	UserID           uuid.UUID
	EntitlementType  string
	Quantity         int64
	SkuID            *string
	GrantedByOrderID *string
	GrantedReason    string
	ExpiresAt        *time.Time
	Metadata         any
}

// Grant inserts a new active entitlement with nothing consumed
func (l *EntitlementLedger) Grant(ctx context.Context, input *GrantInput) (*entity.Entitlement, error) {
	entitlementType, err := normalize.RequiredString(input.EntitlementType, "entitlementType", normalize.MaxTypeLength)
	if err != nil {
		return nil, err
	}
	quantity, err := normalize.PositiveInt(input.Quantity, "quantity", 1, 1_000_000)
	if err != nil {
		return nil, err
	}
	metadata, err := normalize.Metadata(input.Metadata)
	if err != nil {
		return nil, err
	}

	now := l.now()
	if input.ExpiresAt != nil && !input.ExpiresAt.After(now) {
		return nil, apperror.New(apperror.CodeInvalidTimestamp, "expiresAt must be in the future")
	}

	entitlement := &entity.Entitlement{
		ID:               utils.NewID("ent"),
		UserID:           input.UserID,
		EntitlementType:  entitlementType,
		Status:           enum.EntitlementStatusActive,
		Quantity:         quantity,
		ConsumedQuantity: 0,
		SkuID:            input.SkuID,
		GrantedByOrderID: input.GrantedByOrderID,
		GrantedReason:    input.GrantedReason,
		StartsAt:         now,
		ExpiresAt:        input.ExpiresAt,
		Metadata:         metadata,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := l.entitlementRepo.Create(ctx, entitlement); err != nil {
		return nil, err
	}
	return entitlement, nil
}

// ConsumeQuantity consumes n units with a single conditional update. When the update
// matches nothing, a follow-up read picks the error to report.
func (l *EntitlementLedger) ConsumeQuantity(ctx context.Context, entitlementID string, n int64) (*entity.Entitlement, error) {
	if n < 1 {
		return nil, apperror.New(apperror.CodeInvalidQuantity, "quantity must be >= 1")
	}
	now := l.now()

	updated, err := l.entitlementRepo.ConsumeQuantity(ctx, entitlementID, n, now)
	if err != nil {
		return nil, err
	}
	if updated != nil {
		return updated, nil
	}

	current, err := l.entitlementRepo.GetByID(ctx, entitlementID)
	if err != nil {
		return nil, err
	}
	switch {
	case current == nil:
		return nil, apperror.New(apperror.CodeEntitlementNotFound, "Entitlement not found")
	case !current.IsActiveAt(now):
		return nil, apperror.New(apperror.CodeEntitlementNotActive, "Entitlement is not active")
	default:
		return nil, apperror.New(apperror.CodeEntitlementAlreadyConsumed, "Entitlement has no remaining quantity")
	}
}

// GetActiveByType returns the oldest usable entitlement of a type, nil if none
func (l *EntitlementLedger) GetActiveByType(ctx context.Context, userID uuid.UUID, entitlementType string) (*entity.Entitlement, error) {
	return l.entitlementRepo.GetActiveByType(ctx, userID, entitlementType, l.now())
}

// ConsumptionInput represents one consumption audit row
type ConsumptionInput struct {
	EntitlementID  string
	UserID         uuid.UUID
	Quantity       int64
	IdempotencyKey string
	Metadata       any
}

// RecordConsumption writes the entitlement_consumptions row for a consumption
func (l *EntitlementLedger) RecordConsumption(ctx context.Context, input *ConsumptionInput) (*entity.EntitlementConsumption, error) {
	metadata, err := normalize.Metadata(input.Metadata)
	if err != nil {
		return nil, err
	}
	quantity := input.Quantity
	if quantity < 1 {
		quantity = 1
	}

	consumption := &entity.EntitlementConsumption{
		ID:             utils.NewID("ent_consume"),
		EntitlementID:  input.EntitlementID,
		UserID:         input.UserID,
		Quantity:       quantity,
		IdempotencyKey: optional(input.IdempotencyKey, normalize.MaxIdempotencyKeyLength),
		Metadata:       metadata,
		CreatedAt:      l.now(),
	}
	if err := l.entitlementRepo.CreateConsumption(ctx, consumption); err != nil {
		return nil, err
	}
	return consumption, nil
}

// Get returns an entitlement by id
func (l *EntitlementLedger) Get(ctx context.Context, entitlementID string) (*entity.Entitlement, error) {
	entitlement, err := l.entitlementRepo.GetByID(ctx, entitlementID)
	if err != nil {
		return nil, err
	}
	if entitlement == nil {
		return nil, apperror.New(apperror.CodeEntitlementNotFound, "Entitlement not found")
	}
	return entitlement, nil
}

// ListByUser returns a page of a user's entitlements
func (l *EntitlementLedger) ListByUser(ctx context.Context, userID uuid.UUID, params *repository.EntitlementFilterParams) (*pagination.PaginatedResult[entity.Entitlement], error) {
	if params == nil {
		params = &repository.EntitlementFilterParams{}
	}
	if params.Pagination == nil {
		params.Pagination = pagination.DefaultPagination()
	}
	params.Pagination.Validate()

	entitlements, total, err := l.entitlementRepo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, err
	}
	return pagination.NewPaginatedResult(entitlements, params.Pagination, total), nil
}
