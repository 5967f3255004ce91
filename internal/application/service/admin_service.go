package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/economy-api/internal/domain/entity"
	"github.com/sangkips/economy-api/internal/domain/repository"
	"github.com/sangkips/economy-api/pkg/apperror"
	"github.com/sangkips/economy-api/pkg/normalize"
	"github.com/sangkips/economy-api/pkg/pagination"
)

// AdminService exposes operator actions: manual grants and forensic reads
type AdminService struct {
	coordinator  *MutationCoordinator
	entitlements *EntitlementLedger
	audit        *AuditLogger
	userRepo     repository.UserRepository
}

// NewAdminService creates a new admin service
func NewAdminService(
	coordinator *MutationCoordinator,
	entitlements *EntitlementLedger,
	audit *AuditLogger,
	userRepo repository.UserRepository,
) *AdminService {
	return &AdminService{
		coordinator:  coordinator,
		entitlements: entitlements,
		audit:        audit,
		userRepo:     userRepo,
	}
}

// AdminGrantInput represents an operator-issued entitlement
type AdminGrantInput struct {
	TargetUserID    uuid.UUID
	EntitlementType string
	Quantity        int64
	ExpiresAt       string
	Reason          string
	Metadata        map[string]any
}

// GrantEntitlement issues an entitlement to another user on behalf of the operator in mc
func (s *AdminService) GrantEntitlement(ctx context.Context, mc MutationContext, input *AdminGrantInput) (*MutationResult, error) {
	if input.TargetUserID == uuid.Nil {
		return nil, apperror.New(apperror.CodeUserNotFound, "userId is required")
	}
	entitlementType, err := normalize.RequiredString(input.EntitlementType, "entitlementType", normalize.MaxTypeLength)
	if err != nil {
		return nil, err
	}
	quantity := input.Quantity
	if quantity == 0 {
		quantity = 1
	}
	quantity, err = normalize.PositiveInt(quantity, "quantity", 1, 1_000_000)
	if err != nil {
		return nil, err
	}
	expiresAt, err := normalize.Timestamp(input.ExpiresAt, "expiresAt")
	if err != nil {
		return nil, err
	}
	reason := input.Reason
	if reason == "" {
		reason = "admin_grant"
	}

	payload := map[string]any{
		"userId":          input.TargetUserID,
		"entitlementType": entitlementType,
		"quantity":        quantity,
		"expiresAt":       expiresAt,
		"reason":          reason,
		"metadata":        input.Metadata,
	}
	req := mc.request("admin.entitlement.grant", "entitlement", "admin.entitlement.grant", payload)
	target := input.TargetUserID
	req.TargetUserID = &target

	return s.coordinator.Execute(ctx, req, func(ctx context.Context) (*MutationOutcome, error) {
		exists, err := s.userRepo.Exists(ctx, input.TargetUserID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, apperror.New(apperror.CodeUserNotFound, "User not found")
		}

		entitlement, err := s.entitlements.Grant(ctx, &GrantInput{
			UserID:          input.TargetUserID,
			EntitlementType: entitlementType,
			Quantity:        quantity,
			GrantedReason:   reason,
			ExpiresAt:       expiresAt,
			Metadata:        input.Metadata,
		})
		if err != nil {
			return nil, err
		}

		return &MutationOutcome{
			Body:         entitlement,
			ResourceType: "entitlement",
			ResourceID:   entitlement.ID,
		}, nil
	})
}

// InspectIdempotency returns the stored record for a key
func (s *AdminService) InspectIdempotency(ctx context.Context, scope, key string) (*entity.IdempotencyRecord, error) {
	record, err := s.coordinator.Inspect(ctx, scope, key)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, apperror.NewNotFoundError("Idempotency record")
	}
	return record, nil
}

// ListAudit returns audit events matching filter, newest first
func (s *AdminService) ListAudit(ctx context.Context, filter *repository.AuditFilterParams) (*pagination.PaginatedResult[entity.AuditEvent], error) {
	return s.audit.List(ctx, filter)
}

// ListEntitlements returns a page of any user's entitlements
func (s *AdminService) ListEntitlements(ctx context.Context, userID uuid.UUID, filter *repository.EntitlementFilterParams) (*pagination.PaginatedResult[entity.Entitlement], error) {
	return s.entitlements.ListByUser(ctx, userID, filter)
}
