package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/economy-api/internal/domain/entity"
	"github.com/sangkips/economy-api/internal/domain/enum"
	"github.com/sangkips/economy-api/internal/domain/repository"
	"github.com/sangkips/economy-api/pkg/normalize"
	"github.com/sangkips/economy-api/pkg/pagination"
	"github.com/sangkips/economy-api/pkg/utils"
)

// AuditLogger appends economy events to the audit log
type AuditLogger struct {
	auditRepo repository.AuditRepository
	now       func() time.Time
	logger    *slog.Logger
}

// NewAuditLogger creates a new audit logger
func NewAuditLogger(auditRepo repository.AuditRepository, now func() time.Time, logger *slog.Logger) *AuditLogger {
	if now == nil {
		now = utcNow
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		auditRepo: auditRepo,
		now:       now,
		logger:    logger,
	}
}

// AuditEntry describes one event to append
type AuditEntry struct {
	ActorUserID    *uuid.UUID
	TargetUserID   *uuid.UUID
	EntityType     string
	EntityID       string
	EventType      string
	Severity       enum.Severity
	Message        string
	RequestID      string
	IdempotencyKey string
	Metadata       any
}

// Append inserts entry. With a transaction in ctx the row commits or rolls back with it.
func (l *AuditLogger) Append(ctx context.Context, entry AuditEntry) (*entity.AuditEvent, error) {
	event, err := l.build(entry)
	if err != nil {
		return nil, err
	}
	if err := l.auditRepo.Create(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// AppendBestEffort is Append for failure paths: errors are logged and dropped
func (l *AuditLogger) AppendBestEffort(ctx context.Context, entry AuditEntry) {
	if _, err := l.Append(ctx, entry); err != nil {
		l.logger.ErrorContext(ctx, "audit append failed",
			"event_type", entry.EventType,
			"idempotency_key", entry.IdempotencyKey,
			"error", err,
		)
	}
}

// List returns audit events for forensic reads, newest first
func (l *AuditLogger) List(ctx context.Context, filter *repository.AuditFilterParams) (*pagination.PaginatedResult[entity.AuditEvent], error) {
	if filter == nil {
		filter = &repository.AuditFilterParams{}
	}
	if filter.Pagination == nil {
		filter.Pagination = pagination.DefaultPagination()
	}
	filter.Pagination.Validate()

	events, total, err := l.auditRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return pagination.NewPaginatedResult(events, filter.Pagination, total), nil
}

func (l *AuditLogger) build(entry AuditEntry) (*entity.AuditEvent, error) {
	entityType, err := normalize.RequiredString(entry.EntityType, "entityType", normalize.MaxTypeLength)
	if err != nil {
		return nil, err
	}
	eventType, err := normalize.RequiredString(entry.EventType, "eventType", normalize.MaxTypeLength)
	if err != nil {
		return nil, err
	}
	metadata, err := normalize.Metadata(entry.Metadata)
	if err != nil {
		return nil, err
	}

	severity := entry.Severity
	if severity == "" {
		severity = enum.SeverityInfo
	}

	return &entity.AuditEvent{
		ID:             utils.NewID("audit"),
		ActorUserID:    entry.ActorUserID,
		TargetUserID:   entry.TargetUserID,
		EntityType:     entityType,
		EntityID:       optional(entry.EntityID, normalize.MaxIdempotencyKeyLength),
		EventType:      eventType,
		Severity:       string(severity),
		Message:        optional(entry.Message, normalize.MaxMessageLength),
		RequestID:      optional(entry.RequestID, normalize.MaxIDLength),
		IdempotencyKey: optional(entry.IdempotencyKey, normalize.MaxIdempotencyKeyLength),
		Metadata:       metadata,
		CreatedAt:      l.now(),
	}, nil
}

// optional maps blank to nil and truncates to maxLen runes
func optional(value string, maxLen int) *string {
	if value == "" {
		return nil
	}
	runes := []rune(value)
	if len(runes) > maxLen {
		value = string(runes[:maxLen])
	}
	return &value
}

func utcNow() time.Time {
	return time.Now().UTC()
}
