// Package usecase implements the audit trail business logic. Recording is
// fire-and-forget: a failed insert is logged and never fails the operation
// being audited.
package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/vaultcore/internal/audit/domain"
)

// AuditLogRepository defines audit log repository operations
type AuditLogRepository interface {
	Create(ctx context.Context, entry *auditDomain.AuditLog) error
	Query(ctx context.Context, filter auditDomain.QueryFilter, limit, offset int) ([]*auditDomain.AuditLog, error)
	DeleteByActor(ctx context.Context, actorID uuid.UUID) error
	DeleteByVaultItems(ctx context.Context, vaultItemIDs []uuid.UUID) error
}

// RecordInput describes one attempted operation to audit.
type RecordInput struct {
	VaultItemID *uuid.UUID
	ActorID     uuid.UUID
	Action      auditDomain.Action
	Success     bool
	IPAddress   string
	UserAgent   string
	ErrorDetail string
}

// UseCase defines the interface for audit business logic operations
type UseCase interface {
	// Record appends an entry. It never returns an error; persistence
	// failures are logged so the audited operation is unaffected.
	Record(ctx context.Context, input RecordInput)

	// Query retrieves entries matching the filter, newest first.
	Query(ctx context.Context, filter auditDomain.QueryFilter, limit, offset int) ([]*auditDomain.AuditLog, error)

	// PurgeActor removes all entries for the given actor. GDPR purge only.
	PurgeActor(ctx context.Context, actorID uuid.UUID) error

	// PurgeVaultItems removes all entries recorded against the given items,
	// regardless of who the actor was. GDPR purge only.
	PurgeVaultItems(ctx context.Context, vaultItemIDs []uuid.UUID) error
}

// AuditUseCase handles audit-related business logic
type AuditUseCase struct {
	auditRepo AuditLogRepository
	logger    *slog.Logger
}

// NewAuditUseCase creates a new AuditUseCase
func NewAuditUseCase(auditRepo AuditLogRepository, logger *slog.Logger) *AuditUseCase {
	return &AuditUseCase{
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// Record appends an audit entry, logging instead of failing on error.
func (uc *AuditUseCase) Record(ctx context.Context, input RecordInput) {
	entry := &auditDomain.AuditLog{
		ID:          uuid.Must(uuid.NewV7()),
		VaultItemID: input.VaultItemID,
		ActorID:     input.ActorID,
		Action:      input.Action,
		Success:     input.Success,
		IPAddress:   input.IPAddress,
		UserAgent:   input.UserAgent,
		ErrorDetail: input.ErrorDetail,
		CreatedAt:   time.Now().UTC(),
	}

	if err := uc.auditRepo.Create(ctx, entry); err != nil {
		if uc.logger != nil {
			uc.logger.Error("failed to record audit entry",
				slog.String("action", string(input.Action)),
				slog.String("actor_id", input.ActorID.String()),
				slog.Any("error", err),
			)
		}
	}
}

// Query retrieves audit entries matching the filter.
func (uc *AuditUseCase) Query(
	ctx context.Context,
	filter auditDomain.QueryFilter,
	limit, offset int,
) ([]*auditDomain.AuditLog, error) {
	return uc.auditRepo.Query(ctx, filter, limit, offset)
}

// PurgeActor removes all audit entries recorded for the actor.
func (uc *AuditUseCase) PurgeActor(ctx context.Context, actorID uuid.UUID) error {
	return uc.auditRepo.DeleteByActor(ctx, actorID)
}

// PurgeVaultItems removes all audit entries recorded against the items,
// including those other actors wrote.
func (uc *AuditUseCase) PurgeVaultItems(ctx context.Context, vaultItemIDs []uuid.UUID) error {
	return uc.auditRepo.DeleteByVaultItems(ctx, vaultItemIDs)
}
