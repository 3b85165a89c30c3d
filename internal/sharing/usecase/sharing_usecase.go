// Package usecase implements the sharing business logic: granting, revoking,
// and the access-control decision applied to every vault item operation.
package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/vaultcore/internal/audit/domain"
	audituc "github.com/allisson/vaultcore/internal/audit/usecase"
	"github.com/allisson/vaultcore/internal/database"
	apperrors "github.com/allisson/vaultcore/internal/errors"
	outboxDomain "github.com/allisson/vaultcore/internal/outbox/domain"
	sharingDomain "github.com/allisson/vaultcore/internal/sharing/domain"
	vaultDomain "github.com/allisson/vaultcore/internal/vault/domain"
)

// ShareGrantRepository defines share grant repository operations
type ShareGrantRepository interface {
	Create(ctx context.Context, grant *sharingDomain.ShareGrant) error
	Update(ctx context.Context, grant *sharingDomain.ShareGrant) error
	Get(ctx context.Context, id uuid.UUID) (*sharingDomain.ShareGrant, error)
	GetByItemAndGrantee(
		ctx context.Context,
		vaultItemID uuid.UUID,
		granteeUserID, granteeOrgID *uuid.UUID,
	) (*sharingDomain.ShareGrant, error)
	FindForAccess(
		ctx context.Context,
		vaultItemID uuid.UUID,
		userID uuid.UUID,
		orgID *uuid.UUID,
	) ([]*sharingDomain.ShareGrant, error)
	ListByVaultItem(ctx context.Context, vaultItemID uuid.UUID) ([]*sharingDomain.ShareGrant, error)
	ListForGrantee(ctx context.Context, userID uuid.UUID, orgID *uuid.UUID) ([]*sharingDomain.ShareGrant, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByVaultItems(ctx context.Context, vaultItemIDs []uuid.UUID) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}

// VaultItemGetter resolves vault items for ownership checks.
type VaultItemGetter interface {
	Get(ctx context.Context, id uuid.UUID) (*vaultDomain.VaultItem, error)
}

// UserExistenceChecker verifies share targets exist before a grant is created.
type UserExistenceChecker interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// OutboxEventRepository interface defines outbox event repository operations
type OutboxEventRepository interface {
	Create(ctx context.Context, event *outboxDomain.OutboxEvent) error
}

// ShareInput describes a grant request. Exactly one of GranteeUserID and
// GranteeOrgID must be set.
type ShareInput struct {
	VaultItemID   uuid.UUID
	ActorID       uuid.UUID
	ActorOrgID    *uuid.UUID
	GranteeUserID *uuid.UUID
	GranteeOrgID  *uuid.UUID
	Permission    sharingDomain.Permission
	ExpiresAt     *time.Time
	IPAddress     string
	UserAgent     string
}

// RevokeInput identifies the grant to remove.
type RevokeInput struct {
	VaultItemID   uuid.UUID
	ActorID       uuid.UUID
	GranteeUserID *uuid.UUID
	GranteeOrgID  *uuid.UUID
	IPAddress     string
	UserAgent     string
}

// UseCase defines the interface for sharing business logic operations
type UseCase interface {
	// Share grants access on a vault item. Sharing the same item with the
	// same grantee again replaces the previous grant. The actor must own the
	// item or hold an unexpired read_write grant on it.
	Share(ctx context.Context, input ShareInput) (*sharingDomain.ShareGrant, error)

	// Revoke removes a grant immediately. The actor must own the item or be
	// the grantor who created the grant.
	Revoke(ctx context.Context, input RevokeInput) error

	// CheckAccess decides whether the actor may perform an operation needing
	// the given permission on the item. The owner always passes; otherwise an
	// unexpired grant naming the actor or their organization must satisfy the
	// required permission.
	CheckAccess(
		ctx context.Context,
		item *vaultDomain.VaultItem,
		actorID uuid.UUID,
		actorOrgID *uuid.UUID,
		required sharingDomain.Permission,
	) (sharingDomain.Decision, error)

	// ListGrants lists the grants on an item. Owner only.
	ListGrants(ctx context.Context, vaultItemID, actorID uuid.UUID) ([]*sharingDomain.ShareGrant, error)

	// ListSharedWith lists the unexpired grants naming the actor or their
	// organization.
	ListSharedWith(ctx context.Context, actorID uuid.UUID, actorOrgID *uuid.UUID) ([]*sharingDomain.ShareGrant, error)

	// DeleteGrantsForPurge removes every grant on the given items plus every
	// grant granted by or to the user. GDPR purge only.
	DeleteGrantsForPurge(ctx context.Context, userID uuid.UUID, vaultItemIDs []uuid.UUID) error
}

// SharingUseCase handles sharing-related business logic
type SharingUseCase struct {
	txManager  database.TxManager
	grantRepo  ShareGrantRepository
	vaultItems VaultItemGetter
	users      UserExistenceChecker
	outboxRepo OutboxEventRepository
	audit      audituc.UseCase
}

// NewSharingUseCase creates a new SharingUseCase
func NewSharingUseCase(
	txManager database.TxManager,
	grantRepo ShareGrantRepository,
	vaultItems VaultItemGetter,
	users UserExistenceChecker,
	outboxRepo OutboxEventRepository,
	audit audituc.UseCase,
) *SharingUseCase {
	return &SharingUseCase{
		txManager:  txManager,
		grantRepo:  grantRepo,
		vaultItems: vaultItems,
		users:      users,
		outboxRepo: outboxRepo,
		audit:      audit,
	}
}

func validateShareInput(input ShareInput) error {
	if (input.GranteeUserID == nil) == (input.GranteeOrgID == nil) {
		return sharingDomain.ErrInvalidGrantee
	}
	if input.GranteeUserID != nil && *input.GranteeUserID == input.ActorID {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "cannot share an item with yourself")
	}
	if !input.Permission.Valid() {
		return sharingDomain.ErrInvalidPermission
	}
	if input.ExpiresAt != nil && !input.ExpiresAt.After(time.Now()) {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "expires_at must be in the future")
	}
	return nil
}

// Share grants or replaces access on a vault item.
func (uc *SharingUseCase) Share(ctx context.Context, input ShareInput) (*sharingDomain.ShareGrant, error) {
	grant, err := uc.share(ctx, input)

	uc.audit.Record(ctx, audituc.RecordInput{
		VaultItemID: &input.VaultItemID,
		ActorID:     input.ActorID,
		Action:      auditDomain.ActionShare,
		Success:     err == nil,
		IPAddress:   input.IPAddress,
		UserAgent:   input.UserAgent,
		ErrorDetail: errDetail(err),
	})

	return grant, err
}

func (uc *SharingUseCase) share(ctx context.Context, input ShareInput) (*sharingDomain.ShareGrant, error) {
	if err := validateShareInput(input); err != nil {
		return nil, err
	}

	item, err := uc.vaultItems.Get(ctx, input.VaultItemID)
	if err != nil {
		return nil, err
	}
	if item.IsDeleted() {
		return nil, vaultDomain.ErrVaultItemNotFound
	}
	if !item.IsOwner(input.ActorID) {
		decision, err := uc.CheckAccess(ctx, item, input.ActorID, input.ActorOrgID, sharingDomain.PermissionReadWrite)
		if err != nil {
			return nil, err
		}
		if !decision.Allowed {
			return nil, apperrors.Wrap(apperrors.ErrForbidden, "sharing requires ownership or a read_write grant")
		}
	}

	if input.GranteeUserID != nil {
		exists, err := uc.users.Exists(ctx, *input.GranteeUserID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, sharingDomain.ErrGranteeNotFound
		}
	}

	now := time.Now().UTC()
	var grant *sharingDomain.ShareGrant

	err = uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		existing, err := uc.grantRepo.GetByItemAndGrantee(ctx, input.VaultItemID, input.GranteeUserID, input.GranteeOrgID)
		switch {
		case err == nil:
			existing.Permission = input.Permission
			existing.ExpiresAt = input.ExpiresAt
			existing.UpdatedAt = now
			if err := uc.grantRepo.Update(ctx, existing); err != nil {
				return err
			}
			grant = existing
		case apperrors.Is(err, sharingDomain.ErrGrantNotFound):
			grant = &sharingDomain.ShareGrant{
				ID:            uuid.Must(uuid.NewV7()),
				VaultItemID:   input.VaultItemID,
				GrantorID:     input.ActorID,
				GranteeUserID: input.GranteeUserID,
				GranteeOrgID:  input.GranteeOrgID,
				Permission:    input.Permission,
				ExpiresAt:     input.ExpiresAt,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if err := uc.grantRepo.Create(ctx, grant); err != nil {
				return err
			}
		default:
			return err
		}

		return uc.createEvent(ctx, outboxDomain.EventTypeSecretShared, map[string]any{
			"vault_item_id": input.VaultItemID,
			"grantor_id":    input.ActorID,
			"grant_id":      grant.ID,
			"permission":    grant.Permission,
		})
	})
	if err != nil {
		return nil, err
	}

	return grant, nil
}

// Revoke removes a grant immediately.
func (uc *SharingUseCase) Revoke(ctx context.Context, input RevokeInput) error {
	err := uc.revoke(ctx, input)

	uc.audit.Record(ctx, audituc.RecordInput{
		VaultItemID: &input.VaultItemID,
		ActorID:     input.ActorID,
		Action:      auditDomain.ActionRevoke,
		Success:     err == nil,
		IPAddress:   input.IPAddress,
		UserAgent:   input.UserAgent,
		ErrorDetail: errDetail(err),
	})

	return err
}

func (uc *SharingUseCase) revoke(ctx context.Context, input RevokeInput) error {
	if (input.GranteeUserID == nil) == (input.GranteeOrgID == nil) {
		return sharingDomain.ErrInvalidGrantee
	}

	item, err := uc.vaultItems.Get(ctx, input.VaultItemID)
	if err != nil {
		return err
	}

	return uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		grant, err := uc.grantRepo.GetByItemAndGrantee(ctx, input.VaultItemID, input.GranteeUserID, input.GranteeOrgID)
		if err != nil {
			return err
		}
		if !item.IsOwner(input.ActorID) && grant.GrantorID != input.ActorID {
			return apperrors.Wrap(apperrors.ErrForbidden, "only the owner or the original grantor can revoke a grant")
		}
		if err := uc.grantRepo.Delete(ctx, grant.ID); err != nil {
			return err
		}

		return uc.createEvent(ctx, outboxDomain.EventTypeSecretRevoked, map[string]any{
			"vault_item_id": input.VaultItemID,
			"grantor_id":    input.ActorID,
			"grant_id":      grant.ID,
		})
	})
}

// CheckAccess applies the access-control decision for one operation: owner
// first, then unexpired grants. An expired grant reports "expired" so the
// denial is distinguishable in the audit trail; otherwise "no_grant".
func (uc *SharingUseCase) CheckAccess(
	ctx context.Context,
	item *vaultDomain.VaultItem,
	actorID uuid.UUID,
	actorOrgID *uuid.UUID,
	required sharingDomain.Permission,
) (sharingDomain.Decision, error) {
	if item.IsOwner(actorID) {
		return sharingDomain.Decision{Allowed: true, Permission: sharingDomain.PermissionReadWrite}, nil
	}

	grants, err := uc.grantRepo.FindForAccess(ctx, item.ID, actorID, actorOrgID)
	if err != nil {
		return sharingDomain.Decision{}, err
	}

	now := time.Now()
	sawExpired := false
	for _, grant := range grants {
		if grant.Expired(now) {
			sawExpired = true
			continue
		}
		if grant.Permission.Satisfies(required) {
			return sharingDomain.Decision{Allowed: true, Permission: grant.Permission}, nil
		}
	}

	if sawExpired {
		return sharingDomain.Decision{Reason: sharingDomain.DenyReasonExpired}, nil
	}
	return sharingDomain.Decision{Reason: sharingDomain.DenyReasonNoGrant}, nil
}

// ListGrants lists the grants on an item, owner only.
func (uc *SharingUseCase) ListGrants(
	ctx context.Context,
	vaultItemID, actorID uuid.UUID,
) ([]*sharingDomain.ShareGrant, error) {
	item, err := uc.vaultItems.Get(ctx, vaultItemID)
	if err != nil {
		return nil, err
	}
	if !item.IsOwner(actorID) {
		return nil, apperrors.Wrap(apperrors.ErrForbidden, "only the owner can list grants")
	}
	return uc.grantRepo.ListByVaultItem(ctx, vaultItemID)
}

// ListSharedWith lists grants naming the actor or their organization.
func (uc *SharingUseCase) ListSharedWith(
	ctx context.Context,
	actorID uuid.UUID,
	actorOrgID *uuid.UUID,
) ([]*sharingDomain.ShareGrant, error) {
	return uc.grantRepo.ListForGrantee(ctx, actorID, actorOrgID)
}

// DeleteGrantsForPurge removes grants during a user purge.
func (uc *SharingUseCase) DeleteGrantsForPurge(
	ctx context.Context,
	userID uuid.UUID,
	vaultItemIDs []uuid.UUID,
) error {
	if err := uc.grantRepo.DeleteByVaultItems(ctx, vaultItemIDs); err != nil {
		return err
	}
	return uc.grantRepo.DeleteByUser(ctx, userID)
}

func (uc *SharingUseCase) createEvent(ctx context.Context, eventType string, payload map[string]any) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal event payload")
	}

	event := &outboxDomain.OutboxEvent{
		ID:        uuid.Must(uuid.NewV7()),
		EventType: eventType,
		Payload:   string(payloadJSON),
		Status:    outboxDomain.OutboxEventStatusPending,
	}
	if err := uc.outboxRepo.Create(ctx, event); err != nil {
		return apperrors.Wrap(err, "failed to create outbox event")
	}
	return nil
}

func errDetail(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
