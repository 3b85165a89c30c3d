package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/vaultcore/internal/audit/domain"
	audituc "github.com/allisson/vaultcore/internal/audit/usecase"
	"github.com/allisson/vaultcore/internal/blockchain"
	cryptoDomain "github.com/allisson/vaultcore/internal/crypto/domain"
	cryptoService "github.com/allisson/vaultcore/internal/crypto/service"
	"github.com/allisson/vaultcore/internal/database"
	apperrors "github.com/allisson/vaultcore/internal/errors"
	outboxDomain "github.com/allisson/vaultcore/internal/outbox/domain"
	sharingDomain "github.com/allisson/vaultcore/internal/sharing/domain"
	vaultDomain "github.com/allisson/vaultcore/internal/vault/domain"
)

// OutboxEventRepository interface defines outbox event repository operations
type OutboxEventRepository interface {
	Create(ctx context.Context, event *outboxDomain.OutboxEvent) error
}

// RotationHistoryPurger removes rotation history during the GDPR purge.
type RotationHistoryPurger interface {
	DeleteByVaultItems(ctx context.Context, vaultItemIDs []uuid.UUID) error
}

// UserPurger hard-deletes a user row during the GDPR purge.
type UserPurger interface {
	Delete(ctx context.Context, id uuid.UUID) error
}

// VaultUseCase handles vault item business logic
type VaultUseCase struct {
	txManager    database.TxManager
	itemRepo     VaultItemRepository
	envelope     cryptoService.Envelope
	access       AccessChecker
	audit        audituc.UseCase
	outboxRepo   OutboxEventRepository
	rotationRepo RotationHistoryPurger
	userRepo     UserPurger
	anchor       *blockchain.Service
	logger       *slog.Logger
}

// NewVaultUseCase creates a new VaultUseCase
func NewVaultUseCase(
	txManager database.TxManager,
	itemRepo VaultItemRepository,
	envelope cryptoService.Envelope,
	access AccessChecker,
	audit audituc.UseCase,
	outboxRepo OutboxEventRepository,
	rotationRepo RotationHistoryPurger,
	userRepo UserPurger,
	anchor *blockchain.Service,
	logger *slog.Logger,
) *VaultUseCase {
	return &VaultUseCase{
		txManager:    txManager,
		itemRepo:     itemRepo,
		envelope:     envelope,
		access:       access,
		audit:        audit,
		outboxRepo:   outboxRepo,
		rotationRepo: rotationRepo,
		userRepo:     userRepo,
		anchor:       anchor,
		logger:       logger,
	}
}

func validateCreateInput(input CreateInput) error {
	if !input.SecretType.Valid() {
		return vaultDomain.ErrInvalidSecretType
	}
	if len(input.Value) == 0 {
		return vaultDomain.ErrEmptyValue
	}
	if input.ExpiresAt != nil && !input.ExpiresAt.After(time.Now()) {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "expires_at must be in the future")
	}
	if input.AutoRotateEnabled && input.RotateAfter <= 0 {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "rotate_after must be positive when auto rotation is enabled")
	}
	return nil
}

// Create encrypts the value under a fresh DEK and persists the item.
func (uc *VaultUseCase) Create(ctx context.Context, input CreateInput) (*vaultDomain.VaultItem, error) {
	item, err := uc.create(ctx, input)

	var itemID *uuid.UUID
	if item != nil {
		itemID = &item.ID
	}
	uc.audit.Record(ctx, audituc.RecordInput{
		VaultItemID: itemID,
		ActorID:     input.Actor.ID,
		Action:      auditDomain.ActionCreate,
		Success:     err == nil,
		IPAddress:   input.Actor.IPAddress,
		UserAgent:   input.Actor.UserAgent,
		ErrorDetail: errDetail(err),
	})

	return item, err
}

func (uc *VaultUseCase) create(ctx context.Context, input CreateInput) (*vaultDomain.VaultItem, error) {
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(input.Value)

	id := uuid.Must(uuid.NewV7())
	const initialVersion = 1

	ciphertext, nonce, dek, err := uc.envelope.Encrypt(input.Value, cryptoService.ItemAAD(id, initialVersion))
	if err != nil {
		return nil, err
	}

	hash, ref := uc.anchor.Anchor(ctx, id, initialVersion, ciphertext)

	now := time.Now().UTC()
	item := &vaultDomain.VaultItem{
		ID:                id,
		OwnerID:           input.Actor.ID,
		SecretType:        input.SecretType,
		Provider:          input.Provider,
		Ciphertext:        ciphertext,
		Nonce:             nonce,
		WrappedDek:        dek,
		Version:           initialVersion,
		Metadata:          input.Metadata,
		Tags:              input.Tags,
		ExpiresAt:         input.ExpiresAt,
		AutoRotateEnabled: input.AutoRotateEnabled,
		RotateAfter:       input.RotateAfter,
		LastRotatedAt:     now,
		BlockchainHash:    hash,
		AnchorRef:         ref,
		Status:            vaultDomain.StatusActive,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	err = uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := uc.itemRepo.Create(ctx, item); err != nil {
			return err
		}
		return uc.createEvent(ctx, outboxDomain.EventTypeSecretCreated, map[string]any{
			"vault_item_id": item.ID,
			"owner_id":      item.OwnerID,
			"secret_type":   item.SecretType,
		})
	})
	if err != nil {
		return nil, err
	}

	return item, nil
}

// Get retrieves an item, optionally decrypting the payload.
func (uc *VaultUseCase) Get(ctx context.Context, input GetInput) (*vaultDomain.VaultItem, error) {
	item, err := uc.get(ctx, input)

	uc.audit.Record(ctx, audituc.RecordInput{
		VaultItemID: &input.ID,
		ActorID:     input.Actor.ID,
		Action:      auditDomain.ActionGet,
		Success:     err == nil,
		IPAddress:   input.Actor.IPAddress,
		UserAgent:   input.Actor.UserAgent,
		ErrorDetail: errDetail(err),
	})

	return item, err
}

func (uc *VaultUseCase) get(ctx context.Context, input GetInput) (*vaultDomain.VaultItem, error) {
	item, err := uc.itemRepo.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if item.IsDeleted() {
		return nil, vaultDomain.ErrVaultItemNotFound
	}

	if err := uc.requireAccess(ctx, item, input.Actor, sharingDomain.PermissionRead); err != nil {
		return nil, err
	}

	if !input.Decrypt {
		return item, nil
	}

	result := uc.anchor.Verify(ctx, item.ID, item.Version, item.Ciphertext, item.BlockchainHash, item.AnchorRef)
	if result == blockchain.VerificationMismatch {
		// The AEAD tag below stays authoritative; a ledger mismatch is
		// surfaced for operators but does not withhold the item.
		if uc.logger != nil {
			uc.logger.Warn("anchored hash mismatch",
				slog.String("vault_item_id", item.ID.String()),
				slog.Uint64("version", uint64(item.Version)),
			)
		}
	}

	plaintext, err := uc.envelope.Decrypt(
		item.Ciphertext,
		item.Nonce,
		cryptoService.ItemAAD(item.ID, item.Version),
		&item.WrappedDek,
	)
	if err != nil {
		return nil, err
	}
	item.Plaintext = plaintext

	if err := uc.itemRepo.IncrementAccess(ctx, item.ID); err != nil {
		// access stats are best-effort
		if uc.logger != nil {
			uc.logger.Warn("failed to increment access count",
				slog.String("vault_item_id", item.ID.String()),
				slog.Any("error", err),
			)
		}
	}

	return item, nil
}

// List retrieves the actor's own items.
func (uc *VaultUseCase) List(
	ctx context.Context,
	actor Actor,
	filter vaultDomain.ListFilter,
	limit, offset int,
) ([]*vaultDomain.VaultItem, error) {
	items, err := uc.itemRepo.List(ctx, actor.ID, filter, limit, offset)

	uc.audit.Record(ctx, audituc.RecordInput{
		ActorID:     actor.ID,
		Action:      auditDomain.ActionList,
		Success:     err == nil,
		IPAddress:   actor.IPAddress,
		UserAgent:   actor.UserAgent,
		ErrorDetail: errDetail(err),
	})

	return items, err
}

// ListSharedWith retrieves the items shared with the actor.
func (uc *VaultUseCase) ListSharedWith(ctx context.Context, actor Actor) ([]*vaultDomain.VaultItem, error) {
	grants, err := uc.access.ListSharedWith(ctx, actor.ID, actor.OrgID)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(grants))
	for _, grant := range grants {
		ids = append(ids, grant.VaultItemID)
	}
	return uc.itemRepo.ListByIDs(ctx, ids)
}

// UpdateMetadata applies a patch to the non-cryptographic attributes.
func (uc *VaultUseCase) UpdateMetadata(ctx context.Context, input UpdateMetadataInput) (*vaultDomain.VaultItem, error) {
	item, err := uc.updateMetadata(ctx, input)

	uc.audit.Record(ctx, audituc.RecordInput{
		VaultItemID: &input.ID,
		ActorID:     input.Actor.ID,
		Action:      auditDomain.ActionUpdateMetadata,
		Success:     err == nil,
		IPAddress:   input.Actor.IPAddress,
		UserAgent:   input.Actor.UserAgent,
		ErrorDetail: errDetail(err),
	})

	return item, err
}

func (uc *VaultUseCase) updateMetadata(
	ctx context.Context,
	input UpdateMetadataInput,
) (*vaultDomain.VaultItem, error) {
	item, err := uc.itemRepo.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if item.IsDeleted() {
		return nil, vaultDomain.ErrVaultItemNotFound
	}

	if err := uc.requireAccess(ctx, item, input.Actor, sharingDomain.PermissionReadWrite); err != nil {
		return nil, err
	}

	applyPatch(item, input.Patch)
	item.UpdatedAt = time.Now().UTC()

	if err := uc.itemRepo.UpdateMetadata(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func applyPatch(item *vaultDomain.VaultItem, patch vaultDomain.MetadataPatch) {
	if patch.Provider != nil {
		item.Provider = *patch.Provider
	}
	if patch.Metadata != nil {
		item.Metadata = patch.Metadata
	}
	if patch.Tags != nil {
		item.Tags = patch.Tags
	}
	if patch.ExpiresAt != nil {
		item.ExpiresAt = patch.ExpiresAt
	}
	if patch.AutoRotateEnabled != nil {
		item.AutoRotateEnabled = *patch.AutoRotateEnabled
	}
	if patch.RotateAfter != nil {
		item.RotateAfter = *patch.RotateAfter
	}
}

// UpdateValue re-encrypts a new value and advances the version by one.
func (uc *VaultUseCase) UpdateValue(ctx context.Context, input UpdateValueInput) (*vaultDomain.VaultItem, error) {
	item, err := uc.updateValue(ctx, input)

	uc.audit.Record(ctx, audituc.RecordInput{
		VaultItemID: &input.ID,
		ActorID:     input.Actor.ID,
		Action:      auditDomain.ActionUpdateValue,
		Success:     err == nil,
		IPAddress:   input.Actor.IPAddress,
		UserAgent:   input.Actor.UserAgent,
		ErrorDetail: errDetail(err),
	})

	return item, err
}

func (uc *VaultUseCase) updateValue(ctx context.Context, input UpdateValueInput) (*vaultDomain.VaultItem, error) {
	if len(input.Value) == 0 {
		return nil, vaultDomain.ErrEmptyValue
	}
	defer cryptoDomain.Zero(input.Value)

	item, err := uc.itemRepo.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if item.IsDeleted() {
		return nil, vaultDomain.ErrVaultItemNotFound
	}

	if err := uc.requireAccess(ctx, item, input.Actor, sharingDomain.PermissionReadWrite); err != nil {
		return nil, err
	}

	observedVersion := item.Version
	newVersion := observedVersion + 1

	ciphertext, nonce, dek, err := uc.envelope.Encrypt(input.Value, cryptoService.ItemAAD(item.ID, newVersion))
	if err != nil {
		return nil, err
	}

	hash, ref := uc.anchor.Anchor(ctx, item.ID, newVersion, ciphertext)

	now := time.Now().UTC()
	item.Ciphertext = ciphertext
	item.Nonce = nonce
	item.WrappedDek = dek
	item.Version = newVersion
	item.BlockchainHash = hash
	item.AnchorRef = ref
	item.LastRotatedAt = now
	item.UpdatedAt = now

	if err := uc.itemRepo.UpdateValue(ctx, item, observedVersion); err != nil {
		return nil, err
	}
	return item, nil
}

// Delete soft-deletes an item. Only the owner may delete.
func (uc *VaultUseCase) Delete(ctx context.Context, input DeleteInput) error {
	err := uc.delete(ctx, input)

	uc.audit.Record(ctx, audituc.RecordInput{
		VaultItemID: &input.ID,
		ActorID:     input.Actor.ID,
		Action:      auditDomain.ActionDelete,
		Success:     err == nil,
		IPAddress:   input.Actor.IPAddress,
		UserAgent:   input.Actor.UserAgent,
		ErrorDetail: errDetail(err),
	})

	return err
}

func (uc *VaultUseCase) delete(ctx context.Context, input DeleteInput) error {
	item, err := uc.itemRepo.Get(ctx, input.ID)
	if err != nil {
		return err
	}
	if item.IsDeleted() {
		return vaultDomain.ErrVaultItemNotFound
	}
	if !item.IsOwner(input.Actor.ID) {
		return apperrors.Wrap(apperrors.ErrForbidden, "only the owner can delete an item")
	}

	return uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := uc.itemRepo.Delete(ctx, item.ID, item.Version); err != nil {
			return err
		}
		return uc.createEvent(ctx, outboxDomain.EventTypeSecretDeleted, map[string]any{
			"vault_item_id": item.ID,
			"owner_id":      item.OwnerID,
		})
	})
}

// PurgeUser hard-deletes a user and every record tied to them. This is the
// only path that removes rows instead of soft-deleting.
func (uc *VaultUseCase) PurgeUser(ctx context.Context, actor Actor, userID uuid.UUID) error {
	err := uc.purgeUser(ctx, userID)

	uc.audit.Record(ctx, audituc.RecordInput{
		ActorID:     actor.ID,
		Action:      auditDomain.ActionPurge,
		Success:     err == nil,
		IPAddress:   actor.IPAddress,
		UserAgent:   actor.UserAgent,
		ErrorDetail: errDetail(err),
	})

	return err
}

func (uc *VaultUseCase) purgeUser(ctx context.Context, userID uuid.UUID) error {
	return uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		itemIDs, err := uc.itemRepo.DeleteByOwner(ctx, userID)
		if err != nil {
			return err
		}
		if err := uc.access.DeleteGrantsForPurge(ctx, userID, itemIDs); err != nil {
			return err
		}
		if err := uc.rotationRepo.DeleteByVaultItems(ctx, itemIDs); err != nil {
			return err
		}
		if err := uc.audit.PurgeVaultItems(ctx, itemIDs); err != nil {
			return err
		}
		if err := uc.audit.PurgeActor(ctx, userID); err != nil {
			return err
		}
		if err := uc.userRepo.Delete(ctx, userID); err != nil {
			return err
		}
		return uc.createEvent(ctx, outboxDomain.EventTypeUserPurged, map[string]any{
			"user_id":     userID,
			"items_count": len(itemIDs),
		})
	})
}

func (uc *VaultUseCase) requireAccess(
	ctx context.Context,
	item *vaultDomain.VaultItem,
	actor Actor,
	required sharingDomain.Permission,
) error {
	decision, err := uc.access.CheckAccess(ctx, item, actor.ID, actor.OrgID, required)
	if err != nil {
		return err
	}
	if !decision.Allowed {
		return apperrors.Wrap(apperrors.ErrForbidden, decision.Reason)
	}
	return nil
}

func (uc *VaultUseCase) createEvent(ctx context.Context, eventType string, payload map[string]any) error {
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
