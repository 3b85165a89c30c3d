// Package usecase implements secret rotation: manual rotation, the scheduled
// sweep over items whose rotation interval elapsed, and the DEK rewrap sweep
// that follows a KEK rotation.
package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	auditDomain "github.com/allisson/vaultcore/internal/audit/domain"
	audituc "github.com/allisson/vaultcore/internal/audit/usecase"
	"github.com/allisson/vaultcore/internal/blockchain"
	cryptoDomain "github.com/allisson/vaultcore/internal/crypto/domain"
	cryptoService "github.com/allisson/vaultcore/internal/crypto/service"
	"github.com/allisson/vaultcore/internal/database"
	apperrors "github.com/allisson/vaultcore/internal/errors"
	outboxDomain "github.com/allisson/vaultcore/internal/outbox/domain"
	rotationDomain "github.com/allisson/vaultcore/internal/rotation/domain"
	sharingDomain "github.com/allisson/vaultcore/internal/sharing/domain"
	vaultDomain "github.com/allisson/vaultcore/internal/vault/domain"
)

// Config holds rotation sweep configuration.
type Config struct {
	SweepBatchSize   int
	SweepConcurrency int
}

// VaultItemRepository defines the vault item operations rotation needs.
type VaultItemRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*vaultDomain.VaultItem, error)
	UpdateValue(ctx context.Context, item *vaultDomain.VaultItem, expectedVersion uint) error
	UpdateWrappedDek(ctx context.Context, item *vaultDomain.VaultItem, expectedVersion uint) error
	ListDueForRotation(ctx context.Context, now time.Time, limit int) ([]*vaultDomain.VaultItem, error)
	ListNotWrappedByKek(ctx context.Context, kekID uuid.UUID, limit int) ([]*vaultDomain.VaultItem, error)
}

// RotationRecordRepository defines rotation history repository operations
type RotationRecordRepository interface {
	Create(ctx context.Context, record *rotationDomain.RotationRecord) error
	ListByVaultItem(
		ctx context.Context,
		vaultItemID uuid.UUID,
		limit, offset int,
	) ([]*rotationDomain.RotationRecord, error)
}

// AccessChecker decides whether an actor may rotate an item.
type AccessChecker interface {
	CheckAccess(
		ctx context.Context,
		item *vaultDomain.VaultItem,
		actorID uuid.UUID,
		actorOrgID *uuid.UUID,
		required sharingDomain.Permission,
	) (sharingDomain.Decision, error)
}

// OutboxEventRepository interface defines outbox event repository operations
type OutboxEventRepository interface {
	Create(ctx context.Context, event *outboxDomain.OutboxEvent) error
}

// RotateInput describes one rotation request. A nil NewValue re-encrypts the
// current plaintext under a fresh DEK without changing the secret itself.
type RotateInput struct {
	ID        uuid.UUID
	ActorID   uuid.UUID
	OrgID     *uuid.UUID
	NewValue  []byte
	Trigger   rotationDomain.Trigger
	IPAddress string
	UserAgent string
}

// UseCase defines the interface for rotation business logic operations
type UseCase interface {
	// Rotate re-encrypts an item under a fresh DEK, advancing the version by
	// one, and records the rotation in the history.
	Rotate(ctx context.Context, input RotateInput) (*vaultDomain.VaultItem, error)

	// RotateDue finds items whose auto-rotation interval elapsed and rotates
	// each on behalf of its owner. Returns the number rotated; individual
	// failures are logged and do not stop the sweep.
	RotateDue(ctx context.Context) (int, error)

	// RewrapDeks rewraps item DEKs that are not wrapped under the active KEK.
	// Run after a KEK rotation. Returns the number rewrapped.
	RewrapDeks(ctx context.Context) (int, error)

	// History lists the rotation records of an item, newest first.
	History(
		ctx context.Context,
		vaultItemID uuid.UUID,
		limit, offset int,
	) ([]*rotationDomain.RotationRecord, error)
}

// RotationUseCase handles rotation-related business logic
type RotationUseCase struct {
	config     Config
	txManager  database.TxManager
	itemRepo   VaultItemRepository
	recordRepo RotationRecordRepository
	envelope   cryptoService.Envelope
	keyManager cryptoService.KeyManager
	kekChain   *cryptoDomain.KekChain
	access     AccessChecker
	audit      audituc.UseCase
	outboxRepo OutboxEventRepository
	anchor     *blockchain.Service
	logger     *slog.Logger
}

// NewRotationUseCase creates a new RotationUseCase
func NewRotationUseCase(
	config Config,
	txManager database.TxManager,
	itemRepo VaultItemRepository,
	recordRepo RotationRecordRepository,
	envelope cryptoService.Envelope,
	keyManager cryptoService.KeyManager,
	kekChain *cryptoDomain.KekChain,
	access AccessChecker,
	audit audituc.UseCase,
	outboxRepo OutboxEventRepository,
	anchor *blockchain.Service,
	logger *slog.Logger,
) *RotationUseCase {
	return &RotationUseCase{
		config:     config,
		txManager:  txManager,
		itemRepo:   itemRepo,
		recordRepo: recordRepo,
		envelope:   envelope,
		keyManager: keyManager,
		kekChain:   kekChain,
		access:     access,
		audit:      audit,
		outboxRepo: outboxRepo,
		anchor:     anchor,
		logger:     logger,
	}
}

// Rotate rotates a single item.
func (uc *RotationUseCase) Rotate(ctx context.Context, input RotateInput) (*vaultDomain.VaultItem, error) {
	item, err := uc.rotate(ctx, input)

	uc.audit.Record(ctx, audituc.RecordInput{
		VaultItemID: &input.ID,
		ActorID:     input.ActorID,
		Action:      auditDomain.ActionRotate,
		Success:     err == nil,
		IPAddress:   input.IPAddress,
		UserAgent:   input.UserAgent,
		ErrorDetail: errDetail(err),
	})

	return item, err
}

func (uc *RotationUseCase) rotate(ctx context.Context, input RotateInput) (*vaultDomain.VaultItem, error) {
	if !input.Trigger.Valid() {
		return nil, rotationDomain.ErrInvalidTrigger
	}

	item, err := uc.itemRepo.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if item.IsDeleted() {
		return nil, vaultDomain.ErrVaultItemNotFound
	}

	decision, err := uc.access.CheckAccess(ctx, item, input.ActorID, input.OrgID, sharingDomain.PermissionReadWrite)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, apperrors.Wrap(apperrors.ErrForbidden, decision.Reason)
	}

	plaintext := input.NewValue
	if len(plaintext) == 0 {
		plaintext, err = uc.envelope.Decrypt(
			item.Ciphertext,
			item.Nonce,
			cryptoService.ItemAAD(item.ID, item.Version),
			&item.WrappedDek,
		)
		if err != nil {
			return nil, err
		}
	}
	defer cryptoDomain.Zero(plaintext)

	observedVersion := item.Version
	newVersion := observedVersion + 1

	ciphertext, nonce, dek, err := uc.envelope.Encrypt(plaintext, cryptoService.ItemAAD(item.ID, newVersion))
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

	err = uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := uc.itemRepo.UpdateValue(ctx, item, observedVersion); err != nil {
			return err
		}

		record := &rotationDomain.RotationRecord{
			ID:          uuid.Must(uuid.NewV7()),
			VaultItemID: item.ID,
			ActorID:     input.ActorID,
			Trigger:     input.Trigger,
			OldVersion:  observedVersion,
			NewVersion:  newVersion,
			RotatedAt:   now,
		}
		if err := uc.recordRepo.Create(ctx, record); err != nil {
			return err
		}

		return uc.createEvent(ctx, map[string]any{
			"vault_item_id": item.ID,
			"trigger":       input.Trigger,
			"old_version":   observedVersion,
			"new_version":   newVersion,
		})
	})
	if err != nil {
		return nil, err
	}

	return item, nil
}

// RotateDue runs one scheduled sweep. Each due item is rotated on behalf of
// its owner with bounded concurrency; a conflict from a concurrent manual
// rotation just skips the item until the next sweep.
func (uc *RotationUseCase) RotateDue(ctx context.Context) (int, error) {
	items, err := uc.itemRepo.ListDueForRotation(ctx, time.Now().UTC(), uc.config.SweepBatchSize)
	if err != nil {
		return 0, err
	}
	if len(items) == 0 {
		return 0, nil
	}

	if uc.logger != nil {
		uc.logger.Info("rotation sweep started", slog.Int("due", len(items)))
	}

	var rotated atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.config.SweepConcurrency)

	for _, item := range items {
		g.Go(func() error {
			_, err := uc.Rotate(ctx, RotateInput{
				ID:      item.ID,
				ActorID: item.OwnerID,
				Trigger: rotationDomain.TriggerScheduled,
			})
			if err != nil {
				if uc.logger != nil {
					uc.logger.Error("scheduled rotation failed",
						slog.String("vault_item_id", item.ID.String()),
						slog.Any("error", err),
					)
				}
				return nil
			}
			rotated.Add(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return int(rotated.Load()), err
	}
	return int(rotated.Load()), nil
}

// RewrapDeks rewraps DEKs under the active KEK after a KEK rotation. The
// payload ciphertext and version are untouched; only the wrapped DEK columns
// change.
func (uc *RotationUseCase) RewrapDeks(ctx context.Context) (int, error) {
	activeKek, ok := uc.kekChain.Active()
	if !ok {
		return 0, cryptoDomain.ErrKekNotFound
	}

	rewrapped := 0
	for {
		items, err := uc.itemRepo.ListNotWrappedByKek(ctx, activeKek.ID, uc.config.SweepBatchSize)
		if err != nil {
			return rewrapped, err
		}
		if len(items) == 0 {
			return rewrapped, nil
		}

		progressed := 0
		for _, item := range items {
			if err := uc.rewrapItem(ctx, item, activeKek); err != nil {
				if apperrors.Is(err, apperrors.ErrVersionConflict) {
					// a concurrent value update already wrapped under the new KEK
					continue
				}
				return rewrapped, err
			}
			progressed++
		}
		rewrapped += progressed

		// a batch with zero progress would repeat forever; leave the
		// remainder to the next run
		if progressed == 0 {
			return rewrapped, nil
		}
	}
}

func (uc *RotationUseCase) rewrapItem(
	ctx context.Context,
	item *vaultDomain.VaultItem,
	activeKek *cryptoDomain.Kek,
) error {
	oldKek, ok := uc.kekChain.Get(item.WrappedDek.KekID)
	if !ok {
		return cryptoDomain.ErrKekNotFound
	}

	dekKey, err := uc.keyManager.DecryptDek(&item.WrappedDek, oldKek)
	if err != nil {
		return err
	}
	defer cryptoDomain.Zero(dekKey)

	encryptedKey, nonce, err := uc.keyManager.EncryptDek(dekKey, activeKek)
	if err != nil {
		return err
	}

	item.WrappedDek.KekID = activeKek.ID
	item.WrappedDek.EncryptedKey = encryptedKey
	item.WrappedDek.Nonce = nonce

	return uc.itemRepo.UpdateWrappedDek(ctx, item, item.Version)
}

// History lists an item's rotation records.
func (uc *RotationUseCase) History(
	ctx context.Context,
	vaultItemID uuid.UUID,
	limit, offset int,
) ([]*rotationDomain.RotationRecord, error) {
	return uc.recordRepo.ListByVaultItem(ctx, vaultItemID, limit, offset)
}

func (uc *RotationUseCase) createEvent(ctx context.Context, payload map[string]any) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal event payload")
	}

	event := &outboxDomain.OutboxEvent{
		ID:        uuid.Must(uuid.NewV7()),
		EventType: outboxDomain.EventTypeSecretRotated,
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
