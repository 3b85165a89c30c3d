package usecase

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/allisson/vaultcore/internal/audit/domain"
	audituc "github.com/allisson/vaultcore/internal/audit/usecase"
	"github.com/allisson/vaultcore/internal/blockchain"
	cryptoDomain "github.com/allisson/vaultcore/internal/crypto/domain"
	apperrors "github.com/allisson/vaultcore/internal/errors"
	outboxDomain "github.com/allisson/vaultcore/internal/outbox/domain"
	sharingDomain "github.com/allisson/vaultcore/internal/sharing/domain"
	vaultDomain "github.com/allisson/vaultcore/internal/vault/domain"
)

// MockTxManager is a mock implementation of database.TxManager.
type MockTxManager struct {
	mock.Mock
}

func (m *MockTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	if args.Get(0) != nil {
		return args.Error(0)
	}
	return fn(ctx)
}

// MockVaultItemRepository is a mock implementation of VaultItemRepository.
type MockVaultItemRepository struct {
	mock.Mock
}

func (m *MockVaultItemRepository) Create(ctx context.Context, item *vaultDomain.VaultItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockVaultItemRepository) Get(ctx context.Context, id uuid.UUID) (*vaultDomain.VaultItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vaultDomain.VaultItem), args.Error(1)
}

func (m *MockVaultItemRepository) List(
	ctx context.Context,
	ownerID uuid.UUID,
	filter vaultDomain.ListFilter,
	limit, offset int,
) ([]*vaultDomain.VaultItem, error) {
	args := m.Called(ctx, ownerID, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*vaultDomain.VaultItem), args.Error(1)
}

func (m *MockVaultItemRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*vaultDomain.VaultItem, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*vaultDomain.VaultItem), args.Error(1)
}

func (m *MockVaultItemRepository) UpdateValue(
	ctx context.Context,
	item *vaultDomain.VaultItem,
	expectedVersion uint,
) error {
	args := m.Called(ctx, item, expectedVersion)
	return args.Error(0)
}

func (m *MockVaultItemRepository) UpdateMetadata(ctx context.Context, item *vaultDomain.VaultItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockVaultItemRepository) Delete(ctx context.Context, id uuid.UUID, expectedVersion uint) error {
	args := m.Called(ctx, id, expectedVersion)
	return args.Error(0)
}

func (m *MockVaultItemRepository) IncrementAccess(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockVaultItemRepository) DeleteByOwner(ctx context.Context, ownerID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

// MockEnvelope is a mock implementation of cryptoService.Envelope.
type MockEnvelope struct {
	mock.Mock
}

func (m *MockEnvelope) Encrypt(
	plaintext, aad []byte,
) (ciphertext, nonce []byte, dek cryptoDomain.Dek, err error) {
	args := m.Called(plaintext, aad)
	if args.Get(0) == nil {
		return nil, nil, cryptoDomain.Dek{}, args.Error(3)
	}
	return args.Get(0).([]byte), args.Get(1).([]byte), args.Get(2).(cryptoDomain.Dek), args.Error(3)
}

func (m *MockEnvelope) Decrypt(ciphertext, nonce, aad []byte, dek *cryptoDomain.Dek) ([]byte, error) {
	args := m.Called(ciphertext, nonce, aad, dek)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockAccessChecker is a mock implementation of AccessChecker.
type MockAccessChecker struct {
	mock.Mock
}

func (m *MockAccessChecker) CheckAccess(
	ctx context.Context,
	item *vaultDomain.VaultItem,
	actorID uuid.UUID,
	actorOrgID *uuid.UUID,
	required sharingDomain.Permission,
) (sharingDomain.Decision, error) {
	args := m.Called(ctx, item, actorID, actorOrgID, required)
	return args.Get(0).(sharingDomain.Decision), args.Error(1)
}

func (m *MockAccessChecker) ListSharedWith(
	ctx context.Context,
	actorID uuid.UUID,
	actorOrgID *uuid.UUID,
) ([]*sharingDomain.ShareGrant, error) {
	args := m.Called(ctx, actorID, actorOrgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*sharingDomain.ShareGrant), args.Error(1)
}

func (m *MockAccessChecker) DeleteGrantsForPurge(
	ctx context.Context,
	userID uuid.UUID,
	vaultItemIDs []uuid.UUID,
) error {
	args := m.Called(ctx, userID, vaultItemIDs)
	return args.Error(0)
}

// MockAuditUseCase is a mock implementation of the audit use case.
type MockAuditUseCase struct {
	mock.Mock
}

func (m *MockAuditUseCase) Record(ctx context.Context, input audituc.RecordInput) {
	m.Called(ctx, input)
}

func (m *MockAuditUseCase) Query(
	ctx context.Context,
	filter auditDomain.QueryFilter,
	limit, offset int,
) ([]*auditDomain.AuditLog, error) {
	args := m.Called(ctx, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*auditDomain.AuditLog), args.Error(1)
}

func (m *MockAuditUseCase) PurgeActor(ctx context.Context, actorID uuid.UUID) error {
	args := m.Called(ctx, actorID)
	return args.Error(0)
}

func (m *MockAuditUseCase) PurgeVaultItems(ctx context.Context, vaultItemIDs []uuid.UUID) error {
	args := m.Called(ctx, vaultItemIDs)
	return args.Error(0)
}

// MockOutboxEventRepository is a mock implementation of OutboxEventRepository.
type MockOutboxEventRepository struct {
	mock.Mock
}

func (m *MockOutboxEventRepository) Create(ctx context.Context, event *outboxDomain.OutboxEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockRotationHistoryPurger is a mock implementation of RotationHistoryPurger.
type MockRotationHistoryPurger struct {
	mock.Mock
}

func (m *MockRotationHistoryPurger) DeleteByVaultItems(ctx context.Context, vaultItemIDs []uuid.UUID) error {
	args := m.Called(ctx, vaultItemIDs)
	return args.Error(0)
}

// MockUserPurger is a mock implementation of UserPurger.
type MockUserPurger struct {
	mock.Mock
}

func (m *MockUserPurger) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type vaultTestDeps struct {
	txManager *MockTxManager
	items     *MockVaultItemRepository
	envelope  *MockEnvelope
	access    *MockAccessChecker
	audit     *MockAuditUseCase
	outbox    *MockOutboxEventRepository
	rotation  *MockRotationHistoryPurger
	users     *MockUserPurger
}

func newTestVaultUseCase(t *testing.T) (*VaultUseCase, *vaultTestDeps) {
	t.Helper()
	deps := &vaultTestDeps{
		txManager: new(MockTxManager),
		items:     new(MockVaultItemRepository),
		envelope:  new(MockEnvelope),
		access:    new(MockAccessChecker),
		audit:     new(MockAuditUseCase),
		outbox:    new(MockOutboxEventRepository),
		rotation:  new(MockRotationHistoryPurger),
		users:     new(MockUserPurger),
	}
	anchor := blockchain.NewService(blockchain.NoopAnchorer{}, time.Second, slog.Default())
	uc := NewVaultUseCase(
		deps.txManager,
		deps.items,
		deps.envelope,
		deps.access,
		deps.audit,
		deps.outbox,
		deps.rotation,
		deps.users,
		anchor,
		slog.Default(),
	)
	return uc, deps
}

func testDek() cryptoDomain.Dek {
	return cryptoDomain.Dek{
		ID:           uuid.Must(uuid.NewV7()),
		KekID:        uuid.Must(uuid.NewV7()),
		Algorithm:    cryptoDomain.AESGCM,
		EncryptedKey: []byte("wrapped-dek"),
		Nonce:        []byte("dek-nonce-12"),
		CreatedAt:    time.Now().UTC(),
	}
}

func activeItem(ownerID uuid.UUID) *vaultDomain.VaultItem {
	now := time.Now().UTC()
	return &vaultDomain.VaultItem{
		ID:         uuid.Must(uuid.NewV7()),
		OwnerID:    ownerID,
		SecretType: vaultDomain.SecretTypeAPIKey,
		Ciphertext: []byte("ciphertext"),
		Nonce:      []byte("nonce-bytes1"),
		WrappedDek: testDek(),
		Version:    1,
		Status:     vaultDomain.StatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func allowDecision() sharingDomain.Decision {
	return sharingDomain.Decision{Allowed: true, Permission: sharingDomain.PermissionReadWrite}
}

func TestVaultUseCase_Create(t *testing.T) {
	ownerID := uuid.Must(uuid.NewV7())
	actor := Actor{ID: ownerID}

	t.Run("creates item at version one", func(t *testing.T) {
		uc, deps := newTestVaultUseCase(t)

		deps.envelope.On("Encrypt", mock.Anything, mock.Anything).
			Return([]byte("ciphertext"), []byte("nonce-bytes1"), testDek(), nil)
		deps.txManager.On("WithTx", mock.Anything, mock.Anything).Return(nil)
		deps.items.On("Create", mock.Anything, mock.MatchedBy(func(item *vaultDomain.VaultItem) bool {
			return item.OwnerID == ownerID &&
				item.Version == 1 &&
				item.Status == vaultDomain.StatusActive &&
				item.BlockchainHash != "" &&
				!item.LastRotatedAt.IsZero() &&
				len(item.Plaintext) == 0
		})).Return(nil)
		deps.outbox.On("Create", mock.Anything, mock.MatchedBy(func(e *outboxDomain.OutboxEvent) bool {
			return e.EventType == outboxDomain.EventTypeSecretCreated
		})).Return(nil)
		deps.audit.On("Record", mock.Anything, mock.MatchedBy(func(in audituc.RecordInput) bool {
			return in.Action == auditDomain.ActionCreate && in.Success
		})).Return()

		item, err := uc.Create(context.Background(), CreateInput{
			Actor:      actor,
			SecretType: vaultDomain.SecretTypeAPIKey,
			Provider:   "aws",
			Value:      []byte("sk-secret"),
			Tags:       []string{"prod"},
		})
		require.NoError(t, err)
		assert.Equal(t, uint(1), item.Version)
		deps.items.AssertExpectations(t)
		deps.audit.AssertExpectations(t)
	})

	t.Run("zeroes the input value", func(t *testing.T) {
		uc, deps := newTestVaultUseCase(t)

		deps.envelope.On("Encrypt", mock.Anything, mock.Anything).
			Return([]byte("ciphertext"), []byte("nonce-bytes1"), testDek(), nil)
		deps.txManager.On("WithTx", mock.Anything, mock.Anything).Return(nil)
		deps.items.On("Create", mock.Anything, mock.Anything).Return(nil)
		deps.outbox.On("Create", mock.Anything, mock.Anything).Return(nil)
		deps.audit.On("Record", mock.Anything, mock.Anything).Return()

		value := []byte("sk-secret")
		_, err := uc.Create(context.Background(), CreateInput{
			Actor:      actor,
			SecretType: vaultDomain.SecretTypeAPIKey,
			Value:      value,
		})
		require.NoError(t, err)
		assert.Equal(t, make([]byte, len(value)), value)
	})

	t.Run("rejects invalid secret type", func(t *testing.T) {
		uc, deps := newTestVaultUseCase(t)
		deps.audit.On("Record", mock.Anything, mock.MatchedBy(func(in audituc.RecordInput) bool {
			return !in.Success
		})).Return()

		_, err := uc.Create(context.Background(), CreateInput{
			Actor:      actor,
			SecretType: vaultDomain.SecretType("totp"),
			Value:      []byte("value"),
		})
		assert.ErrorIs(t, err, vaultDomain.ErrInvalidSecretType)
	})

	t.Run("rejects empty value", func(t *testing.T) {
		uc, deps := newTestVaultUseCase(t)
		deps.audit.On("Record", mock.Anything, mock.Anything).Return()

		_, err := uc.Create(context.Background(), CreateInput{
			Actor:      actor,
			SecretType: vaultDomain.SecretTypeAPIKey,
		})
		assert.ErrorIs(t, err, vaultDomain.ErrEmptyValue)
	})

	t.Run("rejects auto rotation without interval", func(t *testing.T) {
		uc, deps := newTestVaultUseCase(t)
		deps.audit.On("Record", mock.Anything, mock.Anything).Return()

		_, err := uc.Create(context.Background(), CreateInput{
			Actor:             actor,
			SecretType:        vaultDomain.SecretTypeAPIKey,
			Value:             []byte("value"),
			AutoRotateEnabled: true,
		})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})
}

func TestVaultUseCase_Get(t *testing.T) {
	ownerID := uuid.Must(uuid.NewV7())
	actor := Actor{ID: ownerID}

	t.Run("metadata only read skips decryption", func(t *testing.T) {
		uc, deps := newTestVaultUseCase(t)
		item := activeItem(ownerID)

		deps.items.On("Get", mock.Anything, item.ID).Return(item, nil)
		deps.access.On("CheckAccess", mock.Anything, item, ownerID, (*uuid.UUID)(nil), sharingDomain.PermissionRead).
			Return(allowDecision(), nil)
		deps.audit.On("Record", mock.Anything, mock.MatchedBy(func(in audituc.RecordInput) bool {
			return in.Action == auditDomain.ActionGet && in.Success
		})).Return()

		got, err := uc.Get(context.Background(), GetInput{Actor: actor, ID: item.ID})
		require.NoError(t, err)
		assert.Nil(t, got.Plaintext)
		deps.envelope.AssertNotCalled(t, "Decrypt", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("decrypt populates plaintext and bumps access", func(t *testing.T) {
		uc, deps := newTestVaultUseCase(t)
		item := activeItem(ownerID)

		deps.items.On("Get", mock.Anything, item.ID).Return(item, nil)
		deps.access.On("CheckAccess", mock.Anything, item, ownerID, (*uuid.UUID)(nil), sharingDomain.PermissionRead).
			Return(allowDecision(), nil)
		deps.envelope.On("Decrypt", item.Ciphertext, item.Nonce, mock.Anything, &item.WrappedDek).
			Return([]byte("sk-secret"), nil)
		deps.items.On("IncrementAccess", mock.Anything, item.ID).Return(nil)
		deps.audit.On("Record", mock.Anything, mock.Anything).Return()

		got, err := uc.Get(context.Background(), GetInput{Actor: actor, ID: item.ID, Decrypt: true})
		require.NoError(t, err)
		assert.Equal(t, []byte("sk-secret"), got.Plaintext)
		deps.items.AssertExpectations(t)
	})

	t.Run("soft-deleted item is not found", func(t *testing.T) {
		uc, deps := newTestVaultUseCase(t)
		item := activeItem(ownerID)
		item.Status = vaultDomain.StatusDeleted

		deps.items.On("Get", mock.Anything, item.ID).Return(item, nil)
		deps.audit.On("Record", mock.Anything, mock.MatchedBy(func(in audituc.RecordInput) bool {
			return !in.Success
		})).Return()

		_, err := uc.Get(context.Background(), GetInput{Actor: actor, ID: item.ID})
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("denied access is forbidden with reason", func(t *testing.T) {
		uc, deps := newTestVaultUseCase(t)
		item := activeItem(ownerID)
		stranger := Actor{ID: uuid.Must(uuid.NewV7())}

		deps.items.On("Get", mock.Anything, item.ID).Return(item, nil)
		deps.access.On("CheckAccess", mock.Anything, item, stranger.ID, (*uuid.UUID)(nil), sharingDomain.PermissionRead).
			Return(sharingDomain.Decision{Reason: sharingDomain.DenyReasonNoGrant}, nil)
		deps.audit.On("Record", mock.Anything, mock.MatchedBy(func(in audituc.RecordInput) bool {
			return !in.Success && in.ErrorDetail != ""
		})).Return()

		_, err := uc.Get(context.Background(), GetInput{Actor: stranger, ID: item.ID})
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
		assert.Contains(t, err.Error(), sharingDomain.DenyReasonNoGrant)
	})

	t.Run("decryption failure propagates integrity error", func(t *testing.T) {
		uc, deps := newTestVaultUseCase(t)
		item := activeItem(ownerID)

		deps.items.On("Get", mock.Anything, item.ID).Return(item, nil)
		deps.access.On("CheckAccess", mock.Anything, item, ownerID, (*uuid.UUID)(nil), sharingDomain.PermissionRead).
			Return(allowDecision(), nil)
		deps.envelope.On("Decrypt", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, cryptoDomain.ErrDecryptionFailed)
		deps.audit.On("Record", mock.Anything, mock.MatchedBy(func(in audituc.RecordInput) bool {
			return !in.Success
		})).Return()

		_, err := uc.Get(context.Background(), GetInput{Actor: actor, ID: item.ID, Decrypt: true})
		assert.ErrorIs(t, err, apperrors.ErrIntegrity)
	})
}

func TestVaultUseCase_UpdateValue(t *testing.T) {
	ownerID := uuid.Must(uuid.NewV7())
	actor := Actor{ID: ownerID}

	t.Run("advances version via CAS", func(t *testing.T) {
		uc, deps := newTestVaultUseCase(t)
		item := activeItem(ownerID)

		deps.items.On("Get", mock.Anything, item.ID).Return(item, nil)
		deps.access.On("CheckAccess", mock.Anything, item, ownerID, (*uuid.UUID)(nil), sharingDomain.PermissionReadWrite).
			Return(allowDecision(), nil)
		deps.envelope.On("Encrypt", mock.Anything, mock.Anything).
			Return([]byte("new-ciphertext"), []byte("new-nonce-12"), testDek(), nil)
		deps.items.On("UpdateValue", mock.Anything, mock.MatchedBy(func(it *vaultDomain.VaultItem) bool {
			return it.Version == 2 && !it.LastRotatedAt.IsZero()
		}), uint(1)).Return(nil)
		deps.audit.On("Record", mock.Anything, mock.MatchedBy(func(in audituc.RecordInput) bool {
			return in.Action == auditDomain.ActionUpdateValue && in.Success
		})).Return()

		updated, err := uc.UpdateValue(context.Background(), UpdateValueInput{
			Actor: actor,
			ID:    item.ID,
			Value: []byte("new-secret"),
		})
		require.NoError(t, err)
		assert.Equal(t, uint(2), updated.Version)
		deps.items.AssertExpectations(t)
	})

	t.Run("stale version conflict propagates", func(t *testing.T) {
		uc, deps := newTestVaultUseCase(t)
		item := activeItem(ownerID)

		deps.items.On("Get", mock.Anything, item.ID).Return(item, nil)
		deps.access.On("CheckAccess", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(allowDecision(), nil)
		deps.envelope.On("Encrypt", mock.Anything, mock.Anything).
			Return([]byte("new-ciphertext"), []byte("new-nonce-12"), testDek(), nil)
		deps.items.On("UpdateValue", mock.Anything, mock.Anything, mock.Anything).
			Return(vaultDomain.ErrStaleVersion)
		deps.audit.On("Record", mock.Anything, mock.Anything).Return()

		_, err := uc.UpdateValue(context.Background(), UpdateValueInput{
			Actor: actor,
			ID:    item.ID,
			Value: []byte("new-secret"),
		})
		assert.ErrorIs(t, err, apperrors.ErrVersionConflict)
	})

	t.Run("read-only grant cannot update", func(t *testing.T) {
		uc, deps := newTestVaultUseCase(t)
		item := activeItem(ownerID)
		reader := Actor{ID: uuid.Must(uuid.NewV7())}

		deps.items.On("Get", mock.Anything, item.ID).Return(item, nil)
		deps.access.On("CheckAccess", mock.Anything, item, reader.ID, (*uuid.UUID)(nil), sharingDomain.PermissionReadWrite).
			Return(sharingDomain.Decision{Reason: sharingDomain.DenyReasonNoGrant}, nil)
		deps.audit.On("Record", mock.Anything, mock.Anything).Return()

		_, err := uc.UpdateValue(context.Background(), UpdateValueInput{
			Actor: reader,
			ID:    item.ID,
			Value: []byte("new-secret"),
		})
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})
}

func TestVaultUseCase_UpdateMetadata(t *testing.T) {
	ownerID := uuid.Must(uuid.NewV7())
	actor := Actor{ID: ownerID}

	uc, deps := newTestVaultUseCase(t)
	item := activeItem(ownerID)
	originalVersion := item.Version

	deps.items.On("Get", mock.Anything, item.ID).Return(item, nil)
	deps.access.On("CheckAccess", mock.Anything, item, ownerID, (*uuid.UUID)(nil), sharingDomain.PermissionReadWrite).
		Return(allowDecision(), nil)
	deps.items.On("UpdateMetadata", mock.Anything, mock.MatchedBy(func(it *vaultDomain.VaultItem) bool {
		return it.Provider == "gcp" && it.Version == originalVersion && it.LastRotatedAt.IsZero()
	})).Return(nil)
	deps.audit.On("Record", mock.Anything, mock.Anything).Return()

	provider := "gcp"
	updated, err := uc.UpdateMetadata(context.Background(), UpdateMetadataInput{
		Actor: actor,
		ID:    item.ID,
		Patch: vaultDomain.MetadataPatch{Provider: &provider},
	})
	require.NoError(t, err)
	assert.Equal(t, "gcp", updated.Provider)
	assert.Equal(t, originalVersion, updated.Version)
	deps.items.AssertExpectations(t)
}

func TestVaultUseCase_Delete(t *testing.T) {
	ownerID := uuid.Must(uuid.NewV7())

	t.Run("owner soft-deletes", func(t *testing.T) {
		uc, deps := newTestVaultUseCase(t)
		item := activeItem(ownerID)

		deps.items.On("Get", mock.Anything, item.ID).Return(item, nil)
		deps.txManager.On("WithTx", mock.Anything, mock.Anything).Return(nil)
		deps.items.On("Delete", mock.Anything, item.ID, item.Version).Return(nil)
		deps.outbox.On("Create", mock.Anything, mock.MatchedBy(func(e *outboxDomain.OutboxEvent) bool {
			return e.EventType == outboxDomain.EventTypeSecretDeleted
		})).Return(nil)
		deps.audit.On("Record", mock.Anything, mock.MatchedBy(func(in audituc.RecordInput) bool {
			return in.Action == auditDomain.ActionDelete && in.Success
		})).Return()

		err := uc.Delete(context.Background(), DeleteInput{Actor: Actor{ID: ownerID}, ID: item.ID})
		require.NoError(t, err)
		deps.items.AssertExpectations(t)
	})

	t.Run("concurrent value update wins over delete", func(t *testing.T) {
		uc, deps := newTestVaultUseCase(t)
		item := activeItem(ownerID)

		deps.items.On("Get", mock.Anything, item.ID).Return(item, nil)
		deps.txManager.On("WithTx", mock.Anything, mock.Anything).Return(nil)
		deps.items.On("Delete", mock.Anything, item.ID, item.Version).
			Return(vaultDomain.ErrStaleVersion)
		deps.audit.On("Record", mock.Anything, mock.MatchedBy(func(in audituc.RecordInput) bool {
			return !in.Success
		})).Return()

		err := uc.Delete(context.Background(), DeleteInput{Actor: Actor{ID: ownerID}, ID: item.ID})
		assert.ErrorIs(t, err, apperrors.ErrVersionConflict)
	})

	t.Run("grantee cannot delete", func(t *testing.T) {
		uc, deps := newTestVaultUseCase(t)
		item := activeItem(ownerID)
		grantee := uuid.Must(uuid.NewV7())

		deps.items.On("Get", mock.Anything, item.ID).Return(item, nil)
		deps.audit.On("Record", mock.Anything, mock.Anything).Return()

		err := uc.Delete(context.Background(), DeleteInput{Actor: Actor{ID: grantee}, ID: item.ID})
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})
}

func TestVaultUseCase_ListSharedWith(t *testing.T) {
	uc, deps := newTestVaultUseCase(t)
	actorID := uuid.Must(uuid.NewV7())
	itemID := uuid.Must(uuid.NewV7())
	grants := []*sharingDomain.ShareGrant{{VaultItemID: itemID, GranteeUserID: &actorID}}
	items := []*vaultDomain.VaultItem{{ID: itemID}}

	deps.access.On("ListSharedWith", mock.Anything, actorID, (*uuid.UUID)(nil)).Return(grants, nil)
	deps.items.On("ListByIDs", mock.Anything, []uuid.UUID{itemID}).Return(items, nil)

	got, err := uc.ListSharedWith(context.Background(), Actor{ID: actorID})
	require.NoError(t, err)
	assert.Equal(t, items, got)
}

func TestVaultUseCase_PurgeUser(t *testing.T) {
	uc, deps := newTestVaultUseCase(t)
	userID := uuid.Must(uuid.NewV7())
	itemIDs := []uuid.UUID{uuid.Must(uuid.NewV7()), uuid.Must(uuid.NewV7())}

	deps.txManager.On("WithTx", mock.Anything, mock.Anything).Return(nil)
	deps.items.On("DeleteByOwner", mock.Anything, userID).Return(itemIDs, nil)
	deps.access.On("DeleteGrantsForPurge", mock.Anything, userID, itemIDs).Return(nil)
	deps.rotation.On("DeleteByVaultItems", mock.Anything, itemIDs).Return(nil)
	deps.audit.On("PurgeVaultItems", mock.Anything, itemIDs).Return(nil)
	deps.audit.On("PurgeActor", mock.Anything, userID).Return(nil)
	deps.users.On("Delete", mock.Anything, userID).Return(nil)
	deps.outbox.On("Create", mock.Anything, mock.MatchedBy(func(e *outboxDomain.OutboxEvent) bool {
		return e.EventType == outboxDomain.EventTypeUserPurged
	})).Return(nil)
	deps.audit.On("Record", mock.Anything, mock.MatchedBy(func(in audituc.RecordInput) bool {
		return in.Action == auditDomain.ActionPurge && in.Success
	})).Return()

	err := uc.PurgeUser(context.Background(), Actor{ID: userID}, userID)
	require.NoError(t, err)
	deps.items.AssertExpectations(t)
	deps.access.AssertExpectations(t)
	deps.audit.AssertExpectations(t)
	deps.users.AssertExpectations(t)
}
