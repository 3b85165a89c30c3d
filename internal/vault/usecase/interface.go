// Package usecase implements the vault item lifecycle: create, read with
// on-demand decryption, metadata and value updates, soft delete, and the
// GDPR purge. Every attempted operation is audited, access control runs
// before any cryptographic work, and value updates commit through
// compare-and-swap on the item version.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	sharingDomain "github.com/allisson/vaultcore/internal/sharing/domain"
	vaultDomain "github.com/allisson/vaultcore/internal/vault/domain"
)

// VaultItemRepository defines vault item repository operations
type VaultItemRepository interface {
	Create(ctx context.Context, item *vaultDomain.VaultItem) error
	Get(ctx context.Context, id uuid.UUID) (*vaultDomain.VaultItem, error)
	List(
		ctx context.Context,
		ownerID uuid.UUID,
		filter vaultDomain.ListFilter,
		limit, offset int,
	) ([]*vaultDomain.VaultItem, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*vaultDomain.VaultItem, error)
	UpdateValue(ctx context.Context, item *vaultDomain.VaultItem, expectedVersion uint) error
	UpdateMetadata(ctx context.Context, item *vaultDomain.VaultItem) error
	Delete(ctx context.Context, id uuid.UUID, expectedVersion uint) error
	IncrementAccess(ctx context.Context, id uuid.UUID) error
	DeleteByOwner(ctx context.Context, ownerID uuid.UUID) ([]uuid.UUID, error)
}

// AccessChecker decides whether an actor may operate on an item.
type AccessChecker interface {
	CheckAccess(
		ctx context.Context,
		item *vaultDomain.VaultItem,
		actorID uuid.UUID,
		actorOrgID *uuid.UUID,
		required sharingDomain.Permission,
	) (sharingDomain.Decision, error)
	ListSharedWith(ctx context.Context, actorID uuid.UUID, actorOrgID *uuid.UUID) ([]*sharingDomain.ShareGrant, error)
	DeleteGrantsForPurge(ctx context.Context, userID uuid.UUID, vaultItemIDs []uuid.UUID) error
}

// Actor identifies the caller of an operation together with the request
// attribution recorded in the audit trail.
type Actor struct {
	ID        uuid.UUID
	OrgID     *uuid.UUID
	IPAddress string
	UserAgent string
}

// CreateInput contains the input data for creating a vault item.
type CreateInput struct {
	Actor             Actor
	SecretType        vaultDomain.SecretType
	Provider          string
	Value             []byte
	Metadata          map[string]any
	Tags              []string
	ExpiresAt         *time.Time
	AutoRotateEnabled bool
	RotateAfter       time.Duration
}

// GetInput identifies the item to read. Decrypt controls whether the
// plaintext is unwrapped; metadata-only reads skip all cryptography.
type GetInput struct {
	Actor   Actor
	ID      uuid.UUID
	Decrypt bool
}

// UpdateMetadataInput applies a metadata patch to an item.
type UpdateMetadataInput struct {
	Actor Actor
	ID    uuid.UUID
	Patch vaultDomain.MetadataPatch
}

// UpdateValueInput replaces the secret value of an item.
type UpdateValueInput struct {
	Actor Actor
	ID    uuid.UUID
	Value []byte
}

// DeleteInput identifies the item to soft-delete.
type DeleteInput struct {
	Actor Actor
	ID    uuid.UUID
}

// UseCase defines the interface for vault business logic operations
type UseCase interface {
	// Create encrypts the value under a fresh DEK and persists the item at
	// version 1.
	Create(ctx context.Context, input CreateInput) (*vaultDomain.VaultItem, error)

	// Get retrieves an item. With Decrypt set, the plaintext is unwrapped
	// into VaultItem.Plaintext and the access counter is bumped.
	Get(ctx context.Context, input GetInput) (*vaultDomain.VaultItem, error)

	// List retrieves the actor's own items, metadata only.
	List(
		ctx context.Context,
		actor Actor,
		filter vaultDomain.ListFilter,
		limit, offset int,
	) ([]*vaultDomain.VaultItem, error)

	// ListSharedWith retrieves the items shared with the actor, metadata only.
	ListSharedWith(ctx context.Context, actor Actor) ([]*vaultDomain.VaultItem, error)

	// UpdateMetadata applies a patch without touching cryptographic material.
	UpdateMetadata(ctx context.Context, input UpdateMetadataInput) (*vaultDomain.VaultItem, error)

	// UpdateValue re-encrypts a new value under a fresh DEK and advances the
	// version by one via compare-and-swap.
	UpdateValue(ctx context.Context, input UpdateValueInput) (*vaultDomain.VaultItem, error)

	// Delete soft-deletes an item. Owner only.
	Delete(ctx context.Context, input DeleteInput) error

	// PurgeUser hard-deletes everything belonging to a user: items, grants,
	// rotation history, audit entries, and the user row itself.
	PurgeUser(ctx context.Context, actor Actor, userID uuid.UUID) error
}
