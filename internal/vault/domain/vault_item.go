// Package domain defines the core domain models for the secret vault.
// Vault items hold envelope-encrypted credentials with optimistic-version
// concurrency: every value change wraps a fresh DEK and increments Version,
// and mutations commit only when the observed version is still current.
package domain

import (
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/vaultcore/internal/crypto/domain"
)

// Status represents the lifecycle state of a vault item. Deletion is soft;
// rows are retained for audit continuity until the GDPR purge removes them.
type Status string

const (
	StatusActive  Status = "active"
	StatusDeleted Status = "deleted"
)

// VaultItem is an encrypted secret record owned by a single user.
//
// Ciphertext and the wrapped DEK are the only persisted cryptographic
// material; Plaintext is populated in memory only after an authorized
// decrypt and must be zeroed by the consumer. The two never appear together
// in a persisted row or a log line.
type VaultItem struct {
	// ID is the immutable unique identifier.
	ID uuid.UUID
	// OwnerID is the creating user; immutable.
	OwnerID uuid.UUID
	// SecretType classifies the credential (api_key, database, ssh, ...).
	SecretType SecretType
	// Provider is a free-form classification string (e.g., "aws", "openai").
	Provider string
	// Ciphertext is the AEAD-encrypted secret payload including its tag.
	Ciphertext []byte
	// Nonce is the nonce used to encrypt the payload.
	Nonce []byte
	// WrappedDek is the per-version DEK, stored only in wrapped form together
	// with the KEK reference that encrypted it.
	WrappedDek cryptoDomain.Dek
	// Version increases by exactly one on every value update or rotation.
	Version uint
	// Plaintext holds the decrypted value in memory only; must be zeroed after use.
	Plaintext []byte `json:"-"`
	// Metadata is a free map of non-sensitive attributes, updatable without
	// touching cryptographic material.
	Metadata map[string]any
	// Tags are labels used for filtering.
	Tags []string
	// ExpiresAt optionally marks when the stored credential itself expires.
	ExpiresAt *time.Time
	// AutoRotateEnabled and RotateAfter configure scheduled rotation; they are
	// evaluated by the rotation sweep, not by reads.
	AutoRotateEnabled bool
	RotateAfter       time.Duration
	// LastRotatedAt is when the value was last (re-)encrypted: creation, a
	// value update, or a rotation. The sweep computes due-ness from it.
	LastRotatedAt time.Time
	// BlockchainHash is the hex digest of (ID, Version, Ciphertext) anchored
	// externally, empty when anchoring is disabled or unavailable.
	BlockchainHash string
	// AnchorRef is the external reference returned by the anchoring backend.
	AnchorRef string
	// AccessCount and LastAccessedAt track successful decrypts.
	AccessCount    uint
	LastAccessedAt *time.Time
	// Status is active or deleted (soft delete).
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsDeleted reports whether the item has been soft-deleted.
func (v *VaultItem) IsDeleted() bool {
	return v.Status == StatusDeleted
}

// IsOwner reports whether the given actor owns the item.
func (v *VaultItem) IsOwner(actorID uuid.UUID) bool {
	return v.OwnerID == actorID
}

// ListFilter narrows List results. Zero values mean no filtering.
type ListFilter struct {
	SecretType SecretType
	Tags       []string
	Status     Status
}

// MetadataPatch applies metadata and tag changes without touching the
// encrypted payload. Nil fields are left unchanged.
type MetadataPatch struct {
	Provider  *string
	Metadata  map[string]any
	Tags      []string
	ExpiresAt *time.Time

	AutoRotateEnabled *bool
	RotateAfter       *time.Duration
}
