// Package usecase implements the key hierarchy management layer: KEK
// creation, rotation, and unwrapping the persisted chain into memory at
// startup. It coordinates the key manager service (cryptographic operations)
// with the KEK repository (persistence).
package usecase

import (
	"context"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/vaultcore/internal/crypto/domain"
)

// KekRepository defines persistence operations for Key Encryption Keys.
type KekRepository interface {
	Create(ctx context.Context, kek *cryptoDomain.Kek) error
	Get(ctx context.Context, kekID uuid.UUID) (*cryptoDomain.Kek, error)
	// List returns all KEKs ordered by version descending (newest first).
	List(ctx context.Context) ([]*cryptoDomain.Kek, error)
	// Retire clears the active flag and stamps RetiredAt on the given KEK.
	Retire(ctx context.Context, kekID uuid.UUID) error
}

// KekUseCase manages the KEK lifecycle.
type KekUseCase interface {
	// Create generates and persists the initial KEK wrapped by the active
	// master key. Call once during system bootstrap.
	Create(
		ctx context.Context,
		masterKeyChain *cryptoDomain.MasterKeyChain,
		alg cryptoDomain.Algorithm,
	) error

	// Rotate retires the current active KEK and creates a new one with an
	// incremented version. Existing wrapped DEKs stay decryptable through the
	// retained historical KEKs; new wraps use the new KEK. Returns the new
	// KEK's ID.
	Rotate(
		ctx context.Context,
		masterKeyChain *cryptoDomain.MasterKeyChain,
		alg cryptoDomain.Algorithm,
	) (uuid.UUID, error)

	// LoadChain reads all persisted KEKs, unwraps each with its recorded
	// master key, and returns the in-memory chain with the newest KEK active.
	// Fails when the keychain is missing a required master key: the process
	// must not serve vault operations with an incomplete hierarchy.
	LoadChain(
		ctx context.Context,
		masterKeyChain *cryptoDomain.MasterKeyChain,
	) (*cryptoDomain.KekChain, error)
}
