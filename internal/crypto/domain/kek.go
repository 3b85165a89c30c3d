// Package domain defines the cryptographic domain models for envelope encryption.
//
// The key hierarchy is Master Key → KEK → DEK → payload. KEKs wrap Data
// Encryption Keys so that key rotation never requires re-encrypting payloads
// en masse. Plaintext key material (the Key fields) exists only in memory and
// must be zeroed when released.
package domain

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kek is a Key Encryption Key. It is stored encrypted under a master key;
// the plaintext Key field is populated only after unwrapping and never
// persisted.
type Kek struct {
	ID           uuid.UUID // Unique identifier (UUIDv7)
	MasterKeyID  string    // Master key that wraps this KEK
	Algorithm    Algorithm // AEAD algorithm for data this KEK protects
	EncryptedKey []byte    // KEK wrapped under the master key
	Key          []byte    // Plaintext KEK, memory only
	Nonce        []byte    // Nonce used when wrapping the KEK
	Version      uint      // Monotonic rotation counter
	IsActive     bool      // Whether this KEK wraps new DEKs
	CreatedAt    time.Time
	RetiredAt    *time.Time // When the KEK stopped wrapping new DEKs (nil while active)
}

// KekChain is the in-memory KEK cache of the key hierarchy. The active KEK
// (highest version) wraps new DEKs; historical KEKs stay resident for the
// retention window so older wrapped DEKs remain decryptable.
type KekChain struct {
	activeID uuid.UUID
	keys     sync.Map
}

// ActiveKekID returns the UUID of the KEK used for new wraps.
func (k *KekChain) ActiveKekID() uuid.UUID {
	return k.activeID
}

// Get retrieves a KEK from the chain by its UUID.
func (k *KekChain) Get(id uuid.UUID) (*Kek, bool) {
	if kek, ok := k.keys.Load(id); ok {
		return kek.(*Kek), ok
	}

	return nil, false
}

// Active returns the currently active KEK. ok is false when the chain is
// empty or the active entry is missing.
func (k *KekChain) Active() (*Kek, bool) {
	return k.Get(k.activeID)
}

// Close zeroes all KEK key material and resets the chain.
func (k *KekChain) Close() {
	k.keys.Range(func(key, value any) bool {
		if kek, ok := value.(*Kek); ok {
			Zero(kek.Key)
		}
		return true
	})
	k.activeID = uuid.Nil
	k.keys.Clear()
}

// NewKekChain creates a KekChain with the first KEK as active.
// KEKs must be ordered by version descending (newest first).
func NewKekChain(keks []*Kek) *KekChain {
	kc := &KekChain{}
	if len(keks) == 0 {
		return kc
	}

	kc.activeID = keks[0].ID
	for _, kek := range keks {
		kc.keys.Store(kek.ID, kek)
	}

	return kc
}
