package domain

import (
	"time"

	"github.com/google/uuid"
)

// Dek is a per-item Data Encryption Key. Each vault item version gets a fresh
// DEK; DEKs are never reused across versions. The DEK is stored only in
// wrapped form (EncryptedKey under KekID); its plaintext exists transiently
// inside the envelope engine's call stack and is zeroed immediately after use.
type Dek struct {
	ID           uuid.UUID // Unique identifier (UUIDv7)
	KekID        uuid.UUID // KEK that wraps this DEK
	Algorithm    Algorithm // AEAD algorithm for both the wrap and the payload
	EncryptedKey []byte    // DEK wrapped under the KEK
	Nonce        []byte    // Nonce used when wrapping the DEK
	CreatedAt    time.Time
}
