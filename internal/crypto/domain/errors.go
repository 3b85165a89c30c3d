package domain

import (
	"github.com/allisson/vaultcore/internal/errors"
)

// Cryptographic operation error definitions.
//
// These wrap the standard sentinels from internal/errors so callers can match
// on business intent (errors.Is) while handlers map them to HTTP status codes.
// None of these errors ever carries key material or plaintext in its message.
var (
	// ErrUnsupportedAlgorithm indicates the requested AEAD algorithm is not
	// supported. Supported: AESGCM (aes-gcm), ChaCha20 (chacha20-poly1305).
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrInvalidInput, "unsupported algorithm")

	// ErrInvalidKeySize indicates a key is not exactly 32 bytes. Master keys,
	// KEKs, and DEKs are all 256-bit.
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrDecryptionFailed indicates an authenticated decryption failed: wrong
	// key, tampered ciphertext, mismatched associated data, or a bad nonce.
	// The specific cause is deliberately not disclosed.
	ErrDecryptionFailed = errors.Wrap(errors.ErrIntegrity, "decryption failed")

	// ErrMasterKeyNotFound indicates the referenced master key is not present
	// in the keychain.
	ErrMasterKeyNotFound = errors.Wrap(errors.ErrKeyUnavailable, "master key not found")

	// ErrKekNotFound indicates the referenced KEK is not present in the chain.
	// Items wrapped under a KEK outside the retention window cannot be read.
	ErrKekNotFound = errors.Wrap(errors.ErrKeyUnavailable, "kek not found")

	// Master keychain bootstrap errors. The process must fail fast when the
	// keychain cannot be fully loaded: serving vault operations without key
	// material is never acceptable.
	ErrMasterKeysNotSet        = errors.New("MASTER_KEYS environment variable is not set")
	ErrActiveMasterKeyIDNotSet = errors.New("ACTIVE_MASTER_KEY_ID environment variable is not set")
	ErrInvalidMasterKeysFormat = errors.New("invalid MASTER_KEYS format, expected id:base64key")
	ErrInvalidMasterKeyBase64  = errors.New("invalid base64 in MASTER_KEYS")
	ErrActiveMasterKeyNotFound = errors.New("active master key not found in keychain")
)
