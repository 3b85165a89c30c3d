// Package service provides the cryptographic services for envelope encryption:
// AEAD ciphers (AES-256-GCM, ChaCha20-Poly1305), KEK/DEK lifecycle management,
// and the envelope engine that encrypts vault payloads.
package service

import (
	cryptoDomain "github.com/allisson/vaultcore/internal/crypto/domain"
)

// AEAD defines the interface for Authenticated Encryption with Associated Data.
type AEAD interface {
	// Encrypt encrypts plaintext with optional AAD and returns ciphertext and nonce.
	Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error)

	// Decrypt decrypts ciphertext using the provided nonce and AAD.
	Decrypt(ciphertext, nonce, aad []byte) ([]byte, error)
}

// AEADManager defines the interface for creating AEAD cipher instances.
type AEADManager interface {
	// CreateCipher creates an AEAD cipher instance for the specified algorithm.
	CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error)
}

// KeyManager defines the interface for managing KEKs and DEKs in envelope encryption.
type KeyManager interface {
	// CreateKek creates a new KEK wrapped under the master key.
	CreateKek(
		masterKey *cryptoDomain.MasterKey,
		alg cryptoDomain.Algorithm,
	) (cryptoDomain.Kek, error)

	// DecryptKek unwraps a KEK using the master key that encrypted it.
	DecryptKek(kek *cryptoDomain.Kek, masterKey *cryptoDomain.MasterKey) ([]byte, error)

	// CreateDek creates a new DEK wrapped under the KEK.
	CreateDek(kek *cryptoDomain.Kek, alg cryptoDomain.Algorithm) (cryptoDomain.Dek, error)

	// EncryptDek wraps an existing plaintext DEK under the given KEK.
	// Used when re-wrapping DEKs after KEK rotation.
	EncryptDek(dekKey []byte, kek *cryptoDomain.Kek) (encryptedKey, nonce []byte, err error)

	// DecryptDek unwraps a DEK using the KEK that encrypted it.
	DecryptDek(dek *cryptoDomain.Dek, kek *cryptoDomain.Kek) ([]byte, error)
}

// Envelope is the engine that encrypts and decrypts vault payloads using
// per-item DEKs wrapped by the active KEK. The associated data binds a
// ciphertext to its owning record so it cannot be silently relocated.
//
// Both methods are stateless apart from the read-only KEK chain and are safe
// for concurrent use. Plaintext DEK buffers are zeroed before return on every
// path, including errors.
type Envelope interface {
	// Encrypt encrypts plaintext under a fresh DEK and returns the ciphertext,
	// its nonce, and the wrapped DEK.
	Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, dek cryptoDomain.Dek, err error)

	// Decrypt unwraps the DEK and decrypts the ciphertext. Returns
	// ErrKekNotFound when the wrapping KEK has left the retention window and
	// ErrDecryptionFailed on any authentication failure.
	Decrypt(ciphertext, nonce, aad []byte, dek *cryptoDomain.Dek) ([]byte, error)
}
