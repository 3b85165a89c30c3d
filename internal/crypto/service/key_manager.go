package service

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/vaultcore/internal/crypto/domain"
)

// KeyManagerService implements the KeyManager interface for envelope encryption.
//
// It manages the lifecycle of KEKs and DEKs in the two-tier wrap scheme:
// KEKs are wrapped by a master key, DEKs are wrapped by KEKs, and payloads
// are encrypted with DEKs. Cipher instances come from the injected
// AEADManager so algorithms stay swappable and the service stays testable.
type KeyManagerService struct {
	aeadManager AEADManager
}

// NewKeyManager creates a new KeyManagerService with the provided AEADManager.
func NewKeyManager(aeadManager AEADManager) *KeyManagerService {
	return &KeyManagerService{
		aeadManager: aeadManager,
	}
}

// CreateKek generates a random 256-bit KEK and wraps it under the master key.
// The returned Kek carries both the wrapped form for persistence and the
// plaintext Key for immediate use; the caller owns zeroing the plaintext.
func (km *KeyManagerService) CreateKek(
	masterKey *cryptoDomain.MasterKey,
	alg cryptoDomain.Algorithm,
) (cryptoDomain.Kek, error) {
	kekKey := make([]byte, 32)
	if _, err := rand.Read(kekKey); err != nil {
		return cryptoDomain.Kek{}, fmt.Errorf("failed to generate KEK: %w", err)
	}

	aead, err := km.aeadManager.CreateCipher(masterKey.Key, alg)
	if err != nil {
		cryptoDomain.Zero(kekKey)
		return cryptoDomain.Kek{}, err
	}

	encryptedKey, nonce, err := aead.Encrypt(kekKey, nil)
	if err != nil {
		cryptoDomain.Zero(kekKey)
		return cryptoDomain.Kek{}, fmt.Errorf("failed to encrypt KEK: %w", err)
	}

	kek := cryptoDomain.Kek{
		ID:           uuid.Must(uuid.NewV7()),
		MasterKeyID:  masterKey.ID,
		Algorithm:    alg,
		EncryptedKey: encryptedKey,
		Key:          kekKey,
		Nonce:        nonce,
		Version:      1,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}

	return kek, nil
}

// DecryptKek unwraps a KEK using the master key that encrypted it. The caller
// owns zeroing the returned plaintext key.
func (km *KeyManagerService) DecryptKek(
	kek *cryptoDomain.Kek,
	masterKey *cryptoDomain.MasterKey,
) ([]byte, error) {
	aead, err := km.aeadManager.CreateCipher(masterKey.Key, kek.Algorithm)
	if err != nil {
		return nil, err
	}

	kekKey, err := aead.Decrypt(kek.EncryptedKey, kek.Nonce, nil)
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}

	return kekKey, nil
}

// CreateDek generates a random 256-bit DEK and wraps it under the KEK.
// The KEK must have its plaintext Key populated. The plaintext DEK is not
// returned; unwrap it with DecryptDek when needed.
func (km *KeyManagerService) CreateDek(
	kek *cryptoDomain.Kek,
	alg cryptoDomain.Algorithm,
) (cryptoDomain.Dek, error) {
	dekKey := make([]byte, 32)
	if _, err := rand.Read(dekKey); err != nil {
		return cryptoDomain.Dek{}, fmt.Errorf("failed to generate DEK: %w", err)
	}
	defer cryptoDomain.Zero(dekKey)

	encryptedKey, nonce, err := km.EncryptDek(dekKey, kek)
	if err != nil {
		return cryptoDomain.Dek{}, err
	}

	dek := cryptoDomain.Dek{
		ID:           uuid.Must(uuid.NewV7()),
		KekID:        kek.ID,
		Algorithm:    alg,
		EncryptedKey: encryptedKey,
		Nonce:        nonce,
		CreatedAt:    time.Now().UTC(),
	}

	return dek, nil
}

// EncryptDek wraps an existing plaintext DEK under the given KEK. Used during
// DEK re-wrap after KEK rotation; the caller retains ownership of dekKey.
func (km *KeyManagerService) EncryptDek(
	dekKey []byte,
	kek *cryptoDomain.Kek,
) (encryptedKey, nonce []byte, err error) {
	aead, err := km.aeadManager.CreateCipher(kek.Key, kek.Algorithm)
	if err != nil {
		return nil, nil, err
	}

	encryptedKey, nonce, err = aead.Encrypt(dekKey, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encrypt DEK: %w", err)
	}

	return encryptedKey, nonce, nil
}

// DecryptDek unwraps a DEK using the KEK that encrypted it. The plaintext DEK
// must be zeroed by the caller immediately after use and never persisted.
func (km *KeyManagerService) DecryptDek(
	dek *cryptoDomain.Dek,
	kek *cryptoDomain.Kek,
) ([]byte, error) {
	aead, err := km.aeadManager.CreateCipher(kek.Key, kek.Algorithm)
	if err != nil {
		return nil, err
	}

	dekKey, err := aead.Decrypt(dek.EncryptedKey, dek.Nonce, nil)
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}

	return dekKey, nil
}
