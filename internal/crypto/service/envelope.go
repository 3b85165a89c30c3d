package service

import (
	"fmt"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/vaultcore/internal/crypto/domain"
)

// EnvelopeService implements the Envelope interface on top of the KEK chain,
// the AEAD manager, and the key manager. Encrypt always wraps a fresh DEK
// under the active KEK; Decrypt resolves the wrapping KEK from the chain, so
// items wrapped under historical KEKs stay readable for the retention window.
type EnvelopeService struct {
	kekChain    *cryptoDomain.KekChain
	aeadManager AEADManager
	keyManager  KeyManager
	algorithm   cryptoDomain.Algorithm
}

// NewEnvelope creates an EnvelopeService. The algorithm selects the AEAD used
// for new payloads and DEK wraps; decryption follows whatever algorithm the
// stored DEK records.
func NewEnvelope(
	kekChain *cryptoDomain.KekChain,
	aeadManager AEADManager,
	keyManager KeyManager,
	algorithm cryptoDomain.Algorithm,
) *EnvelopeService {
	return &EnvelopeService{
		kekChain:    kekChain,
		aeadManager: aeadManager,
		keyManager:  keyManager,
		algorithm:   algorithm,
	}
}

// Encrypt encrypts plaintext under a fresh DEK wrapped by the active KEK.
// The plaintext DEK exists only inside this call and is zeroed before return
// on every path.
func (e *EnvelopeService) Encrypt(
	plaintext, aad []byte,
) (ciphertext, nonce []byte, dek cryptoDomain.Dek, err error) {
	kek, ok := e.kekChain.Active()
	if !ok {
		return nil, nil, cryptoDomain.Dek{}, cryptoDomain.ErrKekNotFound
	}

	dek, err = e.keyManager.CreateDek(kek, e.algorithm)
	if err != nil {
		return nil, nil, cryptoDomain.Dek{}, err
	}

	dekKey, err := e.keyManager.DecryptDek(&dek, kek)
	if err != nil {
		return nil, nil, cryptoDomain.Dek{}, err
	}
	defer cryptoDomain.Zero(dekKey)

	cipher, err := e.aeadManager.CreateCipher(dekKey, dek.Algorithm)
	if err != nil {
		return nil, nil, cryptoDomain.Dek{}, err
	}

	ciphertext, nonce, err = cipher.Encrypt(plaintext, aad)
	if err != nil {
		return nil, nil, cryptoDomain.Dek{}, err
	}

	return ciphertext, nonce, dek, nil
}

// Decrypt unwraps the DEK with its recorded KEK and decrypts the ciphertext.
// A missing KEK yields ErrKekNotFound; any authentication failure yields
// ErrDecryptionFailed without distinguishing the cause.
func (e *EnvelopeService) Decrypt(
	ciphertext, nonce, aad []byte,
	dek *cryptoDomain.Dek,
) ([]byte, error) {
	kek, ok := e.kekChain.Get(dek.KekID)
	if !ok {
		return nil, cryptoDomain.ErrKekNotFound
	}

	dekKey, err := e.keyManager.DecryptDek(dek, kek)
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(dekKey)

	cipher, err := e.aeadManager.CreateCipher(dekKey, dek.Algorithm)
	if err != nil {
		return nil, err
	}

	plaintext, err := cipher.Decrypt(ciphertext, nonce, aad)
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}

	return plaintext, nil
}

// ItemAAD builds the associated data that binds a ciphertext to its vault
// item and version. Moving a ciphertext to another record or version changes
// the AAD and fails authentication.
func ItemAAD(vaultID uuid.UUID, version uint) []byte {
	return fmt.Appendf(nil, "%s:%d", vaultID, version)
}
