// Package service provides API key generation and verification for identity.
// Keys are random 256-bit values; only their Argon2id hash is persisted.
package service

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/allisson/go-pwdhash"

	apperrors "github.com/allisson/vaultcore/internal/errors"
)

// APIKeyService defines operations for API key generation and verification.
type APIKeyService interface {
	// GenerateKey creates a new cryptographically secure random API key.
	// Returns both the plain text key (shown to the user exactly once) and
	// the hashed version (stored in the database).
	GenerateKey() (plainKey string, keyHash string, err error)

	// VerifyKey compares a plain text key against a stored hash.
	// The comparison is constant-time to prevent timing attacks.
	VerifyKey(plainKey string, keyHash string) bool
}

// apiKeyService implements APIKeyService using Argon2id hashing.
type apiKeyService struct {
	hasher *pwdhash.PasswordHasher
}

// NewAPIKeyService creates a new APIKeyService instance.
// Uses the Moderate policy for a balance between security and performance.
func NewAPIKeyService() (APIKeyService, error) {
	hasher, err := pwdhash.New(
		pwdhash.WithPolicy(pwdhash.PolicyModerate),
	)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create api key hasher")
	}

	return &apiKeyService{hasher: hasher}, nil
}

// GenerateKey creates a new 32-byte random key, base64-encoded for transport.
func (s *apiKeyService) GenerateKey() (plainKey string, keyHash string, err error) {
	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", "", apperrors.Wrap(err, "failed to generate random api key")
	}

	plainKey = base64.URLEncoding.EncodeToString(randomBytes)

	keyHash, err = s.hasher.Hash([]byte(plainKey))
	if err != nil {
		return "", "", apperrors.Wrap(err, "failed to hash api key")
	}

	return plainKey, keyHash, nil
}

// VerifyKey performs a constant-time comparison between a plain key and its hash.
func (s *apiKeyService) VerifyKey(plainKey string, keyHash string) bool {
	ok, err := s.hasher.Verify([]byte(plainKey), keyHash)
	if err != nil {
		return false
	}
	return ok
}
