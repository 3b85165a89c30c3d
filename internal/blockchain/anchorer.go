// Package blockchain provides best-effort anchoring of vault item content
// hashes to an external ledger. Anchoring is an integrity witness, not an
// access-control mechanism: failures are logged and never block the parent
// operation.
package blockchain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// VerificationResult is the outcome of checking a content hash against the
// external ledger.
type VerificationResult string

const (
	// VerificationMatch means the ledger confirms the hash.
	VerificationMatch VerificationResult = "match"
	// VerificationMismatch means the ledger holds a different hash; the local
	// row has been tampered with or corrupted.
	VerificationMismatch VerificationResult = "mismatch"
	// VerificationUnavailable means the ledger could not be consulted.
	VerificationUnavailable VerificationResult = "unavailable"
)

// Anchorer submits a content hash to a ledger and returns an opaque reference
// to the anchoring transaction. Verify consults the ledger for a previously
// anchored hash; it never errors for a plain mismatch, only for transport
// failures.
type Anchorer interface {
	Anchor(ctx context.Context, hash string) (ref string, err error)
	Verify(ctx context.Context, hash, ref string) (VerificationResult, error)
}

// ContentHash computes the canonical hash anchored for a vault item version.
// The hash binds the item identity, its version, and the ciphertext, so a
// ledger lookup detects both tampering and version rollback.
func ContentHash(vaultItemID uuid.UUID, version uint, ciphertext []byte) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s:%d:", vaultItemID, version)
	h.Write(ciphertext)
	return hex.EncodeToString(h.Sum(nil))
}

// NoopAnchorer is used when anchoring is disabled. It returns an empty
// reference without error and reports every verification as unavailable.
type NoopAnchorer struct{}

// Anchor implements Anchorer.
func (NoopAnchorer) Anchor(_ context.Context, _ string) (string, error) {
	return "", nil
}

// Verify implements Anchorer.
func (NoopAnchorer) Verify(_ context.Context, _, _ string) (VerificationResult, error) {
	return VerificationUnavailable, nil
}

// Service wraps an Anchorer with a timeout and failure logging so callers
// can anchor fire-and-forget.
type Service struct {
	anchorer Anchorer
	timeout  time.Duration
	logger   *slog.Logger
}

// NewService creates a new Service. A nil anchorer is replaced with
// NoopAnchorer.
func NewService(anchorer Anchorer, timeout time.Duration, logger *slog.Logger) *Service {
	if anchorer == nil {
		anchorer = NoopAnchorer{}
	}
	return &Service{
		anchorer: anchorer,
		timeout:  timeout,
		logger:   logger,
	}
}

// Anchor computes the content hash and submits it within the configured
// timeout. On failure it logs and returns the hash with an empty reference;
// the caller persists the hash regardless so a later sweep can re-anchor.
func (s *Service) Anchor(ctx context.Context, vaultItemID uuid.UUID, version uint, ciphertext []byte) (hash, ref string) {
	hash = ContentHash(vaultItemID, version, ciphertext)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ref, err := s.anchorer.Anchor(ctx, hash)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("blockchain anchoring failed",
				slog.String("vault_item_id", vaultItemID.String()),
				slog.Uint64("version", uint64(version)),
				slog.Any("error", err),
			)
		}
		return hash, ""
	}

	return hash, ref
}

// Verify checks the item's current ciphertext against its anchored hash. The
// recomputed hash is compared with the stored one, and when an anchor
// reference exists the ledger is consulted too, so a rewrite of the local row
// cannot defeat the check. A mismatch indicates tampering or corruption;
// callers log it as a warning but do not withhold the item, since the local
// AEAD check remains authoritative.
func (s *Service) Verify(
	ctx context.Context,
	vaultItemID uuid.UUID,
	version uint,
	ciphertext []byte,
	storedHash, anchorRef string,
) VerificationResult {
	if storedHash == "" {
		return VerificationUnavailable
	}
	if ContentHash(vaultItemID, version, ciphertext) != storedHash {
		return VerificationMismatch
	}
	if anchorRef == "" {
		return VerificationMatch
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.anchorer.Verify(ctx, storedHash, anchorRef)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("blockchain verification failed",
				slog.String("vault_item_id", vaultItemID.String()),
				slog.Uint64("version", uint64(version)),
				slog.Any("error", err),
			)
		}
		return VerificationUnavailable
	}
	return result
}
