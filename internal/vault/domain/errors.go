package domain

import (
	"github.com/allisson/vaultcore/internal/errors"
)

// Vault-specific error definitions.
var (
	// ErrVaultItemNotFound indicates no active item exists with the given ID.
	// Soft-deleted items are reported as not found to non-owners.
	ErrVaultItemNotFound = errors.Wrap(errors.ErrNotFound, "vault item not found")

	// ErrInvalidSecretType indicates the secret type is not in the supported set.
	ErrInvalidSecretType = errors.Wrap(errors.ErrInvalidInput, "invalid secret type")

	// ErrEmptyValue indicates an empty secret payload was supplied.
	ErrEmptyValue = errors.Wrap(errors.ErrInvalidInput, "secret value must not be empty")

	// ErrStaleVersion indicates a concurrent mutation won the race; the
	// caller should re-read and retry.
	ErrStaleVersion = errors.Wrap(errors.ErrVersionConflict, "vault item was modified concurrently")
)
