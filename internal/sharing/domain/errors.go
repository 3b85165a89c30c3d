package domain

import (
	"github.com/allisson/vaultcore/internal/errors"
)

// Sharing-specific error definitions.
var (
	// ErrGrantNotFound indicates no grant exists for the (item, grantee) pair.
	ErrGrantNotFound = errors.Wrap(errors.ErrNotFound, "share grant not found")

	// ErrInvalidPermission indicates an unknown permission level.
	ErrInvalidPermission = errors.Wrap(errors.ErrInvalidInput, "invalid permission")

	// ErrInvalidGrantee indicates the grant targets neither a user nor an org,
	// or targets the item's owner.
	ErrInvalidGrantee = errors.Wrap(errors.ErrInvalidInput, "invalid grantee")

	// ErrGranteeNotFound indicates the share target does not exist in the
	// identity directory.
	ErrGranteeNotFound = errors.Wrap(errors.ErrInvalidInput, "grantee does not exist")
)
