package domain

import (
	apperrors "github.com/allisson/vaultcore/internal/errors"
)

var (
	// ErrAuditLogNotFound indicates the requested entry does not exist.
	ErrAuditLogNotFound = apperrors.Wrap(apperrors.ErrNotFound, "audit log not found")
)
