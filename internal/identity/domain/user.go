// Package domain defines the identity entities. Users authenticate with an
// API key; only the argon2id hash of the key is stored.
package domain

import (
	"time"

	"github.com/google/uuid"

	apperrors "github.com/allisson/vaultcore/internal/errors"
)

// User represents a principal that can own, share, and access vault items.
// OrgID groups users for organization-scoped share grants.
type User struct {
	ID         uuid.UUID
	Email      string
	OrgID      *uuid.UUID
	APIKeyHash string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Domain-specific errors for identity operations.
var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = apperrors.Wrap(apperrors.ErrNotFound, "user not found")

	// ErrUserAlreadyExists indicates a user with the same email already exists.
	ErrUserAlreadyExists = apperrors.Wrap(apperrors.ErrConflict, "user already exists")

	// ErrEmailRequired indicates the email field is required.
	ErrEmailRequired = apperrors.Wrap(apperrors.ErrInvalidInput, "email is required")

	// ErrInvalidAPIKey indicates the presented API key does not match.
	ErrInvalidAPIKey = apperrors.Wrap(apperrors.ErrUnauthorized, "invalid api key")
)
