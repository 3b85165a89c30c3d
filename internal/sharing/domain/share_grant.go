// Package domain defines the access-control domain models for vault sharing.
// A grant delegates time-bounded, permission-scoped access from a secret's
// owner (or a read_write holder) to another user or an organization.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Permission is the access level carried by a share grant.
type Permission string

const (
	PermissionRead      Permission = "read"
	PermissionReadWrite Permission = "read_write"
)

// Valid reports whether the permission is a known level.
func (p Permission) Valid() bool {
	return p == PermissionRead || p == PermissionReadWrite
}

// Satisfies reports whether the permission covers the required level.
// read_write covers read; read covers only read.
func (p Permission) Satisfies(required Permission) bool {
	if p == PermissionReadWrite {
		return true
	}
	return p == required
}

// ShareGrant delegates access to a vault item. Exactly one of GranteeUserID
// or GranteeOrgID is set. Grants are upserted per (vault item, grantee):
// re-sharing with the same grantee replaces the previous grant.
type ShareGrant struct {
	ID            uuid.UUID
	VaultItemID   uuid.UUID
	GrantorID     uuid.UUID
	GranteeUserID *uuid.UUID
	GranteeOrgID  *uuid.UUID
	Permission    Permission
	ExpiresAt     *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Expired reports whether the grant has lapsed at the given instant.
// A grant with no expiry never expires.
func (g *ShareGrant) Expired(now time.Time) bool {
	return g.ExpiresAt != nil && !now.Before(*g.ExpiresAt)
}

// Deny reasons returned by access checks. Expired grants are reported
// distinctly so callers can tell a lapsed delegation from a missing one.
const (
	DenyReasonNoGrant = "no_grant"
	DenyReasonExpired = "expired"
)

// Decision is the result of an access check.
type Decision struct {
	Allowed bool
	// Reason is set on denial: DenyReasonNoGrant or DenyReasonExpired.
	Reason string
	// Permission is the effective level that satisfied the check, set on allow.
	Permission Permission
}
