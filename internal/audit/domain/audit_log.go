// Package domain defines the audit trail entities. The audit log is
// append-only: entries are never updated, and deleted only by the GDPR purge
// path. Every attempted vault operation produces exactly one entry, success
// or failure.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Action identifies the attempted operation.
type Action string

const (
	ActionCreate         Action = "secret.create"
	ActionGet            Action = "secret.get"
	ActionList           Action = "secret.list"
	ActionUpdateMetadata Action = "secret.update_metadata"
	ActionUpdateValue    Action = "secret.update_value"
	ActionDelete         Action = "secret.delete"
	ActionRotate         Action = "secret.rotate"
	ActionShare          Action = "secret.share"
	ActionRevoke         Action = "secret.revoke"
	ActionPurge          Action = "user.purge"
)

// AuditLog records one attempted operation with its outcome. ErrorDetail
// carries the failure classification only; it never contains plaintext
// values or key material.
type AuditLog struct {
	ID          uuid.UUID
	VaultItemID *uuid.UUID
	ActorID     uuid.UUID
	Action      Action
	Success     bool
	IPAddress   string
	UserAgent   string
	ErrorDetail string
	CreatedAt   time.Time
}

// QueryFilter narrows audit queries. Zero values mean no filtering.
type QueryFilter struct {
	VaultItemID *uuid.UUID
	ActorID     *uuid.UUID
	From        *time.Time
	To          *time.Time
}
