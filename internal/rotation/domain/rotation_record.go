// Package domain defines the rotation history entities.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Trigger identifies what initiated a rotation.
type Trigger string

const (
	TriggerManual    Trigger = "manual"
	TriggerScheduled Trigger = "scheduled"
)

// Valid checks if the trigger is supported.
func (t Trigger) Valid() bool {
	switch t {
	case TriggerManual, TriggerScheduled:
		return true
	}
	return false
}

// RotationRecord captures one completed rotation of a vault item. The
// versions let operators correlate rotations with the item's CAS history.
type RotationRecord struct {
	ID          uuid.UUID
	VaultItemID uuid.UUID
	ActorID     uuid.UUID
	Trigger     Trigger
	OldVersion  uint
	NewVersion  uint
	RotatedAt   time.Time
}
