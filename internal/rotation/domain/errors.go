package domain

import (
	apperrors "github.com/allisson/vaultcore/internal/errors"
)

var (
	// ErrInvalidTrigger indicates an unsupported rotation trigger.
	ErrInvalidTrigger = apperrors.Wrap(apperrors.ErrInvalidInput, "invalid rotation trigger")
	// ErrRotationNotEnabled indicates a scheduled rotation was requested for
	// an item without auto-rotation.
	ErrRotationNotEnabled = apperrors.Wrap(apperrors.ErrInvalidInput, "auto rotation not enabled for item")
)
