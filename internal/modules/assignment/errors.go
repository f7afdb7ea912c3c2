package assignment

import "errors"

var (
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("booking not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrProofRequired     = errors.New("at least one proof is required")
	ErrCapacityConflict  = errors.New("capacity conflict")
	ErrExtensionResolved = errors.New("extension request already resolved")
)
