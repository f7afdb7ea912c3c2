package schedule

import "errors"

var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("slot not found")
	ErrSlotInactive = errors.New("slot is inactive")
	ErrForbidden    = errors.New("forbidden")
)
