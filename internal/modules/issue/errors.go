package issue

import "errors"

var (
	ErrValidation    = errors.New("issue: validation failed")
	ErrNotFound      = errors.New("issue: not found")
	ErrForbidden     = errors.New("issue: access denied")
	ErrNotOpen       = errors.New("issue: not open")
	ErrHasActiveWork = errors.New("issue: active bookings exist")
)
