package auth

import "errors"

var (
	ErrValidation         = errors.New("auth: validation failed")
	ErrEmailTaken         = errors.New("auth: email already registered")
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrInactiveAccount    = errors.New("auth: account is deactivated")
	ErrForbidden          = errors.New("auth: access denied")
	ErrNotFound           = errors.New("auth: user not found")
)
