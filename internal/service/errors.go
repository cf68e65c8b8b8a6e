package service

import "errors"

var (
	// ErrInvalidCredentials is returned for unknown email, wrong password
	// and disabled account alike, so callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	// ErrInvalidToken covers unknown, revoked and expired refresh tokens.
	ErrInvalidToken     = errors.New("invalid or expired refresh token")
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrInvalidInput     = errors.New("invalid input")
	ErrImageTooLarge    = errors.New("image too large")
	ErrImageUnsupported = errors.New("unsupported image type")
)
