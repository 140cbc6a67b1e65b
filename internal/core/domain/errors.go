package domain

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrInvalidCredentials    = errors.New("invalid username or password")
	ErrEmailNotVerified      = errors.New("email not verified")
	ErrUnauthorized          = errors.New("account has been blocked")
	ErrForbidden             = errors.New("access forbidden")
	ErrUserNotFound          = errors.New("user not found")
	ErrUserExists            = errors.New("user already exists")
	ErrInvalidRoleTransition = errors.New("invalid role transition")
	ErrRoleConflict          = errors.New("role changed concurrently")
	ErrInvalidToken          = errors.New("invalid or expired token")
	ErrInternal              = errors.New("internal error")
)

// Store level lookups. Services translate these into the errors above.
var (
	ErrTokenNotFound   = errors.New("token not found")
	ErrSessionNotFound = errors.New("session not found")
)
