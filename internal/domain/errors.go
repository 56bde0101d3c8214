package domain

import "errors"

// Storage level sentinels.
var (
	// ErrNotFound indicates the requested row or key does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a unique constraint violation.
	ErrConflict = errors.New("conflict")
)

// Authentication failures. Each maps to a distinct boundary status.
var (
	ErrInvalidCredential    = errors.New("invalid credential")
	ErrRefreshTokenInvalid  = errors.New("refresh token invalid")
	ErrAccessTokenMalformed = errors.New("access token malformed")
	ErrSessionMismatch      = errors.New("session mismatch")
	ErrSessionNotFound      = errors.New("session not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrEmailTaken           = errors.New("email already registered")
	ErrNickNameTaken        = errors.New("nickname already taken")
)

// Verification code failures.
var (
	ErrCodeNotFound  = errors.New("verification code not found")
	ErrCodeExpired   = errors.New("verification code expired")
	ErrCodeMismatch  = errors.New("verification code mismatch")
	ErrDeliveryError = errors.New("mail delivery failed")
)
