package auth

import "errors"

// OAuth flow errors
var (
	ErrInvalidState    = errors.New("invalid OAuth state")
	ErrStateNotFound   = errors.New("OAuth state not found or expired")
	ErrInvalidCode     = errors.New("invalid OAuth code")
	ErrUnknownProvider = errors.New("unknown or unconfigured provider")
	ErrProfileFetch    = errors.New("failed to fetch provider profile")
)

// Registry errors
var (
	ErrDuplicateProvider = errors.New("provider adapter already registered")
	ErrNilAdapter        = errors.New("provider adapter is nil")
)

// Session errors
var (
	ErrMissingAccountID = errors.New("account id is required")
	ErrInvalidSession   = errors.New("invalid session token")
)
