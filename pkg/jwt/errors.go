package jwt

import "errors"

var (
	ErrInvalidToken      = errors.New("jwt: invalid token")
	ErrExpiredToken      = errors.New("jwt: token is expired")
	ErrInvalidSignature  = errors.New("jwt: invalid signature")
	ErrInvalidIssuer     = errors.New("jwt: unexpected issuer")
	ErrMissingSigningKey = errors.New("jwt: missing signing key")
	ErrMissingClaims     = errors.New("jwt: missing claims")
	ErrInvalidClaims     = errors.New("jwt: invalid claims")
	ErrMissingToken      = errors.New("jwt: missing token")
)
