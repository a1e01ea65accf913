package auth

import (
	"errors"
	"time"

	"github.com/dmitrymomot/oauthlink/pkg/identity"
	"github.com/dmitrymomot/oauthlink/pkg/jwt"
)

// DefaultSessionTTL is the lifetime of issued session tokens.
const DefaultSessionTTL = 7 * 24 * time.Hour

// SessionClaims are the claims carried by a session token.
type SessionClaims struct {
	jwt.RegisteredClaims
	Provider identity.Provider    `json:"prv,omitempty"`
	Outcome  identity.LinkOutcome `json:"out,omitempty"`
}

// AccountID returns the account the session belongs to.
func (c *SessionClaims) AccountID() string { return c.Subject }

// TokenIssuer signs and verifies session tokens.
type TokenIssuer struct {
	jwt *jwt.Service
	ttl time.Duration
	now func() time.Time
}

// TokenOption configures a TokenIssuer.
type TokenOption func(*TokenIssuer)

// WithSessionTTL sets the token lifetime.
func WithSessionTTL(ttl time.Duration) TokenOption {
	return func(t *TokenIssuer) {
		if ttl > 0 {
			t.ttl = ttl
		}
	}
}

// WithTokenClock sets the time source for iat and exp.
func WithTokenClock(now func() time.Time) TokenOption {
	return func(t *TokenIssuer) {
		if now != nil {
			t.now = now
		}
	}
}

// NewTokenIssuer creates an issuer on top of a jwt.Service. The service issuer, if set,
// is stamped into every token.
func NewTokenIssuer(svc *jwt.Service, opts ...TokenOption) *TokenIssuer {
	t := &TokenIssuer{
		jwt: svc,
		ttl: DefaultSessionTTL,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Issue signs a session token for the account and returns it with its expiry.
func (t *TokenIssuer) Issue(accountID string, provider identity.Provider, outcome identity.LinkOutcome) (string, time.Time, error) {
	if accountID == "" {
		return "", time.Time{}, ErrMissingAccountID
	}
	now := t.now().UTC()
	exp := now.Add(t.ttl)

	token, err := t.jwt.Generate(&SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			Issuer:    t.jwt.Issuer(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Provider: provider,
		Outcome:  outcome,
	})
	if err != nil {
		return "", time.Time{}, err
	}
	return token, exp.Truncate(time.Second), nil
}

// Verify parses a session token.
func (t *TokenIssuer) Verify(token string) (*SessionClaims, error) {
	var claims SessionClaims
	if err := t.jwt.Parse(token, &claims); err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, errors.Join(ErrInvalidSession, ErrMissingAccountID)
	}
	return &claims, nil
}

// JWT exposes the underlying service for middleware wiring.
func (t *TokenIssuer) JWT() *jwt.Service { return t.jwt }
