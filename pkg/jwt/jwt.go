package jwt

import (
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// RegisteredClaims are the RFC 7519 registered claims; embed them in custom claim types.
type RegisteredClaims = jwtlib.RegisteredClaims

// Claims is implemented by every claims type the service can sign or parse.
type Claims = jwtlib.Claims

// MapClaims is a free-form claims set.
type MapClaims = jwtlib.MapClaims

// NewNumericDate converts t into a claim timestamp truncated to seconds.
func NewNumericDate(t time.Time) *jwtlib.NumericDate {
	return jwtlib.NewNumericDate(t)
}

// Service signs and verifies HS256 tokens.
// The signing key is kept in memory only.
type Service struct {
	signingKey []byte
	issuer     string
	leeway     time.Duration
	now        func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithIssuer requires parsed tokens to carry the given iss claim.
func WithIssuer(iss string) Option {
	return func(s *Service) { s.issuer = iss }
}

// WithLeeway tolerates clock skew when validating exp and nbf.
func WithLeeway(d time.Duration) Option {
	return func(s *Service) { s.leeway = d }
}

// WithClock sets the time source used for validation.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a JWT service with the provided signing key.
// The key should be at least 32 bytes for HMAC-SHA256.
func New(signingKey []byte, opts ...Option) (*Service, error) {
	if len(signingKey) == 0 {
		return nil, ErrMissingSigningKey
	}

	s := &Service{
		signingKey: signingKey,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NewFromString is New for string-based configuration.
func NewFromString(signingKey string, opts ...Option) (*Service, error) {
	return New([]byte(signingKey), opts...)
}

// Issuer returns the configured issuer, if any.
func (s *Service) Issuer() string { return s.issuer }

// Generate signs claims with HS256.
func (s *Service) Generate(claims Claims) (string, error) {
	if claims == nil {
		return "", ErrMissingClaims
	}
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", errors.Join(ErrInvalidClaims, err)
	}
	return token, nil
}

// Parse verifies the token signature and temporal claims and decodes it into claims,
// which must be a pointer to a claims struct or a MapClaims value.
func (s *Service) Parse(token string, claims Claims) error {
	if claims == nil {
		return ErrMissingClaims
	}

	opts := []jwtlib.ParserOption{
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithTimeFunc(s.now),
		jwtlib.WithLeeway(s.leeway),
	}
	if s.issuer != "" {
		opts = append(opts, jwtlib.WithIssuer(s.issuer))
	}

	_, err := jwtlib.ParseWithClaims(token, claims, func(*jwtlib.Token) (any, error) {
		return s.signingKey, nil
	}, opts...)
	if err != nil {
		return classify(err)
	}
	return nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwtlib.ErrTokenExpired):
		return errors.Join(ErrExpiredToken, err)
	case errors.Is(err, jwtlib.ErrTokenSignatureInvalid):
		return errors.Join(ErrInvalidSignature, err)
	case errors.Is(err, jwtlib.ErrTokenInvalidIssuer):
		return errors.Join(ErrInvalidIssuer, err)
	default:
		return errors.Join(ErrInvalidToken, err)
	}
}
