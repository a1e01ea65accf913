package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/oauth2"

	"github.com/dmitrymomot/oauthlink/pkg/identity"
	"github.com/dmitrymomot/oauthlink/pkg/logger"
)

// DefaultStateTTL bounds the time between the redirect and the callback.
const DefaultStateTTL = 10 * time.Minute

// Resolver reconciles a provider profile into an account; *identity.Resolver satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, profile identity.ProviderProfile) (*identity.Account, identity.LinkOutcome, error)
}

// Session is the result of a completed login.
type Session struct {
	Account   *identity.Account
	Outcome   identity.LinkOutcome
	Provider  identity.Provider
	Token     string
	ExpiresAt time.Time
}

// Service drives the OAuth login flow across all registered providers.
type Service struct {
	registry *Registry
	states   StateStore
	resolver Resolver
	tokens   *TokenIssuer
	logger   *slog.Logger
	stateTTL time.Duration
	now      func() time.Time

	afterLogin func(ctx context.Context, s *Session) error
}

// ServiceOption configures a Service during construction.
type ServiceOption func(*Service)

// WithLogger configures the logger for the service.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStateTTL configures how long an authorization request stays valid.
func WithStateTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.stateTTL = ttl
		}
	}
}

// WithClock sets the time source used for state expiry.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithAfterLogin configures a hook that runs after a successful login.
// Hook errors are logged and never fail the login.
func WithAfterLogin(fn func(context.Context, *Session) error) ServiceOption {
	return func(s *Service) { s.afterLogin = fn }
}

// NewService constructs the login flow service.
func NewService(registry *Registry, states StateStore, resolver Resolver, tokens *TokenIssuer, opts ...ServiceOption) *Service {
	s := &Service{
		registry: registry,
		states:   states,
		resolver: resolver,
		tokens:   tokens,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		stateTTL: DefaultStateTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry returns the provider registry.
func (s *Service) Registry() *Registry { return s.registry }

// Tokens returns the session token issuer.
func (s *Service) Tokens() *TokenIssuer { return s.tokens }

// AuthURL starts a login: it stores a fresh state and PKCE verifier and returns
// the provider consent URL.
func (s *Service) AuthURL(ctx context.Context, provider identity.Provider) (string, error) {
	adapter, err := s.registry.Get(provider)
	if err != nil {
		return "", err
	}

	state, err := generateState()
	if err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	st := OAuthState{
		State:     state,
		Provider:  provider,
		Verifier:  oauth2.GenerateVerifier(),
		ExpiresAt: s.now().Add(s.stateTTL),
	}
	if err := s.states.Save(ctx, st); err != nil {
		return "", fmt.Errorf("failed to store state: %w", err)
	}

	return adapter.AuthURL(st.State, st.Verifier), nil
}

// Callback completes a login. The state is consumed before anything else so
// it can never be replayed, even when a later step fails.
func (s *Service) Callback(ctx context.Context, provider identity.Provider, code, state string) (*Session, error) {
	adapter, err := s.registry.Get(provider)
	if err != nil {
		return nil, err
	}
	if state == "" {
		return nil, ErrInvalidState
	}

	st, err := s.states.Consume(ctx, state)
	if err != nil {
		if errors.Is(err, ErrStateNotFound) {
			return nil, ErrInvalidState
		}
		return nil, fmt.Errorf("failed to validate state: %w", err)
	}
	if st.Provider != provider {
		s.logger.WarnContext(ctx, "oauth state provider mismatch",
			logger.Component("auth"),
			logger.Provider(provider),
			slog.String("state_provider", st.Provider.String()),
		)
		return nil, ErrInvalidState
	}

	profile, err := adapter.ResolveProfile(ctx, code, st.Verifier)
	if err != nil {
		if errors.Is(err, ErrInvalidCode) {
			return nil, ErrInvalidCode
		}
		return nil, fmt.Errorf("failed to resolve provider profile: %w", err)
	}

	acc, outcome, err := s.resolver.Resolve(ctx, profile)
	if err != nil {
		return nil, err
	}

	token, exp, err := s.tokens.Issue(acc.ID, provider, outcome)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session: %w", err)
	}

	sess := &Session{
		Account:   acc,
		Outcome:   outcome,
		Provider:  provider,
		Token:     token,
		ExpiresAt: exp,
	}

	s.logger.InfoContext(ctx, "login completed",
		logger.Component("auth"),
		logger.AccountID(acc.ID),
		logger.Provider(provider),
		logger.Outcome(outcome),
	)

	if s.afterLogin != nil {
		hookCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		if err := s.afterLogin(hookCtx, sess); err != nil {
			s.logger.ErrorContext(ctx, "afterLogin hook failed",
				logger.Component("auth"),
				logger.AccountID(acc.ID),
				logger.Provider(provider),
				logger.Error(err),
			)
		}
	}

	return sess, nil
}
