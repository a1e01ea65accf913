package identity

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmitrymomot/oauthlink/pkg/logger"
)

const tracerName = "github.com/dmitrymomot/oauthlink/pkg/identity"

// DefaultDisplayName is used when neither the provider nor the adapter supplied a name.
const DefaultDisplayName = "User"

// maxAttempts bounds the resolution pipeline: the first run plus one retry after a conflict.
const maxAttempts = 2

// Resolver maps provider profiles onto accounts.
// It holds no mutable state; concurrent calls coordinate only through the vault.
type Resolver struct {
	vault  Vault
	logger *slog.Logger
	tracer trace.Tracer
	now    func() time.Time
	newID  func() string
}

// ResolverOption configures a Resolver during construction.
type ResolverOption func(*Resolver)

// WithLogger configures the logger for the resolver.
func WithLogger(l *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithTracer overrides the tracer taken from the global otel provider.
func WithTracer(t trace.Tracer) ResolverOption {
	return func(r *Resolver) {
		if t != nil {
			r.tracer = t
		}
	}
}

// WithClock sets the time source used for link and account timestamps.
func WithClock(now func() time.Time) ResolverOption {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// WithIDGenerator sets the generator for new account identifiers.
func WithIDGenerator(fn func() string) ResolverOption {
	return func(r *Resolver) {
		if fn != nil {
			r.newID = fn
		}
	}
}

// NewResolver creates a resolver backed by the given vault.
// Defaults: discard logger, global otel tracer, time.Now, random UUIDv4 account IDs.
func NewResolver(vault Vault, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		vault:  vault,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer: otel.Tracer(tracerName),
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the account the profile belongs to and how it was reached.
//
// Decision order: exact (provider, subject) match, then email match, then creation.
// At most one vault write happens per successful call and none on failure.
// A uniqueness conflict re-runs the pipeline once; a second conflict
// yields ErrTransientConflict.
func (r *Resolver) Resolve(ctx context.Context, profile ProviderProfile) (*Account, LinkOutcome, error) {
	ctx, span := r.tracer.Start(ctx, "identity.Resolve",
		trace.WithAttributes(attribute.String("identity.provider", string(profile.Provider))),
	)
	defer span.End()

	if err := profile.Validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, "", err
	}
	profile.Email = NormalizeEmail(profile.Email)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		acc, outcome, err := r.resolveOnce(ctx, profile)
		if err == nil {
			span.SetAttributes(
				attribute.String("identity.outcome", string(outcome)),
				attribute.String("identity.account_id", acc.ID),
				attribute.Int("identity.attempts", attempt),
			)
			r.logger.InfoContext(ctx, "identity resolved",
				logger.Component("identity"),
				logger.Provider(profile.Provider),
				logger.AccountID(acc.ID),
				logger.Outcome(outcome),
				logger.Attempt(attempt),
			)
			return acc, outcome, nil
		}

		if !IsConflict(err) || errors.Is(err, ErrProviderLinkedElsewhere) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			r.logger.DebugContext(ctx, "identity resolution failed",
				logger.Component("identity"),
				logger.Provider(profile.Provider),
				logger.Error(err),
			)
			return nil, "", err
		}

		lastErr = err
		r.logger.WarnContext(ctx, "identity resolution hit a vault conflict",
			logger.Component("identity"),
			logger.Provider(profile.Provider),
			logger.Attempt(attempt),
			logger.Error(err),
		)
	}

	err := fmt.Errorf("%w: %w", ErrTransientConflict, lastErr)
	span.RecordError(err)
	span.SetStatus(codes.Error, "transient conflict")
	return nil, "", err
}

// resolveOnce runs one pass of the decision pipeline.
// Conflicts from the vault are returned unwrapped so Resolve can retry them.
func (r *Resolver) resolveOnce(ctx context.Context, p ProviderProfile) (*Account, LinkOutcome, error) {
	acc, err := r.vault.FindByProviderSubject(ctx, p.Provider, p.SubjectID)
	switch {
	case err == nil:
		r.logger.DebugContext(ctx, "provider identity already linked",
			logger.Component("identity"),
			logger.Provider(p.Provider),
			logger.AccountID(acc.ID),
		)
		return r.refreshLink(ctx, acc, p)
	case !errors.Is(err, ErrAccountNotFound):
		return nil, "", persistenceError(err)
	}

	if p.Email == "" {
		return nil, "", ErrMissingEmail
	}

	acc, err = r.vault.FindByEmail(ctx, p.Email)
	switch {
	case err == nil:
		r.logger.DebugContext(ctx, "account found by email",
			logger.Component("identity"),
			logger.Provider(p.Provider),
			logger.AccountID(acc.ID),
		)
		return r.mergeLink(ctx, acc, p)
	case !errors.Is(err, ErrAccountNotFound):
		return nil, "", persistenceError(err)
	}

	return r.createAccount(ctx, p)
}

func (r *Resolver) refreshLink(ctx context.Context, acc *Account, p ProviderProfile) (*Account, LinkOutcome, error) {
	link, ok := acc.Links[p.Provider]
	if !ok || link.SubjectID != p.SubjectID {
		// The vault answered the lookup with an account that does not hold the pair.
		return nil, "", persistenceError(fmt.Errorf("account %s returned for %s without matching link", acc.ID, LinkKey(p.Provider, p.SubjectID)))
	}

	link.AccessToken = p.AccessToken
	if p.RefreshToken != "" {
		link.RefreshToken = p.RefreshToken
	}

	updated, err := r.vault.AddOrUpdateLink(ctx, acc.ID, link)
	if err != nil {
		return nil, "", writeError(err)
	}
	return updated, OutcomeMatched, nil
}

func (r *Resolver) mergeLink(ctx context.Context, acc *Account, p ProviderProfile) (*Account, LinkOutcome, error) {
	if existing, ok := acc.Links[p.Provider]; ok && existing.SubjectID != p.SubjectID {
		r.logger.WarnContext(ctx, "replacing provider link with a different subject",
			logger.Component("identity"),
			logger.Provider(p.Provider),
			logger.AccountID(acc.ID),
			slog.String("previous_subject_id", existing.SubjectID),
		)
	}

	link := ProviderLink{
		Provider:     p.Provider,
		SubjectID:    p.SubjectID,
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		LinkedAt:     r.now().UTC(),
	}

	updated, err := r.vault.AddOrUpdateLink(ctx, acc.ID, link)
	if err != nil {
		var conflict *ConflictError
		if errors.As(err, &conflict) && conflict.Kind == ConflictProviderSubject &&
			conflict.OwnerID != "" && conflict.OwnerID != acc.ID {
			return nil, "", fmt.Errorf("%w: %w", ErrProviderLinkedElsewhere, err)
		}
		return nil, "", writeError(err)
	}
	return updated, OutcomeMerged, nil
}

func (r *Resolver) createAccount(ctx context.Context, p ProviderProfile) (*Account, LinkOutcome, error) {
	now := r.now().UTC()
	name := p.DisplayName
	if name == "" {
		name = DefaultDisplayName
	}

	draft := AccountDraft{
		ID:           r.newID(),
		PrimaryEmail: p.Email,
		DisplayName:  name,
		AvatarURL:    p.AvatarURL,
		Link: ProviderLink{
			Provider:     p.Provider,
			SubjectID:    p.SubjectID,
			AccessToken:  p.AccessToken,
			RefreshToken: p.RefreshToken,
			LinkedAt:     now,
		},
		CreatedAt: now,
	}

	acc, err := r.vault.InsertAccount(ctx, draft)
	if err != nil {
		return nil, "", writeError(err)
	}
	return acc, OutcomeCreated, nil
}

// writeError classifies a failed vault write. Conflicts pass through for retry;
// an account vanishing between read and write is treated as a stale read.
func writeError(err error) error {
	switch {
	case IsConflict(err):
		return err
	case errors.Is(err, ErrAccountNotFound):
		return &ConflictError{Kind: ConflictStale}
	default:
		return persistenceError(err)
	}
}

func persistenceError(err error) error {
	if errors.Is(err, ErrPersistence) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}
