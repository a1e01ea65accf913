package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/oauthlink/pkg/auth"
	"github.com/dmitrymomot/oauthlink/pkg/identity"
)

type serviceFixture struct {
	adapter  *MockAdapter
	resolver *MockResolver
	states   *auth.MemoryStateStore
	svc      *auth.Service
}

func newServiceFixture(t *testing.T, opts ...auth.ServiceOption) *serviceFixture {
	t.Helper()

	adapter := NewMockAdapter(identity.ProviderGitHub)
	registry, err := auth.NewRegistry(adapter)
	require.NoError(t, err)

	f := &serviceFixture{
		adapter:  adapter,
		resolver: &MockResolver{},
		states:   auth.NewMemoryStateStore(),
	}
	f.svc = auth.NewService(registry, f.states, f.resolver, newTestIssuer(t), opts...)
	return f
}

// start runs AuthURL and returns the generated state and verifier.
func (f *serviceFixture) start(t *testing.T) (string, string) {
	t.Helper()

	var state, verifier string
	f.adapter.On("AuthURL", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			state, verifier = args.String(0), args.String(1)
		}).
		Return("https://github.example/authorize").Once()

	u, err := f.svc.AuthURL(context.Background(), identity.ProviderGitHub)
	require.NoError(t, err)
	assert.Equal(t, "https://github.example/authorize", u)
	require.NotEmpty(t, state)
	require.NotEmpty(t, verifier)
	return state, verifier
}

func testAccount() *identity.Account {
	return &identity.Account{
		ID:           "acc-1",
		PrimaryEmail: "octo@example.com",
		DisplayName:  "octo",
		Links: map[identity.Provider]identity.ProviderLink{
			identity.ProviderGitHub: {Provider: identity.ProviderGitHub, SubjectID: "42", AccessToken: "at"},
		},
		Version: 1,
	}
}

func TestService_AuthURL(t *testing.T) {
	t.Parallel()

	t.Run("stores state", func(t *testing.T) {
		t.Parallel()

		f := newServiceFixture(t)
		state, _ := f.start(t)

		assert.Len(t, state, 43) // 32 bytes, raw URL base64
		assert.Equal(t, 1, f.states.Len())
	})

	t.Run("unknown provider", func(t *testing.T) {
		t.Parallel()

		f := newServiceFixture(t)
		_, err := f.svc.AuthURL(context.Background(), identity.ProviderFacebook)
		assert.ErrorIs(t, err, auth.ErrUnknownProvider)
	})

	t.Run("state store failure", func(t *testing.T) {
		t.Parallel()

		adapter := NewMockAdapter(identity.ProviderGoogle)
		registry, err := auth.NewRegistry(adapter)
		require.NoError(t, err)

		states := &MockStateStore{}
		states.On("Save", mock.Anything, mock.Anything).Return(errors.New("redis down"))

		svc := auth.NewService(registry, states, &MockResolver{}, newTestIssuer(t))
		_, err = svc.AuthURL(context.Background(), identity.ProviderGoogle)
		require.Error(t, err)
		adapter.AssertNotCalled(t, "AuthURL", mock.Anything, mock.Anything)
	})
}

func TestService_Callback(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	profile := identity.ProviderProfile{
		Provider:    identity.ProviderGitHub,
		SubjectID:   "42",
		Email:       "octo@example.com",
		AccessToken: "at",
	}

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		var hookCalled bool
		f := newServiceFixture(t, auth.WithAfterLogin(func(_ context.Context, s *auth.Session) error {
			hookCalled = true
			assert.Equal(t, "acc-1", s.Account.ID)
			return errors.New("hook failure is only logged")
		}))
		state, verifier := f.start(t)

		f.adapter.On("ResolveProfile", mock.Anything, "code-1", verifier).Return(profile, nil).Once()
		f.resolver.On("Resolve", mock.Anything, profile).Return(testAccount(), identity.OutcomeCreated, nil).Once()

		sess, err := f.svc.Callback(ctx, identity.ProviderGitHub, "code-1", state)
		require.NoError(t, err)
		assert.Equal(t, identity.OutcomeCreated, sess.Outcome)
		assert.Equal(t, identity.ProviderGitHub, sess.Provider)
		assert.True(t, hookCalled)

		claims, err := f.svc.Tokens().Verify(sess.Token)
		require.NoError(t, err)
		assert.Equal(t, "acc-1", claims.AccountID())
		assert.Equal(t, identity.OutcomeCreated, claims.Outcome)
		assert.Equal(t, sess.ExpiresAt.Unix(), claims.ExpiresAt.Unix())

		// Replaying the same state fails.
		_, err = f.svc.Callback(ctx, identity.ProviderGitHub, "code-1", state)
		assert.ErrorIs(t, err, auth.ErrInvalidState)

		f.adapter.AssertExpectations(t)
		f.resolver.AssertExpectations(t)
	})

	t.Run("empty state", func(t *testing.T) {
		t.Parallel()

		f := newServiceFixture(t)
		_, err := f.svc.Callback(ctx, identity.ProviderGitHub, "code", "")
		assert.ErrorIs(t, err, auth.ErrInvalidState)
	})

	t.Run("unknown provider", func(t *testing.T) {
		t.Parallel()

		f := newServiceFixture(t)
		_, err := f.svc.Callback(ctx, identity.ProviderReddit, "code", "state")
		assert.ErrorIs(t, err, auth.ErrUnknownProvider)
	})

	t.Run("provider mismatch consumes state", func(t *testing.T) {
		t.Parallel()

		adapter := NewMockAdapter(identity.ProviderGitHub)
		other := NewMockAdapter(identity.ProviderGoogle)
		registry, err := auth.NewRegistry(adapter, other)
		require.NoError(t, err)
		states := auth.NewMemoryStateStore()
		svc := auth.NewService(registry, states, &MockResolver{}, newTestIssuer(t))

		var state string
		adapter.On("AuthURL", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { state = args.String(0) }).
			Return("u")
		_, err = svc.AuthURL(ctx, identity.ProviderGitHub)
		require.NoError(t, err)

		_, err = svc.Callback(ctx, identity.ProviderGoogle, "code", state)
		assert.ErrorIs(t, err, auth.ErrInvalidState)
		assert.Equal(t, 0, states.Len())
		other.AssertNotCalled(t, "ResolveProfile", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("expired state", func(t *testing.T) {
		t.Parallel()

		f := newServiceFixture(t,
			auth.WithStateTTL(time.Minute),
			auth.WithClock(func() time.Time { return time.Now().Add(-time.Hour) }),
		)
		state, _ := f.start(t)

		_, err := f.svc.Callback(ctx, identity.ProviderGitHub, "code", state)
		assert.ErrorIs(t, err, auth.ErrInvalidState)
	})

	t.Run("invalid code", func(t *testing.T) {
		t.Parallel()

		f := newServiceFixture(t)
		state, verifier := f.start(t)
		f.adapter.On("ResolveProfile", mock.Anything, "bad", verifier).
			Return(identity.ProviderProfile{}, errors.Join(auth.ErrInvalidCode, errors.New("invalid_grant")))

		_, err := f.svc.Callback(ctx, identity.ProviderGitHub, "bad", state)
		assert.Equal(t, auth.ErrInvalidCode, err)
		f.resolver.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
	})

	t.Run("profile fetch failure", func(t *testing.T) {
		t.Parallel()

		f := newServiceFixture(t)
		state, verifier := f.start(t)
		f.adapter.On("ResolveProfile", mock.Anything, "code", verifier).
			Return(identity.ProviderProfile{}, auth.ErrProfileFetch)

		_, err := f.svc.Callback(ctx, identity.ProviderGitHub, "code", state)
		assert.ErrorIs(t, err, auth.ErrProfileFetch)
	})

	t.Run("resolver errors pass through", func(t *testing.T) {
		t.Parallel()

		for _, want := range []error{identity.ErrMissingEmail, identity.ErrProviderLinkedElsewhere, identity.ErrTransientConflict} {
			f := newServiceFixture(t)
			state, verifier := f.start(t)
			noEmail := profile
			noEmail.Email = ""
			f.adapter.On("ResolveProfile", mock.Anything, "code", verifier).Return(noEmail, nil)
			f.resolver.On("Resolve", mock.Anything, noEmail).Return(nil, identity.LinkOutcome(""), want)

			_, err := f.svc.Callback(ctx, identity.ProviderGitHub, "code", state)
			assert.ErrorIs(t, err, want)
		}
	})
}

func TestService_CallbackWithResolver(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	google := NewMockAdapter(identity.ProviderGoogle)
	github := NewMockAdapter(identity.ProviderGitHub)
	registry, err := auth.NewRegistry(google, github)
	require.NoError(t, err)

	vault := identity.NewMemoryVault()
	svc := auth.NewService(registry, auth.NewMemoryStateStore(), identity.NewResolver(vault), newTestIssuer(t))

	login := func(adapter *MockAdapter, p identity.ProviderProfile) *auth.Session {
		var state, verifier string
		adapter.On("AuthURL", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { state, verifier = args.String(0), args.String(1) }).
			Return("u").Once()
		_, err := svc.AuthURL(ctx, adapter.Provider())
		require.NoError(t, err)

		adapter.On("ResolveProfile", mock.Anything, "code", verifier).Return(p, nil).Once()
		sess, err := svc.Callback(ctx, adapter.Provider(), "code", state)
		require.NoError(t, err)
		return sess
	}

	first := login(google, identity.ProviderProfile{
		Provider: identity.ProviderGoogle, SubjectID: "g1", Email: "alice@example.com", DisplayName: "Alice", AccessToken: "t1",
	})
	assert.Equal(t, identity.OutcomeCreated, first.Outcome)

	second := login(github, identity.ProviderProfile{
		Provider: identity.ProviderGitHub, SubjectID: "h1", Email: "ALICE@example.com", AccessToken: "t2",
	})
	assert.Equal(t, identity.OutcomeMerged, second.Outcome)
	assert.Equal(t, first.Account.ID, second.Account.ID)

	third := login(google, identity.ProviderProfile{
		Provider: identity.ProviderGoogle, SubjectID: "g1", AccessToken: "t3",
	})
	assert.Equal(t, identity.OutcomeMatched, third.Outcome)
	assert.Equal(t, 1, vault.Len())
}
