package auth_test

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"

	"github.com/dmitrymomot/oauthlink/pkg/auth"
	"github.com/dmitrymomot/oauthlink/pkg/identity"
)

// MockAdapter is a mock implementation of auth.ProviderAdapter.
type MockAdapter struct {
	mock.Mock
	provider identity.Provider
}

func NewMockAdapter(p identity.Provider) *MockAdapter {
	return &MockAdapter{provider: p}
}

func (m *MockAdapter) Provider() identity.Provider {
	return m.provider
}

func (m *MockAdapter) AuthURL(state, verifier string) string {
	args := m.Called(state, verifier)
	return args.String(0)
}

func (m *MockAdapter) ResolveProfile(ctx context.Context, code, verifier string) (identity.ProviderProfile, error) {
	args := m.Called(ctx, code, verifier)
	return args.Get(0).(identity.ProviderProfile), args.Error(1)
}

var _ auth.ProviderAdapter = (*MockAdapter)(nil)

// MockResolver is a mock implementation of auth.Resolver.
type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Resolve(ctx context.Context, profile identity.ProviderProfile) (*identity.Account, identity.LinkOutcome, error) {
	args := m.Called(ctx, profile)
	if args.Get(0) == nil {
		return nil, args.Get(1).(identity.LinkOutcome), args.Error(2)
	}
	return args.Get(0).(*identity.Account), args.Get(1).(identity.LinkOutcome), args.Error(2)
}

var _ auth.Resolver = (*MockResolver)(nil)

// MockStateStore is a mock implementation of auth.StateStore.
type MockStateStore struct {
	mock.Mock
}

func (m *MockStateStore) Save(ctx context.Context, st auth.OAuthState) error {
	args := m.Called(ctx, st)
	return args.Error(0)
}

func (m *MockStateStore) Consume(ctx context.Context, state string) (auth.OAuthState, error) {
	args := m.Called(ctx, state)
	return args.Get(0).(auth.OAuthState), args.Error(1)
}

var _ auth.StateStore = (*MockStateStore)(nil)

// MockCmdable is a mock implementation of redis.Cmdable.
type MockCmdable struct {
	mock.Mock
}

func (m *MockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *goredis.StatusCmd {
	args := m.Called(ctx, key, value, expiration)
	return args.Get(0).(*goredis.StatusCmd)
}

func (m *MockCmdable) GetDel(ctx context.Context, key string) *goredis.StringCmd {
	args := m.Called(ctx, key)
	return args.Get(0).(*goredis.StringCmd)
}

func (m *MockCmdable) Del(ctx context.Context, keys ...string) *goredis.IntCmd {
	args := m.Called(ctx, keys)
	return args.Get(0).(*goredis.IntCmd)
}
