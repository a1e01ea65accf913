package auth_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/oauthlink/pkg/auth"
	"github.com/dmitrymomot/oauthlink/pkg/identity"
	"github.com/dmitrymomot/oauthlink/pkg/redis"
)

func TestMemoryStateStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("consume is single use", func(t *testing.T) {
		t.Parallel()

		store := auth.NewMemoryStateStore()
		st := auth.OAuthState{State: "s1", Provider: identity.ProviderGitHub, Verifier: "v", ExpiresAt: time.Now().Add(time.Minute)}
		require.NoError(t, store.Save(ctx, st))

		got, err := store.Consume(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, st, got)

		_, err = store.Consume(ctx, "s1")
		assert.ErrorIs(t, err, auth.ErrStateNotFound)
	})

	t.Run("expired state is rejected and swept", func(t *testing.T) {
		t.Parallel()

		store := auth.NewMemoryStateStore()
		require.NoError(t, store.Save(ctx, auth.OAuthState{State: "old", ExpiresAt: time.Now().Add(-time.Second)}))
		_, err := store.Consume(ctx, "old")
		assert.ErrorIs(t, err, auth.ErrStateNotFound)

		require.NoError(t, store.Save(ctx, auth.OAuthState{State: "stale", ExpiresAt: time.Now().Add(-time.Second)}))
		require.NoError(t, store.Save(ctx, auth.OAuthState{State: "fresh", ExpiresAt: time.Now().Add(time.Minute)}))
		assert.Equal(t, 1, store.Len())
	})

	t.Run("unknown state", func(t *testing.T) {
		t.Parallel()

		_, err := auth.NewMemoryStateStore().Consume(ctx, "nope")
		assert.ErrorIs(t, err, auth.ErrStateNotFound)
	})

	t.Run("concurrent consumers", func(t *testing.T) {
		t.Parallel()

		store := auth.NewMemoryStateStore()
		require.NoError(t, store.Save(ctx, auth.OAuthState{State: "race", ExpiresAt: time.Now().Add(time.Minute)}))

		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins int
		)
		for range 16 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := store.Consume(ctx, "race"); err == nil {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, wins)
	})
}

func TestRedisStateStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := auth.OAuthState{
		State:     "abc",
		Provider:  identity.ProviderReddit,
		Verifier:  "ver",
		ExpiresAt: time.Now().Add(5 * time.Minute).UTC().Truncate(time.Second),
	}
	raw, err := json.Marshal(st)
	require.NoError(t, err)

	t.Run("save uses remaining ttl", func(t *testing.T) {
		t.Parallel()

		db := &MockCmdable{}
		db.On("Set", ctx, auth.RedisStatePrefix+"abc", raw, mock.MatchedBy(func(ttl time.Duration) bool {
			return ttl > 4*time.Minute && ttl <= 5*time.Minute
		})).Return(goredis.NewStatusResult("OK", nil))

		store := auth.NewRedisStateStore(redis.NewStore(db, auth.RedisStatePrefix))
		require.NoError(t, store.Save(ctx, st))
		db.AssertExpectations(t)
	})

	t.Run("save rejects expired state", func(t *testing.T) {
		t.Parallel()

		store := auth.NewRedisStateStore(redis.NewStore(&MockCmdable{}, auth.RedisStatePrefix))
		err := store.Save(ctx, auth.OAuthState{State: "x", ExpiresAt: time.Now().Add(-time.Minute)})
		assert.ErrorIs(t, err, auth.ErrInvalidState)
	})

	t.Run("consume decodes state", func(t *testing.T) {
		t.Parallel()

		db := &MockCmdable{}
		db.On("GetDel", ctx, auth.RedisStatePrefix+"abc").Return(goredis.NewStringResult(string(raw), nil))

		store := auth.NewRedisStateStore(redis.NewStore(db, auth.RedisStatePrefix))
		got, err := store.Consume(ctx, "abc")
		require.NoError(t, err)
		assert.Equal(t, st.Provider, got.Provider)
		assert.Equal(t, st.Verifier, got.Verifier)
		assert.True(t, st.ExpiresAt.Equal(got.ExpiresAt))
	})

	t.Run("consume missing key", func(t *testing.T) {
		t.Parallel()

		db := &MockCmdable{}
		db.On("GetDel", ctx, auth.RedisStatePrefix+"gone").Return(goredis.NewStringResult("", goredis.Nil))

		store := auth.NewRedisStateStore(redis.NewStore(db, auth.RedisStatePrefix))
		_, err := store.Consume(ctx, "gone")
		assert.ErrorIs(t, err, auth.ErrStateNotFound)
	})

	t.Run("consume backend failure", func(t *testing.T) {
		t.Parallel()

		db := &MockCmdable{}
		db.On("GetDel", ctx, auth.RedisStatePrefix+"abc").Return(goredis.NewStringResult("", errors.New("connection refused")))

		store := auth.NewRedisStateStore(redis.NewStore(db, auth.RedisStatePrefix))
		_, err := store.Consume(ctx, "abc")
		require.Error(t, err)
		assert.NotErrorIs(t, err, auth.ErrStateNotFound)
		assert.ErrorIs(t, err, redis.ErrCommandFailed)
	})
}
