package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrymomot/oauthlink/pkg/redis"
)

// RedisStatePrefix namespaces OAuth state keys.
const RedisStatePrefix = "oauthlink:state:"

// RedisStateStore keeps OAuth state in Redis so callbacks may land on any instance.
// Consume relies on GETDEL, which makes each state single-use across the cluster.
type RedisStateStore struct {
	store *redis.Store
	now   func() time.Time
}

// NewRedisStateStore wraps a redis.Store.
func NewRedisStateStore(store *redis.Store) *RedisStateStore {
	return &RedisStateStore{store: store, now: time.Now}
}

func (s *RedisStateStore) Save(ctx context.Context, st OAuthState) error {
	ttl := st.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return ErrInvalidState
	}
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal oauth state: %w", err)
	}
	if err := s.store.Put(ctx, st.State, raw, ttl); err != nil {
		return fmt.Errorf("save oauth state: %w", err)
	}
	return nil
}

func (s *RedisStateStore) Consume(ctx context.Context, state string) (OAuthState, error) {
	raw, err := s.store.Take(ctx, state)
	if err != nil {
		if errors.Is(err, redis.ErrKeyNotFound) {
			return OAuthState{}, ErrStateNotFound
		}
		return OAuthState{}, fmt.Errorf("consume oauth state: %w", err)
	}

	var st OAuthState
	if err := json.Unmarshal(raw, &st); err != nil {
		return OAuthState{}, errors.Join(ErrStateNotFound, err)
	}
	if st.Expired(s.now()) {
		return OAuthState{}, ErrStateNotFound
	}
	return st, nil
}

var _ StateStore = (*RedisStateStore)(nil)
