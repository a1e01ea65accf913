package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cmdable is the subset of go-redis commands used by Store.
// redis.UniversalClient satisfies it.
type Cmdable interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	GetDel(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Store is a namespaced key-value wrapper for short-lived, single-use values
// such as OAuth state.
type Store struct {
	db     Cmdable
	prefix string
}

// NewStore wraps the client; every key is stored under prefix.
func NewStore(db Cmdable, prefix string) *Store {
	return &Store{db: db, prefix: prefix}
}

// Put stores val under key. A zero ttl means no expiration.
func (s *Store) Put(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	if key == "" {
		return ErrEmptyKey
	}
	if err := s.db.Set(ctx, s.prefix+key, val, ttl).Err(); err != nil {
		return errors.Join(ErrCommandFailed, err)
	}
	return nil
}

// Take atomically reads and deletes key (GETDEL). Missing keys return ErrKeyNotFound.
func (s *Store) Take(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrKeyNotFound
	}
	val, err := s.db.GetDel(ctx, s.prefix+key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, ErrKeyNotFound
	case err != nil:
		return nil, errors.Join(ErrCommandFailed, err)
	}
	return val, nil
}

// Delete removes key. Empty keys are ignored.
func (s *Store) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if err := s.db.Del(ctx, s.prefix+key).Err(); err != nil {
		return errors.Join(ErrCommandFailed, err)
	}
	return nil
}
