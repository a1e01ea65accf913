package ratelimiter

import (
	"context"
	"time"
)

// Store keeps token bucket state.
type Store interface {
	// ConsumeTokens refills the bucket for key and takes n tokens if they are
	// available. remaining is the balance after the request; a negative value
	// means the request was denied and nothing was taken.
	ConsumeTokens(ctx context.Context, key string, n int, config Config) (remaining int, resetAt time.Time, err error)

	// Reset clears the rate limit state for the given key.
	Reset(ctx context.Context, key string) error
}
