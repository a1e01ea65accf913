// Package ratelimiter implements token bucket rate limiting with in-memory
// and Redis backed state.
//
// A bucket holds up to Capacity tokens and regains RefillRate tokens every
// RefillInterval. Each allowed request spends tokens; denied requests spend
// nothing, so a client that keeps hammering still recovers on schedule.
//
//	store := ratelimiter.NewRedisStore(client, "oauthlink:ratelimit:")
//	limiter, err := ratelimiter.NewBucket(store, ratelimiter.Config{
//		Capacity:       20,
//		RefillRate:     10,
//		RefillInterval: time.Minute,
//	})
//	r.With(ratelimiter.Middleware(limiter, clientip.Key)).Get("/auth/{provider}", login)
//
// MemoryStore suits a single instance; RedisStore runs the refill and spend
// in one Lua script so replicas share limits without races.
package ratelimiter
