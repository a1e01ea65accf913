// Package redis connects to Redis with go-redis and offers a small
// namespaced key-value Store for single-use values.
//
// # Usage
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	store := redis.NewStore(client, "oauth:state:")
//	_ = store.Put(ctx, state, payload, 10*time.Minute)
//	payload, err = store.Take(ctx, state) // GETDEL, second call returns ErrKeyNotFound
//
//	ready := redis.Healthcheck(client)
//
// Errors wrap package sentinels (ErrRedisNotReady, ErrKeyNotFound,
// ErrCommandFailed) with errors.Join; match them with errors.Is.
package redis
