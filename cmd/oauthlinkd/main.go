package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"github.com/dmitrymomot/oauthlink/modules/account"
	"github.com/dmitrymomot/oauthlink/pkg/auth"
	"github.com/dmitrymomot/oauthlink/pkg/clientip"
	"github.com/dmitrymomot/oauthlink/pkg/config"
	"github.com/dmitrymomot/oauthlink/pkg/environment"
	"github.com/dmitrymomot/oauthlink/pkg/httpserver"
	"github.com/dmitrymomot/oauthlink/pkg/identity"
	"github.com/dmitrymomot/oauthlink/pkg/jwt"
	"github.com/dmitrymomot/oauthlink/pkg/logger"
	"github.com/dmitrymomot/oauthlink/pkg/mongo"
	"github.com/dmitrymomot/oauthlink/pkg/mongovault"
	"github.com/dmitrymomot/oauthlink/pkg/pg"
	"github.com/dmitrymomot/oauthlink/pkg/pgvault"
	"github.com/dmitrymomot/oauthlink/pkg/ratelimiter"
	"github.com/dmitrymomot/oauthlink/pkg/redis"
	"github.com/dmitrymomot/oauthlink/pkg/requestid"
	"github.com/dmitrymomot/oauthlink/pkg/secrets"
	"github.com/dmitrymomot/oauthlink/pkg/tracing"
)

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "oauthlinkd: %v\n", err)
		os.Exit(1)
	}
}

// cleanup runs deferred resource shutdowns in reverse order.
type cleanup []func(context.Context)

func (c *cleanup) add(fn func(context.Context)) { *c = append(*c, fn) }

func (c cleanup) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for i := len(c) - 1; i >= 0; i-- {
		c[i](ctx)
	}
}

func run(ctx context.Context) error {
	var cfg config.App
	if err := config.Load(&cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	env := cfg.Environment()
	ctx = environment.WithContext(ctx, env)

	logOpts := []logger.Option{
		logger.WithEnvironment(env, cfg.ServiceName),
		logger.WithContextExtractors(
			environment.LoggerExtractor(),
			requestid.LoggerExtractor(),
			clientip.LoggerExtractor(),
			logger.TraceExtractor(),
		),
	}
	if cfg.LogLevel != "" {
		logOpts = append(logOpts, logger.WithLevel(logger.ParseLevel(cfg.LogLevel)))
	}
	log := logger.New(logOpts...)
	logger.SetAsDefault(log)

	var closers cleanup
	defer closers.run()

	var traceCfg tracing.Config
	if err := config.Load(&traceCfg); err != nil {
		return err
	}
	shutdownTracing, err := tracing.Setup(ctx, traceCfg, cfg.ServiceName, cfg.Version, env.String())
	if err != nil {
		return err
	}
	closers.add(func(ctx context.Context) {
		if err := shutdownTracing(ctx); err != nil {
			log.ErrorContext(ctx, "failed to flush traces", logger.Error(err))
		}
	})

	var sealer *secrets.Sealer
	if cfg.TokenSealKey != "" {
		key, err := secrets.ParseKey(cfg.TokenSealKey)
		if err != nil {
			return err
		}
		if sealer, err = secrets.NewSealer(key, "provider-tokens"); err != nil {
			return err
		}
	}

	var checks []httpserver.Check

	store, vaultChecks, err := openVault(ctx, cfg, sealer, log, &closers)
	if err != nil {
		return err
	}
	checks = append(checks, vaultChecks...)

	var rdb *goredis.Client
	if cfg.StateBackend == config.StateRedis {
		if rdb, err = openRedis(ctx, &closers); err != nil {
			return err
		}
		checks = append(checks, httpserver.Check{Name: "redis", Fn: redis.Healthcheck(rdb)})
	}

	var states auth.StateStore = auth.NewMemoryStateStore()
	if rdb != nil {
		states = auth.NewRedisStateStore(redis.NewStore(rdb, auth.RedisStatePrefix))
	}

	var limiter ratelimiter.RateLimiter
	if cfg.RateLimitEnabled {
		var buckets ratelimiter.Store
		if rdb != nil {
			buckets = ratelimiter.NewRedisStore(rdb, "oauthlink:ratelimit:")
		} else {
			mem := ratelimiter.NewMemoryStore()
			closers.add(func(context.Context) { mem.Close() })
			buckets = mem
		}
		bucket, err := ratelimiter.NewBucket(buckets, cfg.RateLimit)
		if err != nil {
			return err
		}
		limiter = bucket
	}

	registry, err := auth.RegistryFromConfig(cfg.Providers())
	if err != nil {
		return err
	}
	if registry.Len() == 0 {
		log.WarnContext(ctx, "no oauth providers configured", logger.Component("main"))
	}

	signer, err := jwt.NewFromString(cfg.JWTSecret, jwt.WithIssuer(cfg.JWTIssuer))
	if err != nil {
		return err
	}

	resolver := identity.NewResolver(store,
		identity.WithLogger(log),
		identity.WithTracer(otel.Tracer("github.com/dmitrymomot/oauthlink/pkg/identity")),
	)
	authSvc := auth.NewService(registry, states, resolver,
		auth.NewTokenIssuer(signer, auth.WithSessionTTL(cfg.SessionTTL)),
		auth.WithLogger(log),
		auth.WithStateTTL(cfg.StateTTL),
	)

	ips := clientip.New(clientip.WithTrustedHeaders(cfg.TrustedProxyHeaders...))

	r := chi.NewRouter()
	r.Use(
		requestid.Middleware,
		environment.Middleware(env),
		ips.Middleware,
		middleware.Recoverer,
	)
	r.Get("/health/live", httpserver.LivenessHandler())
	r.Get("/health/ready", httpserver.ReadinessHandler(log, 2*time.Second, checks...))
	r.Mount("/", account.Router(account.RouterOptions{
		Auth:        authSvc,
		Accounts:    store,
		AdminKey:    cfg.AdminKey,
		RateLimiter: limiter,
		Logger:      log,
	}))

	var httpCfg httpserver.Config
	if err := config.Load(&httpCfg); err != nil {
		return err
	}

	log.InfoContext(ctx, "starting oauthlinkd",
		logger.Component("main"),
		slog.String("vault", cfg.VaultBackend),
		slog.String("state_store", cfg.StateBackend),
		slog.Bool("rate_limit", limiter != nil),
		slog.Any("providers", registry.Providers()),
		slog.String("addr", httpCfg.Addr),
	)

	srv := httpserver.NewFromConfig(httpCfg, httpserver.WithLogger(log))
	return srv.Run(ctx, r)
}

// openVault connects the configured vault backend and prepares its schema.
func openVault(ctx context.Context, cfg config.App, sealer *secrets.Sealer, log *slog.Logger, closers *cleanup) (identity.Store, []httpserver.Check, error) {
	switch cfg.VaultBackend {
	case config.VaultPostgres:
		var pgCfg pg.Config
		if err := config.Load(&pgCfg); err != nil {
			return nil, nil, err
		}
		pool, err := pg.Connect(ctx, pgCfg)
		if err != nil {
			return nil, nil, err
		}
		closers.add(func(context.Context) { pool.Close() })

		if err := pg.Migrate(ctx, pool, pgvault.Migrations, pgvault.MigrationsDir, pgCfg, log); err != nil {
			return nil, nil, err
		}

		opts := []pgvault.Option{pgvault.WithLogger(log)}
		if sealer != nil {
			opts = append(opts, pgvault.WithSealer(sealer))
		}
		return pgvault.New(pool, opts...), []httpserver.Check{{Name: "postgres", Fn: pg.Healthcheck(pool)}}, nil

	case config.VaultMongo:
		var mgCfg mongo.Config
		if err := config.Load(&mgCfg); err != nil {
			return nil, nil, err
		}
		db, err := mongo.NewWithDatabase(ctx, mgCfg, "")
		if err != nil {
			return nil, nil, err
		}
		client := db.Client()
		closers.add(func(ctx context.Context) {
			if err := client.Disconnect(ctx); err != nil {
				log.ErrorContext(ctx, "failed to disconnect from mongodb", logger.Error(err))
			}
		})

		opts := []mongovault.Option{mongovault.WithLogger(log)}
		if sealer != nil {
			opts = append(opts, mongovault.WithSealer(sealer))
		}
		v := mongovault.New(db, opts...)
		if err := v.EnsureIndexes(ctx); err != nil {
			return nil, nil, err
		}
		return v, []httpserver.Check{{Name: "mongodb", Fn: mongo.Healthcheck(client)}}, nil

	case config.VaultMemory:
		log.WarnContext(ctx, "using in-memory vault, accounts are lost on restart", logger.Component("main"))
		return identity.NewMemoryVault(), nil, nil
	}
	return nil, nil, errors.Join(config.ErrInvalidConfig, fmt.Errorf("unknown vault backend %q", cfg.VaultBackend))
}

// openRedis connects the shared Redis client used for OAuth states and rate limits.
func openRedis(ctx context.Context, closers *cleanup) (*goredis.Client, error) {
	var rdCfg redis.Config
	if err := config.Load(&rdCfg); err != nil {
		return nil, err
	}
	client, err := redis.Connect(ctx, rdCfg)
	if err != nil {
		return nil, err
	}
	closers.add(func(context.Context) { _ = client.Close() })
	return client, nil
}
