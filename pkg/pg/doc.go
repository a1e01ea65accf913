// Package pg bootstraps PostgreSQL access on top of pgx/v5.
//
// Connect opens a *pgxpool.Pool from Config and retries until the server
// answers a ping. Migrate runs goose migrations from an fs.FS (typically an
// embed.FS owned by the package that defines the schema) through the same
// pool. Healthcheck returns a func(context.Context) error suitable for
// readiness probes.
//
// # Usage
//
//	var cfg pg.Config
//	if err := env.Parse(&cfg); err != nil {
//	    return err
//	}
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, pgvault.Migrations, "migrations", cfg, slog.Default()); err != nil {
//	    return err
//	}
//
// # Error Handling
//
// IsDuplicateKeyError, IsSerializationFailure and ConstraintName classify
// *pgconn.PgError values so storage code can translate them into domain errors.
package pg
