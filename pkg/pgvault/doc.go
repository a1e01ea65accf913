// Package pgvault is a PostgreSQL identity.Store.
//
// Accounts live in the accounts table and provider links in provider_links.
// The schema enforces the account invariants directly:
//
//   - UNIQUE (email) keeps primary emails unique
//   - UNIQUE (provider, subject_id) keeps each provider identity on one account
//   - PRIMARY KEY (account_id, provider) allows one link per provider
//
// A link write first checks who owns the (provider, subject_id) pair, then
// locks the account row by bumping accounts.version and upserts the link for
// its provider. Concurrent logins to one account serialize on that row lock
// instead of failing. Unique violations are reported as *identity.ConflictError
// with the owning account when it can be determined.
//
// Apply the embedded migrations before use:
//
//	if err := pg.Migrate(ctx, pool, pgvault.Migrations, pgvault.MigrationsDir, cfg, log); err != nil {
//		return err
//	}
//	vault := pgvault.New(pool, pgvault.WithSealer(sealer), pgvault.WithLogger(log))
package pgvault
