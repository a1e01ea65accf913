// Package mongovault is a MongoDB identity.Store.
//
// Each account is one document in the accounts collection with its provider
// links embedded, so every vault write touches a single document and is
// atomic without transactions. Two unique indexes carry the invariants:
//
//   - email_unique on the normalized primary email
//   - link_keys_unique, a multikey index over "provider:subject" strings,
//     which keeps each provider identity on at most one account
//
// Link updates are a single pipeline update that replaces the provider's entry
// in links and link_keys on the server, so concurrent logins to one account
// are last-writer-wins per provider and never fail on each other.
//
//	db, err := mongo.NewWithDatabase(ctx, cfg, "")
//	if err != nil {
//		return err
//	}
//	vault := mongovault.New(db, mongovault.WithSealer(sealer))
//	if err := vault.EnsureIndexes(ctx); err != nil {
//		return err
//	}
package mongovault
