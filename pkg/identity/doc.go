// Package identity reconciles external provider identities with local accounts.
//
// A login through any supported provider produces a ProviderProfile. The
// Resolver maps it to exactly one Account using a fixed decision order:
//
//  1. an account already linked to the (provider, subject) pair wins; its tokens are refreshed
//  2. otherwise a verified email is required
//  3. an account with the same email gets the provider linked to it
//  4. otherwise a new account is created with a single link
//
// The Vault is the authority for uniqueness. It rejects writes that would let a
// provider identity or an email belong to two accounts. Link writes to an
// account that already exists are last-writer-wins per provider, so returning
// users never collide with each other. The resolver never locks; when a create
// or link collides with a concurrent login on the same identity it re-runs the
// pipeline once and then gives up with ErrTransientConflict.
//
// # Usage
//
//	vault := identity.NewMemoryVault()
//	resolver := identity.NewResolver(vault, identity.WithLogger(log))
//
//	acc, outcome, err := resolver.Resolve(ctx, identity.ProviderProfile{
//		Provider:    identity.ProviderGoogle,
//		SubjectID:   "g-123",
//		Email:       "Alice@Example.com",
//		AccessToken: tok.AccessToken,
//	})
//	switch {
//	case errors.Is(err, identity.ErrMissingEmail):
//		// ask the user to grant the email scope
//	case identity.Retryable(err):
//		// let the user try again
//	}
//
// MemoryVault is a complete Store for tests and single-process deployments.
// Persistent stores live in pkg/mongovault and pkg/pgvault.
package identity
