// Package auth implements the OAuth 2.0 login flow in front of the identity resolver.
//
// Each supported provider is wrapped in a ProviderAdapter that exchanges the
// authorization code and maps the provider's user JSON onto
// identity.ProviderProfile. Adapters only forward an email the provider
// asserts as verified; X (Twitter), Instagram and Reddit never do.
//
// Adapters are collected in an explicit Registry:
//
//	registry, err := auth.NewRegistry(
//		auth.NewGoogleAdapter(googleCfg),
//		auth.NewGitHubAdapter(githubCfg),
//	)
//
// Service ties the pieces together. AuthURL stores a single-use state with a
// PKCE verifier and returns the consent URL; Callback consumes the state,
// resolves the profile, reconciles it into an account and issues a session
// token:
//
//	svc := auth.NewService(registry, auth.NewMemoryStateStore(), resolver, issuer,
//		auth.WithLogger(log),
//	)
//	url, err := svc.AuthURL(ctx, identity.ProviderGoogle)
//	// ... provider redirects back ...
//	sess, err := svc.Callback(ctx, identity.ProviderGoogle, code, state)
//
// State can be kept in process (MemoryStateStore) or in Redis
// (RedisStateStore) when several instances serve callbacks.
package auth
