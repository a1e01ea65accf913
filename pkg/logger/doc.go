// Package logger builds *slog.Logger instances with functional options and
// provides attribute helpers so that keys stay consistent across packages.
//
//	log := logger.New(
//		logger.WithEnvironment(environment.Production, "oauthlinkd"),
//		logger.WithContextExtractors(logger.TraceExtractor(), environment.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "login completed",
//		logger.AccountID(acc.ID),
//		logger.Provider(identity.ProviderGitHub),
//		logger.Outcome(outcome),
//	)
//
// Extractors run on every record, so request-scoped values such as request
// IDs and trace IDs are always current.
package logger
