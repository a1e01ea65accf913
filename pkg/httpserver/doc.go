// Package httpserver runs an http.Server with graceful shutdown and provides
// liveness and readiness handlers.
//
// Run blocks until the supplied context is cancelled or SIGINT/SIGTERM
// arrives, then drains in-flight requests within the shutdown timeout:
//
//	srv := httpserver.NewFromConfig(cfg, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, router); err != nil {
//		log.Error("server stopped", logger.Error(err))
//	}
package httpserver
