package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/oauthlink/pkg/logger"
	"github.com/dmitrymomot/oauthlink/pkg/requestid"
)

// ErrorHandlerConfig configures NewErrorHandler.
type ErrorHandlerConfig struct {
	Logger *slog.Logger

	// Classify maps domain errors to HTTPError. Errors it returns unchanged
	// and that are not HTTPError are answered with 500.
	Classify func(error) error
}

// determineLogLevel maps HTTP status codes to appropriate log levels
func determineLogLevel(statusCode int) slog.Level {
	if statusCode >= http.StatusBadRequest && statusCode < http.StatusInternalServerError {
		return slog.LevelWarn
	}
	return slog.LevelError
}

// NewErrorHandler returns an error handler that logs the failure with the
// request id and answers with a JSON error body.
func NewErrorHandler(cfg ErrorHandlerConfig) ErrorHandler[Context] {
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return func(ctx Context, err error) {
		r := ctx.Request()
		if cfg.Classify != nil {
			err = cfg.Classify(err)
		}

		status := http.StatusInternalServerError
		var httpErr HTTPError
		if errors.As(err, &httpErr) {
			status = httpErr.Code
		}

		id := requestid.FromContext(r.Context())
		log.LogAttrs(r.Context(), determineLogLevel(status), "request error",
			logger.RequestID(id),
			logger.Error(err),
			slog.Int("status_code", status),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			logger.Component("error_handler"),
		)

		if renderErr := JSONError(err, WithRequestID(id)).Render(ctx.ResponseWriter(), r); renderErr != nil {
			log.ErrorContext(r.Context(), "failed to render error response",
				logger.RequestID(id),
				logger.Error(renderErr),
				logger.Event("render_error"),
			)
		}
	}
}
