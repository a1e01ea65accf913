package handler

import (
	"errors"
	"net/http"
	"time"
)

// ErrNilResponse indicates a handler returned nil instead of a Response
var ErrNilResponse = errors.New("handler returned nil response")

// HTTPError carries an HTTP status and a stable machine-readable key.
type HTTPError struct {
	Code    int
	Key     string
	Message string

	// RetryAfter is sent as the Retry-After header when positive.
	RetryAfter time.Duration
}

// NewHTTPError creates an HTTPError. An empty message falls back to the status text.
func NewHTTPError(code int, key, message string) HTTPError {
	if message == "" {
		message = http.StatusText(code)
	}
	return HTTPError{Code: code, Key: key, Message: message}
}

func (e HTTPError) Error() string {
	return e.Message
}

// Predefined errors for the statuses the service answers with.
var (
	ErrBadRequest          = NewHTTPError(http.StatusBadRequest, "bad_request", "")
	ErrUnauthorized        = NewHTTPError(http.StatusUnauthorized, "unauthorized", "")
	ErrForbidden           = NewHTTPError(http.StatusForbidden, "forbidden", "")
	ErrNotFound            = NewHTTPError(http.StatusNotFound, "not_found", "")
	ErrInternalServerError = NewHTTPError(http.StatusInternalServerError, "internal_error", "")
)
