package account

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmitrymomot/oauthlink/binder"
	"github.com/dmitrymomot/oauthlink/handler"
	"github.com/dmitrymomot/oauthlink/pkg/auth"
	"github.com/dmitrymomot/oauthlink/pkg/identity"
	"github.com/dmitrymomot/oauthlink/pkg/jwt"
	"github.com/dmitrymomot/oauthlink/pkg/ratelimiter"
)

// Error keys returned in the "code" field of error bodies.
var (
	errInvalidState = handler.NewHTTPError(http.StatusBadRequest, "invalid_state",
		"The login request is invalid or has expired, please start again")
	errAccessDenied = handler.NewHTTPError(http.StatusBadRequest, "access_denied",
		"The provider did not grant access")
	errUnknownProvider = handler.NewHTTPError(http.StatusNotFound, "unknown_provider",
		"Unknown or disabled provider")
	errInvalidCode = handler.NewHTTPError(http.StatusUnauthorized, "invalid_code",
		"The authorization code was rejected by the provider")
	errMissingEmail = handler.NewHTTPError(http.StatusUnauthorized, "missing_email",
		"The provider did not supply a verified email address")
	errLinkedElsewhere = handler.NewHTTPError(http.StatusConflict, "provider_linked_elsewhere",
		"This provider identity is already linked to another account")
	errRetry = handler.HTTPError{
		Code:       http.StatusServiceUnavailable,
		Key:        "retry",
		Message:    "The account is being updated concurrently, please retry",
		RetryAfter: time.Second,
	}
	errProviderUnavailable = handler.NewHTTPError(http.StatusBadGateway, "provider_unavailable",
		"The provider could not be reached")
	errUnauthorized = handler.NewHTTPError(http.StatusUnauthorized, "unauthorized",
		"Missing or invalid credentials")
	errForbidden     = handler.NewHTTPError(http.StatusForbidden, "forbidden", "")
	errNotFound      = handler.NewHTTPError(http.StatusNotFound, "account_not_found", "Account not found")
	errInvalidParams = handler.NewHTTPError(http.StatusBadRequest, "invalid_parameters", "")
	errPersistence   = handler.NewHTTPError(http.StatusInternalServerError, "persistence_error", "")
)

func rateLimited(res *ratelimiter.Result) handler.HTTPError {
	e := handler.NewHTTPError(http.StatusTooManyRequests, "rate_limited", "Too many login attempts, please slow down")
	e.RetryAfter = max(res.RetryAfter(time.Now()), time.Second)
	return e
}

// ClassifyError maps domain errors to HTTP errors. The original error is
// joined in so it still reaches the log.
func ClassifyError(err error) error {
	var httpErr handler.HTTPError
	if errors.As(err, &httpErr) {
		return err
	}

	var mapped handler.HTTPError
	switch {
	case errors.Is(err, auth.ErrInvalidState), errors.Is(err, auth.ErrStateNotFound):
		mapped = errInvalidState
	case errors.Is(err, auth.ErrUnknownProvider), errors.Is(err, identity.ErrUnsupportedProvider):
		mapped = errUnknownProvider
	case errors.Is(err, auth.ErrInvalidCode):
		mapped = errInvalidCode
	case errors.Is(err, identity.ErrMissingEmail):
		mapped = errMissingEmail
	case errors.Is(err, identity.ErrProviderLinkedElsewhere):
		mapped = errLinkedElsewhere
	case errors.Is(err, identity.ErrTransientConflict):
		mapped = errRetry
	case errors.Is(err, auth.ErrProfileFetch), errors.Is(err, identity.ErrInvalidProfile):
		mapped = errProviderUnavailable
	case errors.Is(err, jwt.ErrInvalidToken), errors.Is(err, jwt.ErrExpiredToken),
		errors.Is(err, jwt.ErrInvalidSignature), errors.Is(err, jwt.ErrInvalidIssuer),
		errors.Is(err, jwt.ErrMissingToken), errors.Is(err, auth.ErrInvalidSession):
		mapped = errUnauthorized
	case errors.Is(err, identity.ErrAccountNotFound):
		mapped = errNotFound
	case errors.Is(err, binder.ErrInvalidQuery), errors.Is(err, binder.ErrInvalidPath):
		mapped = errInvalidParams
	case errors.Is(err, identity.ErrPersistence):
		mapped = errPersistence
	default:
		return err
	}
	return errors.Join(mapped, err)
}
