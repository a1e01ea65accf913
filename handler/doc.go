// Package handler provides type-safe HTTP request handling.
//
// Handlers are generic functions that receive a bound request struct and
// return a Response:
//
//	type MeRequest struct{}
//
//	func me(ctx handler.Context, _ MeRequest) handler.Response {
//		return handler.JSON(summary)
//	}
//
//	r.Get("/auth/me", handler.Wrap(me))
//
// Request structs are filled by binders (see package binder) applied in order
// through WithBinders. Failures from binding, nil responses and render errors
// go to the error handler; NewErrorHandler builds one that maps domain errors
// to HTTPError, logs them with the request id and writes
//
//	{"error":{"code":"invalid_state","message":"...","request_id":"..."}}
//
// HTTPError.RetryAfter is sent as a Retry-After header.
package handler
