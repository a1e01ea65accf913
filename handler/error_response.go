package handler

import "net/http"

type errorResponse struct{ err error }

// Render writes nothing and hands the error back to Wrap's error handler.
func (e errorResponse) Render(http.ResponseWriter, *http.Request) error { return e.err }

// Error defers rendering of err to the error handler configured on Wrap,
// so handlers share one error mapping and logging path.
func Error(err error) Response {
	return errorResponse{err: err}
}
