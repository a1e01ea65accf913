package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
)

// ErrorResponse is the body of every JSON error.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

type jsonResponse struct {
	status int
	header http.Header
	body   any
}

func (j jsonResponse) Render(w http.ResponseWriter, r *http.Request) error {
	for k, v := range j.header {
		w.Header()[k] = v
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

// JSONOption configures JSON response
type JSONOption func(*jsonResponse)

// WithJSONStatus sets custom HTTP status code
func WithJSONStatus(status int) JSONOption {
	return func(r *jsonResponse) {
		r.status = status
	}
}

// WithJSONHeader adds a response header.
func WithJSONHeader(key, value string) JSONOption {
	return func(r *jsonResponse) {
		if r.header == nil {
			r.header = make(http.Header)
		}
		r.header.Set(key, value)
	}
}

// WithRequestID stamps the request id into an error body.
func WithRequestID(id string) JSONOption {
	return func(r *jsonResponse) {
		if body, ok := r.body.(ErrorResponse); ok {
			body.Error.RequestID = id
			r.body = body
		}
	}
}

// JSON creates a 200 response encoding v as is.
func JSON(v any, opts ...JSONOption) Response {
	r := &jsonResponse{status: http.StatusOK, body: v}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// JSONError creates a JSON error response.
// HTTPError values keep their status and key; anything else becomes a 500
// without exposing the error text.
func JSONError(err error, opts ...JSONOption) Response {
	httpErr := ErrInternalServerError
	var he HTTPError
	if errors.As(err, &he) {
		httpErr = he
	}

	r := &jsonResponse{
		status: httpErr.Code,
		body: ErrorResponse{Error: ErrorDetail{
			Code:    httpErr.Key,
			Message: httpErr.Message,
		}},
	}
	if httpErr.RetryAfter > 0 {
		seconds := max(int(httpErr.RetryAfter.Seconds()), 1)
		WithJSONHeader("Retry-After", strconv.Itoa(seconds))(r)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}
