// Package requestid propagates a per-request correlation ID through the
// X-Request-ID header, the request context and log records.
package requestid
