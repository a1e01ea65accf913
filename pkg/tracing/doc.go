// Package tracing wires OpenTelemetry trace export for the service.
// Spans created through otel.Tracer anywhere in the process are exported once
// Setup has installed the provider.
package tracing
