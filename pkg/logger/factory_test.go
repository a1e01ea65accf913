package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmitrymomot/oauthlink/pkg/environment"
	"github.com/dmitrymomot/oauthlink/pkg/logger"
)

type ctxKey struct{}

func TestNew_JSONWithExtractors(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(
		logger.WithOutput(&buf),
		logger.WithAttr(slog.String("service", "test")),
		logger.WithContextExtractors(logger.ContextValue("request_id", ctxKey{}), logger.TraceExtractor(), nil),
	)

	traceID, err := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("0102030405060708")
	require.NoError(t, err)
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  spanID,
	}))
	ctx = context.WithValue(ctx, ctxKey{}, "req-1")

	log.InfoContext(ctx, "hello", logger.Component("test"))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "test", rec["service"])
	assert.Equal(t, "req-1", rec["request_id"])
	assert.Equal(t, "test", rec["component"])
	tr, ok := rec["trace"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, traceID.String(), tr["trace_id"])
}

func TestNew_NoSpanNoTrace(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(logger.WithOutput(&buf), logger.WithContextExtractors(logger.TraceExtractor()))
	log.InfoContext(context.Background(), "plain")
	assert.NotContains(t, buf.String(), "trace_id")
}

func TestWithEnvironment(t *testing.T) {
	t.Parallel()

	t.Run("development is text and debug", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(
			logger.WithEnvironment(environment.Development, "svc"),
			logger.WithContextExtractors(environment.LoggerExtractor()),
			logger.WithOutput(&buf),
		)
		log.DebugContext(environment.WithContext(context.Background(), environment.Development), "dbg")
		out := buf.String()
		assert.Contains(t, out, "msg=dbg")
		assert.Contains(t, out, "env=development")
		assert.Contains(t, out, "service=svc")
	})

	t.Run("production is json and info", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(
			logger.WithEnvironment(environment.Production, "svc"),
			logger.WithContextExtractors(environment.LoggerExtractor()),
			logger.WithOutput(&buf),
		)
		ctx := environment.WithContext(context.Background(), environment.Production)
		log.DebugContext(ctx, "hidden")
		log.InfoContext(ctx, "shown")
		out := strings.TrimSpace(buf.String())
		assert.NotContains(t, out, "hidden")
		assert.True(t, strings.HasPrefix(out, "{"))
		assert.Equal(t, 1, strings.Count(out, `"env":"production"`))
	})
}

func TestWithFormat_Invalid(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { logger.New(logger.WithFormat("xml")) })
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.LevelDebug, logger.ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, logger.ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, logger.ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, logger.ParseLevel("nonsense"))
}
