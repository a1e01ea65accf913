package logger_test

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/oauthlink/pkg/logger"
)

type stringer string

func (s stringer) String() string { return string(s) }

func TestGroup(t *testing.T) {
	t.Parallel()

	attr := logger.Group("req", slog.String("id", "1"), slog.Int("n", 2))
	require.Equal(t, "req", attr.Key)
	require.Equal(t, slog.KindGroup, attr.Value.Kind())
	assert.Len(t, attr.Value.Group(), 2)
}

func TestErrors(t *testing.T) {
	t.Parallel()

	err1 := errors.New("first")
	err2 := errors.New("second")

	attr := logger.Errors(err1, nil, err2)
	require.Equal(t, "errors", attr.Key)
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, err1, g[0].Value.Any())
	assert.Equal(t, err2, g[1].Value.Any())

	assert.True(t, logger.Errors(nil).Equal(slog.Attr{}))
}

func TestDomainAttrs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		attr slog.Attr
		key  string
		want any
	}{
		{"error", logger.Error(errors.New("boom")), "error", "boom"},
		{"account id", logger.AccountID("acc-1"), "account_id", "acc-1"},
		{"provider", logger.Provider(stringer("github")), "provider", "github"},
		{"outcome", logger.Outcome(stringer("merged")), "outcome", "merged"},
		{"subject", logger.Subject("42"), "subject_id", "42"},
		{"request id", logger.RequestID("req-1"), "request_id", "req-1"},
		{"attempt", logger.Attempt(2), "attempt", int64(2)},
		{"duration", logger.Duration(time.Second), "duration", time.Second},
		{"component", logger.Component("resolver"), "component", "resolver"},
		{"event", logger.Event("login"), "event", "login"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.key, tt.attr.Key)
			got := tt.attr.Value.Any()
			if err, ok := got.(error); ok {
				got = err.Error()
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEmptyAttrs(t *testing.T) {
	t.Parallel()

	assert.True(t, logger.Error(nil).Equal(slog.Attr{}))
	assert.True(t, logger.AccountID("").Equal(slog.Attr{}))
	assert.True(t, logger.Provider(nil).Equal(slog.Attr{}))
	assert.True(t, logger.Outcome(nil).Equal(slog.Attr{}))
	assert.True(t, logger.RequestID(nil).Equal(slog.Attr{}))
}
