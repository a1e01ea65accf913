package jwt_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/oauthlink/pkg/jwt"
)

func TestMiddleware(t *testing.T) {
	t.Parallel()

	svc, err := jwt.NewFromString("test-secret")
	require.NoError(t, err)
	token, err := svc.Generate(testClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "acc-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}})
	require.NoError(t, err)

	mapHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := jwt.GetClaims[jwt.MapClaims](r.Context())
		if !ok || claims["sub"] != "acc-1" {
			http.Error(w, "claims missing", http.StatusInternalServerError)
			return
		}
		raw, _ := jwt.GetToken(r.Context())
		assert.Equal(t, token, raw)
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid bearer", "Bearer " + token, http.StatusNoContent},
		{"lowercase scheme", "bearer " + token, http.StatusNoContent},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"garbage token", "Bearer abc", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			jwt.Middleware(svc)(mapHandler).ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestMiddlewareWithConfig(t *testing.T) {
	t.Parallel()

	svc, err := jwt.NewFromString("test-secret")
	require.NoError(t, err)
	token, err := svc.Generate(testClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "acc-2"},
		Provider:         "reddit",
	})
	require.NoError(t, err)

	var errSeen error
	mw := jwt.MiddlewareWithConfig(jwt.MiddlewareConfig{
		Service:   svc,
		Extractor: jwt.ChainExtractors(jwt.BearerTokenExtractor, jwt.CookieTokenExtractor("session")),
		NewClaims: func() jwt.Claims { return &testClaims{} },
		Skip:      func(r *http.Request) bool { return r.URL.Path == "/public" },
		ErrorHandler: func(w http.ResponseWriter, _ *http.Request, err error) {
			errSeen = err
			w.WriteHeader(http.StatusForbidden)
		},
	})
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/public" {
			w.WriteHeader(http.StatusOK)
			return
		}
		claims, ok := jwt.GetClaims[*testClaims](r.Context())
		require.True(t, ok)
		assert.Equal(t, "reddit", claims.Provider)
		w.WriteHeader(http.StatusAccepted)
	}))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/public", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.ErrorIs(t, errSeen, jwt.ErrMissingToken)
}
