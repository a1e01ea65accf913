package handler_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/oauthlink/binder"
	"github.com/dmitrymomot/oauthlink/handler"
	"github.com/dmitrymomot/oauthlink/pkg/requestid"
)

type pageRequest struct {
	Limit int `query:"limit"`
}

var errDomain = errors.New("domain failure")

func TestWrap(t *testing.T) {
	t.Parallel()

	t.Run("binds and renders json", func(t *testing.T) {
		t.Parallel()

		h := handler.Wrap(func(ctx handler.Context, req pageRequest) handler.Response {
			return handler.JSON(map[string]int{"limit": req.Limit}, handler.WithJSONStatus(http.StatusAccepted))
		}, handler.WithBinders[handler.Context, pageRequest](binder.Query()))

		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/?limit=7", nil))

		assert.Equal(t, http.StatusAccepted, rec.Code)
		assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"limit":7}`, rec.Body.String())
	})

	t.Run("binding error goes to error handler", func(t *testing.T) {
		t.Parallel()

		var got error
		h := handler.Wrap(func(ctx handler.Context, req pageRequest) handler.Response {
			t.Fatal("handler must not run")
			return nil
		},
			handler.WithBinders[handler.Context, pageRequest](binder.Query()),
			handler.WithErrorHandler[handler.Context, pageRequest](func(ctx handler.Context, err error) {
				got = err
				ctx.ResponseWriter().WriteHeader(http.StatusTeapot)
			}),
		)

		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/?limit=x", nil))
		assert.Equal(t, http.StatusTeapot, rec.Code)
		assert.ErrorIs(t, got, binder.ErrInvalidQuery)
	})

	t.Run("nil response", func(t *testing.T) {
		t.Parallel()

		h := handler.Wrap(func(ctx handler.Context, req struct{}) handler.Response { return nil })
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("redirect", func(t *testing.T) {
		t.Parallel()

		h := handler.Wrap(func(ctx handler.Context, req struct{}) handler.Response {
			return handler.Redirect("https://provider.example/authorize")
		})
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "https://provider.example/authorize", rec.Header().Get("Location"))
	})
}

func TestJSONError(t *testing.T) {
	t.Parallel()

	t.Run("http error keeps status and key", func(t *testing.T) {
		t.Parallel()

		err := handler.NewHTTPError(http.StatusServiceUnavailable, "retry", "try again")
		err.RetryAfter = time.Second

		rec := httptest.NewRecorder()
		require.NoError(t, handler.JSONError(err).Render(rec, httptest.NewRequest(http.MethodGet, "/", nil)))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "1", rec.Header().Get("Retry-After"))
		assert.JSONEq(t, `{"error":{"code":"retry","message":"try again"}}`, rec.Body.String())
	})

	t.Run("plain error is hidden", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		require.NoError(t, handler.JSONError(errDomain).Render(rec, httptest.NewRequest(http.MethodGet, "/", nil)))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), errDomain.Error())
	})
}

func TestNewErrorHandler(t *testing.T) {
	t.Parallel()

	eh := handler.NewErrorHandler(handler.ErrorHandlerConfig{
		Classify: func(err error) error {
			if errors.Is(err, errDomain) {
				return handler.NewHTTPError(http.StatusConflict, "domain_conflict", "")
			}
			return err
		},
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(requestid.WithContext(req.Context(), "req-1"))
	eh(handler.NewContext(rec, req), errDomain)

	assert.Equal(t, http.StatusConflict, rec.Code)

	var body handler.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "domain_conflict", body.Error.Code)
	assert.Equal(t, http.StatusText(http.StatusConflict), body.Error.Message)
	assert.Equal(t, "req-1", body.Error.RequestID)
}
