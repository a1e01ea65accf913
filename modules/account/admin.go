package account

import (
	"crypto/subtle"
	"net/http"

	"github.com/dmitrymomot/oauthlink/handler"
)

// AdminKeyHeader carries the admin API key.
const AdminKeyHeader = "X-Admin-Key"

func requireAdminKey(key string, onError handler.ErrorHandler[handler.Context]) func(http.Handler) http.Handler {
	expected := []byte(key)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(AdminKeyHeader)
			if got == "" {
				onError(handler.NewContext(w, r), errUnauthorized)
				return
			}
			if subtle.ConstantTimeCompare([]byte(got), expected) != 1 {
				onError(handler.NewContext(w, r), errForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
