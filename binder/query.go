package binder

import (
	"net/http"
)

// Query creates a query parameter binder function.
//
// It supports struct tags for custom parameter names:
//   - `query:"name"` - binds to query parameter "name"
//   - `query:"-"` - skips the field
//
// Supported types: string (and string-based types), int, int64, uint, bool,
// and pointers to them for optional fields.
//
// Example:
//
//	type ListRequest struct {
//		Limit  int `query:"limit"`
//		Offset int `query:"offset"`
//	}
//
//	r.Get("/admin/accounts", handler.Wrap(list,
//		handler.WithBinders[handler.Context, ListRequest](binder.Query()),
//	))
func Query() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		q := r.URL.Query()
		return bindToStruct(v, "query", func(name string) string { return q.Get(name) }, ErrInvalidQuery)
	}
}
