package binder

import (
	"net/http"
)

// Path creates a path parameter binder function using the provided extractor.
// The extractor is called with the parameter name taken from the `path` tag.
//
// Example with chi router:
//
//	type CallbackRequest struct {
//		Provider string `path:"provider"`
//		Code     string `query:"code"`
//	}
//
//	r.Get("/auth/{provider}/callback", handler.Wrap(callback,
//		handler.WithBinders[handler.Context, CallbackRequest](
//			binder.Path(chi.URLParam),
//			binder.Query(),
//		),
//	))
func Path(extractor func(r *http.Request, name string) string) func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		if extractor == nil {
			return ErrInvalidPath
		}
		return bindToStruct(v, "path", func(name string) string { return extractor(r, name) }, ErrInvalidPath)
	}
}
