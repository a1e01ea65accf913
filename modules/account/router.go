package account

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/oauthlink/handler"
	"github.com/dmitrymomot/oauthlink/pkg/auth"
	"github.com/dmitrymomot/oauthlink/pkg/clientip"
	"github.com/dmitrymomot/oauthlink/pkg/identity"
	"github.com/dmitrymomot/oauthlink/pkg/jwt"
	"github.com/dmitrymomot/oauthlink/pkg/ratelimiter"
)

// RouterOptions configures the account module.
type RouterOptions struct {
	// Auth drives the OAuth login flow. Required.
	Auth *auth.Service
	// Accounts serves /auth/me and the admin listing. Required.
	Accounts identity.AccountReader
	// AdminKey guards /admin. Admin routes are not mounted when it is empty.
	AdminKey string
	// RateLimiter throttles the login and callback endpoints per client IP. Optional.
	RateLimiter ratelimiter.RateLimiter
	Logger      *slog.Logger
}

// Router creates the account module router.
//
// Example:
//
//	r := chi.NewRouter()
//	r.Use(requestid.Middleware)
//	r.Mount("/", account.Router(account.RouterOptions{
//	    Auth:     authSvc,
//	    Accounts: vault,
//	    AdminKey: cfg.AdminKey,
//	    Logger:   log,
//	}))
func Router(opts RouterOptions) chi.Router {
	if opts.Auth == nil || opts.Accounts == nil {
		panic("account: Auth and Accounts are required")
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	h := &handlers{
		auth:     opts.Auth,
		accounts: opts.Accounts,
		onError: handler.NewErrorHandler(handler.ErrorHandlerConfig{
			Logger:   log,
			Classify: ClassifyError,
		}),
	}

	requireSession := jwt.MiddlewareWithConfig(jwt.MiddlewareConfig{
		Service:   opts.Auth.Tokens().JWT(),
		NewClaims: func() jwt.Claims { return &auth.SessionClaims{} },
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			h.onError(handler.NewContext(w, r), err)
		},
	})

	r := chi.NewRouter()

	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(requireSession)
			r.Get("/me", h.me())
			r.Post("/logout", h.logout())
		})
		r.Group(func(r chi.Router) {
			if opts.RateLimiter != nil {
				r.Use(ratelimiter.Middleware(opts.RateLimiter, clientip.Key,
					ratelimiter.WithLimitedHandler(func(w http.ResponseWriter, r *http.Request, res *ratelimiter.Result) {
						h.onError(handler.NewContext(w, r), rateLimited(res))
					}),
					ratelimiter.WithStoreErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
						h.onError(handler.NewContext(w, r), err)
					}),
				))
			}
			r.Get("/{provider}", h.login())
			r.Get("/{provider}/callback", h.callback())
		})
	})

	if opts.AdminKey != "" {
		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAdminKey(opts.AdminKey, h.onError))
			r.Get("/accounts", h.listAccounts())
		})
	}

	return r
}
