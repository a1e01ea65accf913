package account

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/oauthlink/binder"
	"github.com/dmitrymomot/oauthlink/handler"
	"github.com/dmitrymomot/oauthlink/pkg/auth"
	"github.com/dmitrymomot/oauthlink/pkg/identity"
	"github.com/dmitrymomot/oauthlink/pkg/jwt"
)

type handlers struct {
	auth     *auth.Service
	accounts identity.AccountReader
	onError  handler.ErrorHandler[handler.Context]
}

type loginRequest struct {
	Provider string `path:"provider"`
}

type callbackRequest struct {
	Provider         string `path:"provider"`
	Code             string `query:"code"`
	State            string `query:"state"`
	Error            string `query:"error"`
	ErrorDescription string `query:"error_description"`
}

type listRequest struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

// SessionResponse is returned by a successful callback.
type SessionResponse struct {
	Token     string                  `json:"token"`
	ExpiresAt time.Time               `json:"expires_at"`
	Outcome   identity.LinkOutcome    `json:"outcome"`
	Account   identity.AccountSummary `json:"account"`
}

// MessageResponse carries a human readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// AccountsResponse is one page of the admin listing.
type AccountsResponse struct {
	Accounts []identity.AccountSummary `json:"accounts"`
	Limit    int                       `json:"limit"`
	Offset   int                       `json:"offset"`
}

func wrap[R any](h handler.HandlerFunc[handler.Context, R], onError handler.ErrorHandler[handler.Context], binders ...handler.Bind) http.HandlerFunc {
	return handler.Wrap(h,
		handler.WithBinders[handler.Context, R](binders...),
		handler.WithErrorHandler[handler.Context, R](onError),
	)
}

// login redirects the browser to the provider consent page.
func (h *handlers) login() http.HandlerFunc {
	return wrap(func(ctx handler.Context, req loginRequest) handler.Response {
		provider, err := identity.ParseProvider(req.Provider)
		if err != nil {
			return handler.Error(err)
		}
		url, err := h.auth.AuthURL(ctx, provider)
		if err != nil {
			return handler.Error(err)
		}
		return handler.Redirect(url)
	}, h.onError, binder.Path(chi.URLParam))
}

// callback completes the login and returns a session token.
func (h *handlers) callback() http.HandlerFunc {
	return wrap(func(ctx handler.Context, req callbackRequest) handler.Response {
		provider, err := identity.ParseProvider(req.Provider)
		if err != nil {
			return handler.Error(err)
		}
		if req.Error != "" {
			denied := errAccessDenied
			if req.ErrorDescription != "" {
				denied.Message = req.ErrorDescription
			}
			return handler.Error(denied)
		}

		sess, err := h.auth.Callback(ctx, provider, req.Code, req.State)
		if err != nil {
			return handler.Error(err)
		}

		return handler.JSON(SessionResponse{
			Token:     sess.Token,
			ExpiresAt: sess.ExpiresAt,
			Outcome:   sess.Outcome,
			Account:   sess.Account.Summary(),
		})
	}, h.onError, binder.Path(chi.URLParam), binder.Query())
}

// me returns the account behind the session token.
func (h *handlers) me() http.HandlerFunc {
	return wrap(func(ctx handler.Context, _ struct{}) handler.Response {
		claims, ok := jwt.GetClaims[*auth.SessionClaims](ctx)
		if !ok || claims.AccountID() == "" {
			return handler.Error(auth.ErrInvalidSession)
		}

		summary, err := h.accounts.GetAccount(ctx, claims.AccountID())
		if err != nil {
			return handler.Error(err)
		}
		return handler.JSON(summary)
	}, h.onError)
}

// logout acknowledges the logout. Session tokens are stateless, so the
// client discards its token.
func (h *handlers) logout() http.HandlerFunc {
	return wrap(func(ctx handler.Context, _ struct{}) handler.Response {
		return handler.JSON(MessageResponse{Message: "Logout successful"})
	}, h.onError)
}

// listAccounts pages through accounts ordered by creation time.
func (h *handlers) listAccounts() http.HandlerFunc {
	return wrap(func(ctx handler.Context, req listRequest) handler.Response {
		opts := identity.ListOptions{Limit: req.Limit, Offset: req.Offset}.Normalize()

		accounts, err := h.accounts.ListAccounts(ctx, opts)
		if err != nil {
			return handler.Error(err)
		}
		return handler.JSON(AccountsResponse{
			Accounts: accounts,
			Limit:    opts.Limit,
			Offset:   opts.Offset,
		})
	}, h.onError, binder.Query())
}
