package auth

import (
	"context"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/dmitrymomot/oauthlink/pkg/identity"
)

type googleAdapter struct{ *oauthAdapter }

// NewGoogleAdapter creates the Google adapter backed by the userinfo v2 API.
func NewGoogleAdapter(cfg ProviderConfig, opts ...AdapterOption) ProviderAdapter {
	a := newOAuthAdapter(identity.ProviderGoogle, cfg, endpoints.Google,
		[]string{"openid", "email", "profile"}, "https://www.googleapis.com", opts)
	a.authParams = append(a.authParams, oauth2.AccessTypeOffline)
	return &googleAdapter{a}
}

func (a *googleAdapter) ResolveProfile(ctx context.Context, code, verifier string) (identity.ProviderProfile, error) {
	tok, err := a.exchange(ctx, code, verifier)
	if err != nil {
		return identity.ProviderProfile{}, err
	}

	var u googleUser
	if err := a.getJSON(ctx, tok.AccessToken, "/oauth2/v2/userinfo", &u); err != nil {
		return identity.ProviderProfile{}, err
	}

	email := ""
	if u.VerifiedEmail {
		email = u.Email
	}
	return a.profile(tok, u.ID, email, u.Name, u.GivenName, u.Picture), nil
}

type googleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	Picture       string `json:"picture"`
}

var _ ProviderAdapter = (*googleAdapter)(nil)
