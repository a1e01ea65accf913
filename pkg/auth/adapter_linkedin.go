package auth

import (
	"context"
	"strings"

	"golang.org/x/oauth2/endpoints"

	"github.com/dmitrymomot/oauthlink/pkg/identity"
)

type linkedinAdapter struct{ *oauthAdapter }

// NewLinkedInAdapter creates the LinkedIn adapter backed by the OpenID userinfo endpoint.
func NewLinkedInAdapter(cfg ProviderConfig, opts ...AdapterOption) ProviderAdapter {
	a := newOAuthAdapter(identity.ProviderLinkedIn, cfg, endpoints.LinkedIn,
		[]string{"openid", "profile", "email"}, "https://api.linkedin.com", opts)
	return &linkedinAdapter{a}
}

func (a *linkedinAdapter) ResolveProfile(ctx context.Context, code, verifier string) (identity.ProviderProfile, error) {
	tok, err := a.exchange(ctx, code, verifier)
	if err != nil {
		return identity.ProviderProfile{}, err
	}

	var u linkedinUser
	if err := a.getJSON(ctx, tok.AccessToken, "/v2/userinfo", &u); err != nil {
		return identity.ProviderProfile{}, err
	}

	email := ""
	if u.EmailVerified {
		email = u.Email
	}
	name := u.Name
	if name == "" {
		name = strings.TrimSpace(u.GivenName + " " + u.FamilyName)
	}
	return a.profile(tok, u.Sub, email, name, "", u.Picture), nil
}

type linkedinUser struct {
	Sub           string `json:"sub"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Picture       string `json:"picture"`
}

var _ ProviderAdapter = (*linkedinAdapter)(nil)
