package auth

import (
	"context"

	"golang.org/x/oauth2/endpoints"

	"github.com/dmitrymomot/oauthlink/pkg/identity"
)

type facebookAdapter struct{ *oauthAdapter }

// NewFacebookAdapter creates the Facebook adapter backed by the Graph API.
// Graph only returns confirmed emails, so a present email is forwarded as is.
func NewFacebookAdapter(cfg ProviderConfig, opts ...AdapterOption) ProviderAdapter {
	a := newOAuthAdapter(identity.ProviderFacebook, cfg, endpoints.Facebook,
		[]string{"email", "public_profile"}, "https://graph.facebook.com", opts)
	return &facebookAdapter{a}
}

func (a *facebookAdapter) ResolveProfile(ctx context.Context, code, verifier string) (identity.ProviderProfile, error) {
	tok, err := a.exchange(ctx, code, verifier)
	if err != nil {
		return identity.ProviderProfile{}, err
	}

	var u fbUser
	if err := a.getJSON(ctx, tok.AccessToken, "/me?fields=id,name,email,picture.type(large)", &u); err != nil {
		return identity.ProviderProfile{}, err
	}
	return a.profile(tok, u.ID, u.Email, u.Name, "", u.Picture.Data.URL), nil
}

type fbUser struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	} `json:"picture"`
}

var _ ProviderAdapter = (*facebookAdapter)(nil)
