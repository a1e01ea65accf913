package auth

import (
	"context"

	"golang.org/x/oauth2/endpoints"

	"github.com/dmitrymomot/oauthlink/pkg/identity"
)

type instagramAdapter struct{ *oauthAdapter }

// NewInstagramAdapter creates the Instagram adapter. Instagram has no email scope.
func NewInstagramAdapter(cfg ProviderConfig, opts ...AdapterOption) ProviderAdapter {
	a := newOAuthAdapter(identity.ProviderInstagram, cfg, endpoints.Instagram,
		[]string{"instagram_business_basic"}, "https://graph.instagram.com", opts)
	return &instagramAdapter{a}
}

func (a *instagramAdapter) ResolveProfile(ctx context.Context, code, verifier string) (identity.ProviderProfile, error) {
	tok, err := a.exchange(ctx, code, verifier)
	if err != nil {
		return identity.ProviderProfile{}, err
	}

	var u igUser
	if err := a.getJSON(ctx, tok.AccessToken, "/me?fields=id,username,name,profile_picture_url", &u); err != nil {
		return identity.ProviderProfile{}, err
	}
	return a.profile(tok, u.ID, "", u.Name, u.Username, u.ProfilePictureURL), nil
}

type igUser struct {
	ID                string `json:"id"`
	Username          string `json:"username"`
	Name              string `json:"name"`
	ProfilePictureURL string `json:"profile_picture_url"`
}

var _ ProviderAdapter = (*instagramAdapter)(nil)
