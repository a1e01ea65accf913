package auth

import (
	"context"

	"golang.org/x/oauth2/endpoints"

	"github.com/dmitrymomot/oauthlink/pkg/identity"
)

type twitterAdapter struct{ *oauthAdapter }

// NewTwitterAdapter creates the X (Twitter) adapter backed by API v2.
// X does not expose a verified email, so profiles never carry one.
func NewTwitterAdapter(cfg ProviderConfig, opts ...AdapterOption) ProviderAdapter {
	a := newOAuthAdapter(identity.ProviderTwitter, cfg, endpoints.X,
		[]string{"users.read", "tweet.read", "offline.access"}, "https://api.x.com", opts)
	return &twitterAdapter{a}
}

func (a *twitterAdapter) ResolveProfile(ctx context.Context, code, verifier string) (identity.ProviderProfile, error) {
	tok, err := a.exchange(ctx, code, verifier)
	if err != nil {
		return identity.ProviderProfile{}, err
	}

	var resp struct {
		Data xUser `json:"data"`
	}
	if err := a.getJSON(ctx, tok.AccessToken, "/2/users/me?user.fields=profile_image_url", &resp); err != nil {
		return identity.ProviderProfile{}, err
	}
	u := resp.Data
	return a.profile(tok, u.ID, "", u.Name, u.Username, u.ProfileImageURL), nil
}

type xUser struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Username        string `json:"username"`
	ProfileImageURL string `json:"profile_image_url"`
}

var _ ProviderAdapter = (*twitterAdapter)(nil)
