package auth

import (
	"context"
	"strconv"

	"golang.org/x/oauth2/endpoints"

	"github.com/dmitrymomot/oauthlink/pkg/identity"
)

type githubAdapter struct{ *oauthAdapter }

// NewGitHubAdapter creates the GitHub adapter. The email comes from /user/emails
// so that only the primary verified address is forwarded.
func NewGitHubAdapter(cfg ProviderConfig, opts ...AdapterOption) ProviderAdapter {
	a := newOAuthAdapter(identity.ProviderGitHub, cfg, endpoints.GitHub,
		[]string{"read:user", "user:email"}, "https://api.github.com", opts)
	a.headers.Set("X-GitHub-Api-Version", "2022-11-28")
	return &githubAdapter{a}
}

func (a *githubAdapter) ResolveProfile(ctx context.Context, code, verifier string) (identity.ProviderProfile, error) {
	tok, err := a.exchange(ctx, code, verifier)
	if err != nil {
		return identity.ProviderProfile{}, err
	}

	var u ghUser
	if err := a.getJSON(ctx, tok.AccessToken, "/user", &u); err != nil {
		return identity.ProviderProfile{}, err
	}

	var emails []ghEmail
	if err := a.getJSON(ctx, tok.AccessToken, "/user/emails", &emails); err != nil {
		return identity.ProviderProfile{}, err
	}

	email := ""
	for _, e := range emails {
		if e.Primary && e.Verified {
			email = e.Email
			break
		}
	}

	return a.profile(tok, strconv.FormatInt(u.ID, 10), email, u.Name, u.Login, u.AvatarURL), nil
}

type ghUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

type ghEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

var _ ProviderAdapter = (*githubAdapter)(nil)
