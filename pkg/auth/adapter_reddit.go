package auth

import (
	"context"
	"html"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/dmitrymomot/oauthlink/pkg/identity"
)

// RedditEndpoint is Reddit's OAuth endpoint. Reddit requires client credentials in the header.
var RedditEndpoint = oauth2.Endpoint{
	AuthURL:   "https://www.reddit.com/api/v1/authorize",
	TokenURL:  "https://www.reddit.com/api/v1/access_token",
	AuthStyle: oauth2.AuthStyleInHeader,
}

// RedditUserAgent is sent on every Reddit call; Reddit throttles generic agents.
const RedditUserAgent = "oauthlink/1.0"

type redditAdapter struct{ *oauthAdapter }

// NewRedditAdapter creates the Reddit adapter. Reddit never exposes an email.
func NewRedditAdapter(cfg ProviderConfig, opts ...AdapterOption) ProviderAdapter {
	a := newOAuthAdapter(identity.ProviderReddit, cfg, RedditEndpoint,
		[]string{"identity"}, "https://oauth.reddit.com", opts)
	a.authParams = append(a.authParams, oauth2.SetAuthURLParam("duration", "permanent"))
	a.headers.Set("User-Agent", RedditUserAgent)
	a.httpClient = withUserAgent(a.httpClient, RedditUserAgent)
	return &redditAdapter{a}
}

func (a *redditAdapter) ResolveProfile(ctx context.Context, code, verifier string) (identity.ProviderProfile, error) {
	tok, err := a.exchange(ctx, code, verifier)
	if err != nil {
		return identity.ProviderProfile{}, err
	}

	var u redditUser
	if err := a.getJSON(ctx, tok.AccessToken, "/api/v1/me", &u); err != nil {
		return identity.ProviderProfile{}, err
	}
	// icon_img is HTML-escaped in Reddit responses.
	return a.profile(tok, u.ID, "", "", u.Name, html.UnescapeString(u.IconImg)), nil
}

type redditUser struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	IconImg string `json:"icon_img"`
}

// withUserAgent returns a copy of c whose requests carry ua, including token exchange.
func withUserAgent(c *http.Client, ua string) *http.Client {
	clone := *c
	base := c.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	clone.Transport = userAgentTransport{base: base, ua: ua}
	return &clone
}

type userAgentTransport struct {
	base http.RoundTripper
	ua   string
}

func (t userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", t.ua)
	return t.base.RoundTrip(r)
}

var _ ProviderAdapter = (*redditAdapter)(nil)
