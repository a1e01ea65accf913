package auth

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/dmitrymomot/oauthlink/pkg/identity"
)

// ProviderAdapter hides one provider's OAuth dialect behind a common contract.
// ResolveProfile exchanges the code and returns a profile whose Email is set
// only when the provider asserts it verified.
type ProviderAdapter interface {
	Provider() identity.Provider
	AuthURL(state, verifier string) string
	ResolveProfile(ctx context.Context, code, verifier string) (identity.ProviderProfile, error)
}

// ProviderConfig holds the OAuth client registration for one provider.
// It is loaded with an env prefix per provider, e.g. GOOGLE_OAUTH_CLIENT_ID.
type ProviderConfig struct {
	ClientID     string   `env:"CLIENT_ID"`
	ClientSecret string   `env:"CLIENT_SECRET"`
	RedirectURL  string   `env:"REDIRECT_URL"`
	Scopes       []string `env:"SCOPES" envSeparator:","`
}

// Enabled reports whether the provider has a client registration.
func (c ProviderConfig) Enabled() bool {
	return c.ClientID != ""
}

// AdapterOption configures a provider adapter.
type AdapterOption func(*oauthAdapter)

// WithEndpoint overrides the provider's authorization and token endpoints.
func WithEndpoint(ep oauth2.Endpoint) AdapterOption {
	return func(a *oauthAdapter) { a.conf.Endpoint = ep }
}

// WithAPIBaseURL overrides the base URL of the provider's profile API.
func WithAPIBaseURL(u string) AdapterOption {
	return func(a *oauthAdapter) {
		if u != "" {
			a.apiBase = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient sets the client used for token exchange and profile calls.
func WithHTTPClient(c *http.Client) AdapterOption {
	return func(a *oauthAdapter) {
		if c != nil {
			a.httpClient = c
		}
	}
}

// oauthAdapter carries the parts every provider shares.
type oauthAdapter struct {
	provider   identity.Provider
	conf       *oauth2.Config
	apiBase    string
	httpClient *http.Client
	headers    http.Header
	authParams []oauth2.AuthCodeOption
}

func newOAuthAdapter(p identity.Provider, cfg ProviderConfig, ep oauth2.Endpoint, defaultScopes []string, apiBase string, opts []AdapterOption) *oauthAdapter {
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = defaultScopes
	}
	a := &oauthAdapter{
		provider: p,
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint:     ep,
		},
		apiBase:    apiBase,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		headers:    http.Header{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *oauthAdapter) Provider() identity.Provider {
	return a.provider
}

// AuthURL builds the consent URL; a non-empty verifier adds the S256 PKCE challenge.
func (a *oauthAdapter) AuthURL(state, verifier string) string {
	opts := make([]oauth2.AuthCodeOption, 0, len(a.authParams)+1)
	opts = append(opts, a.authParams...)
	if verifier != "" {
		opts = append(opts, oauth2.S256ChallengeOption(verifier))
	}
	return a.conf.AuthCodeURL(state, opts...)
}

// exchange trades the code for tokens. Any failure is reported as ErrInvalidCode.
func (a *oauthAdapter) exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error) {
	if code == "" {
		return nil, ErrInvalidCode
	}
	var opts []oauth2.AuthCodeOption
	if verifier != "" {
		opts = append(opts, oauth2.VerifierOption(verifier))
	}
	tok, err := a.conf.Exchange(context.WithValue(ctx, oauth2.HTTPClient, a.httpClient), code, opts...)
	if err != nil {
		return nil, errors.Join(ErrInvalidCode, err)
	}
	if tok.AccessToken == "" {
		return nil, ErrInvalidCode
	}
	return tok, nil
}

// getJSON calls the profile API with the access token and decodes the response into dst.
func (a *oauthAdapter) getJSON(ctx context.Context, accessToken, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.apiBase+path, nil)
	if err != nil {
		return errors.Join(ErrProfileFetch, err)
	}
	for k, v := range a.headers {
		req.Header[k] = v
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return errors.Join(ErrProfileFetch, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s api returned status %d", ErrProfileFetch, a.provider, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return errors.Join(ErrProfileFetch, err)
	}
	return nil
}

// profile assembles the canonical profile from the exchanged token and provider fields.
func (a *oauthAdapter) profile(tok *oauth2.Token, subject, email, name, username, avatar string) identity.ProviderProfile {
	return identity.ProviderProfile{
		Provider:     a.provider,
		SubjectID:    subject,
		Email:        strings.TrimSpace(email),
		DisplayName:  displayName(name, username),
		AvatarURL:    avatar,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
	}
}

func displayName(name, username string) string {
	return cmp.Or(strings.TrimSpace(name), strings.TrimSpace(username), identity.DefaultDisplayName)
}
