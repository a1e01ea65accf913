package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/dmitrymomot/oauthlink/pkg/auth"
	"github.com/dmitrymomot/oauthlink/pkg/identity"
)

// newProviderServer fakes a provider: /token plus the given profile routes.
func newProviderServer(t *testing.T, routes map[string]string, check func(r *http.Request)) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		_ = r.ParseForm()
		if r.PostForm.Get("code") != "good-code" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		assert.Equal(t, "test-verifier", r.PostForm.Get("code_verifier"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-1","refresh_token":"rt-1","token_type":"bearer","expires_in":3600}`))
	})
	for path, body := range routes {
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			if check != nil {
				check(r)
			}
			if r.Header.Get("Authorization") != "Bearer at-1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(body))
		})
	}

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testAdapterOptions(srv *httptest.Server) []auth.AdapterOption {
	return []auth.AdapterOption{
		auth.WithEndpoint(oauth2.Endpoint{
			AuthURL:   srv.URL + "/authorize",
			TokenURL:  srv.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		}),
		auth.WithAPIBaseURL(srv.URL),
		auth.WithHTTPClient(srv.Client()),
	}
}

var testProviderConfig = auth.ProviderConfig{
	ClientID:     "client-id",
	ClientSecret: "client-secret",
	RedirectURL:  "http://localhost/callback",
}

func TestAdapters_ResolveProfile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		factory auth.AdapterFactory
		routes  map[string]string
		want    identity.ProviderProfile
	}{
		{
			name:    "google verified email",
			factory: auth.NewGoogleAdapter,
			routes: map[string]string{
				"/oauth2/v2/userinfo": `{"id":"g-1","email":"Alice@Example.com","verified_email":true,"name":"Alice","picture":"https://img/g"}`,
			},
			want: identity.ProviderProfile{
				Provider: identity.ProviderGoogle, SubjectID: "g-1", Email: "Alice@Example.com",
				DisplayName: "Alice", AvatarURL: "https://img/g",
			},
		},
		{
			name:    "google unverified email is dropped",
			factory: auth.NewGoogleAdapter,
			routes: map[string]string{
				"/oauth2/v2/userinfo": `{"id":"g-2","email":"bob@example.com","verified_email":false,"given_name":"Bob"}`,
			},
			want: identity.ProviderProfile{
				Provider: identity.ProviderGoogle, SubjectID: "g-2", DisplayName: "Bob",
			},
		},
		{
			name:    "github primary verified email and login fallback",
			factory: auth.NewGitHubAdapter,
			routes: map[string]string{
				"/user": `{"id":42,"login":"octo","name":"","avatar_url":"https://img/gh"}`,
				"/user/emails": `[
					{"email":"old@example.com","primary":false,"verified":true},
					{"email":"octo@example.com","primary":true,"verified":true}
				]`,
			},
			want: identity.ProviderProfile{
				Provider: identity.ProviderGitHub, SubjectID: "42", Email: "octo@example.com",
				DisplayName: "octo", AvatarURL: "https://img/gh",
			},
		},
		{
			name:    "github primary unverified email is dropped",
			factory: auth.NewGitHubAdapter,
			routes: map[string]string{
				"/user":        `{"id":7,"login":"ghost"}`,
				"/user/emails": `[{"email":"ghost@example.com","primary":true,"verified":false}]`,
			},
			want: identity.ProviderProfile{
				Provider: identity.ProviderGitHub, SubjectID: "7", DisplayName: "ghost",
			},
		},
		{
			name:    "facebook",
			factory: auth.NewFacebookAdapter,
			routes: map[string]string{
				"/me": `{"id":"fb-1","name":"Carol","email":"carol@example.com","picture":{"data":{"url":"https://img/fb"}}}`,
			},
			want: identity.ProviderProfile{
				Provider: identity.ProviderFacebook, SubjectID: "fb-1", Email: "carol@example.com",
				DisplayName: "Carol", AvatarURL: "https://img/fb",
			},
		},
		{
			name:    "linkedin given and family name",
			factory: auth.NewLinkedInAdapter,
			routes: map[string]string{
				"/v2/userinfo": `{"sub":"li-1","given_name":"Dan","family_name":"Smith","email":"dan@example.com","email_verified":true,"picture":"https://img/li"}`,
			},
			want: identity.ProviderProfile{
				Provider: identity.ProviderLinkedIn, SubjectID: "li-1", Email: "dan@example.com",
				DisplayName: "Dan Smith", AvatarURL: "https://img/li",
			},
		},
		{
			name:    "twitter never forwards email",
			factory: auth.NewTwitterAdapter,
			routes: map[string]string{
				"/2/users/me": `{"data":{"id":"x-1","name":"","username":"eve","profile_image_url":"https://img/x"}}`,
			},
			want: identity.ProviderProfile{
				Provider: identity.ProviderTwitter, SubjectID: "x-1", DisplayName: "eve", AvatarURL: "https://img/x",
			},
		},
		{
			name:    "instagram",
			factory: auth.NewInstagramAdapter,
			routes: map[string]string{
				"/me": `{"id":"ig-1","username":"frank"}`,
			},
			want: identity.ProviderProfile{
				Provider: identity.ProviderInstagram, SubjectID: "ig-1", DisplayName: "frank",
			},
		},
		{
			name:    "reddit unescapes icon",
			factory: auth.NewRedditAdapter,
			routes: map[string]string{
				"/api/v1/me": `{"id":"rd-1","name":"grace","icon_img":"https://img/r?a=1&amp;b=2"}`,
			},
			want: identity.ProviderProfile{
				Provider: identity.ProviderReddit, SubjectID: "rd-1", DisplayName: "grace", AvatarURL: "https://img/r?a=1&b=2",
			},
		},
		{
			name:    "missing names fall back to default",
			factory: auth.NewInstagramAdapter,
			routes:  map[string]string{"/me": `{"id":"ig-2"}`},
			want: identity.ProviderProfile{
				Provider: identity.ProviderInstagram, SubjectID: "ig-2", DisplayName: identity.DefaultDisplayName,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := newProviderServer(t, tt.routes, nil)
			adapter := tt.factory(testProviderConfig, testAdapterOptions(srv)...)

			got, err := adapter.ResolveProfile(context.Background(), "good-code", "test-verifier")
			require.NoError(t, err)

			tt.want.AccessToken = "at-1"
			tt.want.RefreshToken = "rt-1"
			assert.Equal(t, tt.want, got)
			assert.NoError(t, got.Validate())
		})
	}
}

func TestAdapters_InvalidCode(t *testing.T) {
	t.Parallel()

	for p, factory := range auth.Factories() {
		t.Run(p.String(), func(t *testing.T) {
			t.Parallel()

			srv := newProviderServer(t, nil, nil)
			adapter := factory(testProviderConfig, testAdapterOptions(srv)...)
			assert.Equal(t, p, adapter.Provider())

			_, err := adapter.ResolveProfile(context.Background(), "bad-code", "test-verifier")
			assert.ErrorIs(t, err, auth.ErrInvalidCode)

			_, err = adapter.ResolveProfile(context.Background(), "", "test-verifier")
			assert.ErrorIs(t, err, auth.ErrInvalidCode)
		})
	}
}

func TestAdapters_ProfileFetchFailure(t *testing.T) {
	t.Parallel()

	// No profile routes: the API answers 404.
	srv := newProviderServer(t, nil, nil)
	adapter := auth.NewGoogleAdapter(testProviderConfig, testAdapterOptions(srv)...)

	_, err := adapter.ResolveProfile(context.Background(), "good-code", "test-verifier")
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrProfileFetch)
	assert.NotErrorIs(t, err, auth.ErrInvalidCode)
}

func TestAdapters_AuthURL(t *testing.T) {
	t.Parallel()

	srv := newProviderServer(t, nil, nil)
	adapter := auth.NewGoogleAdapter(testProviderConfig, testAdapterOptions(srv)...)

	raw := adapter.AuthURL("state-1", "test-verifier")
	u, err := url.Parse(raw)
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, srv.URL+"/authorize", u.Scheme+"://"+u.Host+u.Path)
	assert.Equal(t, "state-1", q.Get("state"))
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.NotEmpty(t, q.Get("code_challenge"))
	assert.NotEqual(t, "test-verifier", q.Get("code_challenge"))
	assert.Equal(t, "openid email profile", q.Get("scope"))
}

func TestRedditAdapter_UserAgent(t *testing.T) {
	t.Parallel()

	srv := newProviderServer(t,
		map[string]string{"/api/v1/me": `{"id":"rd-1","name":"grace"}`},
		func(r *http.Request) {
			assert.Equal(t, auth.RedditUserAgent, r.Header.Get("User-Agent"))
		},
	)
	adapter := auth.NewRedditAdapter(testProviderConfig, testAdapterOptions(srv)...)

	raw := adapter.AuthURL("s", "v")
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "permanent", u.Query().Get("duration"))

	_, err = adapter.ResolveProfile(context.Background(), "good-code", "test-verifier")
	require.NoError(t, err)
}
