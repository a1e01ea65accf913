package identity

import (
	"slices"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Provider identifies an external identity service.
type Provider string

// Supported identity providers.
const (
	ProviderGoogle    Provider = "google"
	ProviderFacebook  Provider = "facebook"
	ProviderGitHub    Provider = "github"
	ProviderLinkedIn  Provider = "linkedin"
	ProviderTwitter   Provider = "twitter"
	ProviderInstagram Provider = "instagram"
	ProviderReddit    Provider = "reddit"
)

var supportedProviders = []Provider{
	ProviderGoogle,
	ProviderFacebook,
	ProviderGitHub,
	ProviderLinkedIn,
	ProviderTwitter,
	ProviderInstagram,
	ProviderReddit,
}

// Providers returns all supported providers in their canonical order.
func Providers() []Provider {
	return slices.Clone(supportedProviders)
}

// ParseProvider converts a raw provider name into a Provider.
// Matching is case-insensitive; unknown names return ErrUnsupportedProvider.
func ParseProvider(name string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(name)))
	if !p.Valid() {
		return "", ErrUnsupportedProvider
	}
	return p, nil
}

// Valid reports whether p is one of the supported providers.
func (p Provider) Valid() bool {
	return slices.Contains(supportedProviders, p)
}

func (p Provider) String() string { return string(p) }

// LinkOutcome describes how a profile was reconciled with the store.
type LinkOutcome string

const (
	// OutcomeMatched means the provider identity was already linked; only its tokens were refreshed.
	OutcomeMatched LinkOutcome = "matched"
	// OutcomeMerged means the provider identity was attached to an account found by email.
	OutcomeMerged LinkOutcome = "merged"
	// OutcomeCreated means a brand new account was created for the identity.
	OutcomeCreated LinkOutcome = "created"
)

func (o LinkOutcome) String() string { return string(o) }

// ProviderProfile is the canonical identity assertion produced by a provider adapter
// for a single login attempt.
type ProviderProfile struct {
	Provider  Provider
	SubjectID string

	// Email must be provider-verified; adapters leave it empty otherwise.
	Email string

	DisplayName string
	AvatarURL   string

	AccessToken  string
	RefreshToken string
}

// Validate checks the fields every adapter must populate.
func (p ProviderProfile) Validate() error {
	if !p.Provider.Valid() {
		return ErrUnsupportedProvider
	}
	if strings.TrimSpace(p.SubjectID) == "" {
		return ErrMissingSubject
	}
	if p.AccessToken == "" {
		return ErrMissingAccessToken
	}
	return nil
}

// ProviderLink binds one provider identity to the account that owns it.
type ProviderLink struct {
	Provider     Provider
	SubjectID    string
	AccessToken  string
	RefreshToken string
	LinkedAt     time.Time
}

// Key returns the globally unique key of the (provider, subject) pair.
func (l ProviderLink) Key() string {
	return LinkKey(l.Provider, l.SubjectID)
}

// LinkKey builds the store-wide unique key for a provider identity.
func LinkKey(provider Provider, subjectID string) string {
	return string(provider) + ":" + subjectID
}

// Account is the durable aggregate a login resolves to.
type Account struct {
	ID           string
	PrimaryEmail string
	DisplayName  string
	AvatarURL    string
	Links        map[Provider]ProviderLink

	// Version counts mutations; the vault bumps it on every write.
	Version int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// LinkedProviders returns the providers linked to the account, derived from Links
// and sorted in canonical provider order.
func (a *Account) LinkedProviders() []Provider {
	out := make([]Provider, 0, len(a.Links))
	for _, p := range supportedProviders {
		if _, ok := a.Links[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Link returns the link for the given provider, if any.
func (a *Account) Link(provider Provider) (ProviderLink, bool) {
	l, ok := a.Links[provider]
	return l, ok
}

// Summary projects the account onto its token-free public shape.
func (a *Account) Summary() AccountSummary {
	return AccountSummary{
		ID:              a.ID,
		PrimaryEmail:    a.PrimaryEmail,
		DisplayName:     a.DisplayName,
		AvatarURL:       a.AvatarURL,
		LinkedProviders: a.LinkedProviders(),
		CreatedAt:       a.CreatedAt,
	}
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	c := *a
	c.Links = make(map[Provider]ProviderLink, len(a.Links))
	for k, v := range a.Links {
		c.Links[k] = v
	}
	return &c
}

// AccountDraft holds everything needed to insert a new account.
type AccountDraft struct {
	ID           string
	PrimaryEmail string
	DisplayName  string
	AvatarURL    string
	Link         ProviderLink
	CreatedAt    time.Time
}

// Account materializes the draft as a version-1 account.
func (d AccountDraft) Account() *Account {
	return &Account{
		ID:           d.ID,
		PrimaryEmail: d.PrimaryEmail,
		DisplayName:  d.DisplayName,
		AvatarURL:    d.AvatarURL,
		Links:        map[Provider]ProviderLink{d.Link.Provider: d.Link},
		Version:      1,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.CreatedAt,
	}
}

// AccountSummary is the administrative projection of an account. It never carries tokens.
type AccountSummary struct {
	ID              string     `json:"id"`
	PrimaryEmail    string     `json:"email"`
	DisplayName     string     `json:"name"`
	AvatarURL       string     `json:"avatar_url,omitempty"`
	LinkedProviders []Provider `json:"linked_providers"`
	CreatedAt       time.Time  `json:"created_at"`
}

// ListOptions paginates account enumeration.
type ListOptions struct {
	Limit  int
	Offset int
}

// Pagination bounds for ListOptions.
const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// Normalize clamps the options into the supported range.
func (o ListOptions) Normalize() ListOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultListLimit
	}
	if o.Limit > MaxListLimit {
		o.Limit = MaxListLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}

// NormalizeEmail trims, NFC-normalizes and lowercases an email address so that
// lookups and the uniqueness constraint are case-insensitive.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return ""
	}
	email = norm.NFC.String(email)
	return cases.Lower(language.Und).String(email)
}
