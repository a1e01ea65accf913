package mongovault

import (
	"strings"
	"time"

	"github.com/dmitrymomot/oauthlink/pkg/identity"
)

// accountDocument is the stored shape of an account.
// link_keys mirrors the keys of links as "provider:subject" strings and
// carries the unique multikey index that enforces one owner per identity.
type accountDocument struct {
	ID          string                  `bson:"_id"`
	Email       string                  `bson:"email"`
	DisplayName string                  `bson:"display_name"`
	AvatarURL   string                  `bson:"avatar_url,omitempty"`
	Links       map[string]linkDocument `bson:"links"`
	LinkKeys    []string                `bson:"link_keys"`
	Version     int64                   `bson:"version"`
	CreatedAt   time.Time               `bson:"created_at"`
	UpdatedAt   time.Time               `bson:"updated_at"`
}

type linkDocument struct {
	SubjectID    string    `bson:"subject_id"`
	AccessToken  string    `bson:"access_token"`
	RefreshToken string    `bson:"refresh_token,omitempty"`
	LinkedAt     time.Time `bson:"linked_at"`
}

// summaryDocument is the projection used by the read surface.
type summaryDocument struct {
	ID          string    `bson:"_id"`
	Email       string    `bson:"email"`
	DisplayName string    `bson:"display_name"`
	AvatarURL   string    `bson:"avatar_url,omitempty"`
	LinkKeys    []string  `bson:"link_keys"`
	CreatedAt   time.Time `bson:"created_at"`
}

func (d summaryDocument) summary() identity.AccountSummary {
	acc := identity.Account{
		ID:           d.ID,
		PrimaryEmail: d.Email,
		DisplayName:  d.DisplayName,
		AvatarURL:    d.AvatarURL,
		Links:        make(map[identity.Provider]identity.ProviderLink, len(d.LinkKeys)),
		CreatedAt:    d.CreatedAt.UTC(),
	}
	for _, key := range d.LinkKeys {
		if p, subject, ok := strings.Cut(key, ":"); ok {
			acc.Links[identity.Provider(p)] = identity.ProviderLink{Provider: identity.Provider(p), SubjectID: subject}
		}
	}
	return acc.Summary()
}

func linkKeys(links map[string]linkDocument) []string {
	keys := make([]string, 0, len(links))
	for _, p := range identity.Providers() {
		if l, ok := links[string(p)]; ok {
			keys = append(keys, identity.LinkKey(p, l.SubjectID))
		}
	}
	return keys
}

func (d accountDocument) account() *identity.Account {
	acc := &identity.Account{
		ID:           d.ID,
		PrimaryEmail: d.Email,
		DisplayName:  d.DisplayName,
		AvatarURL:    d.AvatarURL,
		Links:        make(map[identity.Provider]identity.ProviderLink, len(d.Links)),
		Version:      d.Version,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
	for p, l := range d.Links {
		provider := identity.Provider(p)
		acc.Links[provider] = identity.ProviderLink{
			Provider:     provider,
			SubjectID:    l.SubjectID,
			AccessToken:  l.AccessToken,
			RefreshToken: l.RefreshToken,
			LinkedAt:     l.LinkedAt.UTC(),
		}
	}
	return acc
}

func newLinkDocument(l identity.ProviderLink) linkDocument {
	return linkDocument{
		SubjectID:    l.SubjectID,
		AccessToken:  l.AccessToken,
		RefreshToken: l.RefreshToken,
		LinkedAt:     l.LinkedAt,
	}
}

func newAccountDocument(acc *identity.Account) accountDocument {
	links := make(map[string]linkDocument, len(acc.Links))
	for p, l := range acc.Links {
		links[string(p)] = newLinkDocument(l)
	}
	return accountDocument{
		ID:          acc.ID,
		Email:       acc.PrimaryEmail,
		DisplayName: acc.DisplayName,
		AvatarURL:   acc.AvatarURL,
		Links:       links,
		LinkKeys:    linkKeys(links),
		Version:     acc.Version,
		CreatedAt:   acc.CreatedAt,
		UpdatedAt:   acc.UpdatedAt,
	}
}
