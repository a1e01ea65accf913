package pgvault

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/oauthlink/pkg/identity"
	"github.com/dmitrymomot/oauthlink/pkg/pg"
)

const summaryQuery = `
SELECT a.id, a.email, a.display_name, a.avatar_url, a.created_at,
       COALESCE(array_agg(l.provider) FILTER (WHERE l.provider IS NOT NULL), '{}') AS providers
FROM accounts a
LEFT JOIN provider_links l ON l.account_id = a.id
`

func (v *Vault) GetAccount(ctx context.Context, id string) (*identity.AccountSummary, error) {
	rows, err := v.db.Query(ctx, summaryQuery+`WHERE a.id = $1 GROUP BY a.id`, id)
	if err != nil {
		return nil, fmt.Errorf("pgvault: get account: %w", err)
	}
	s, err := pgx.CollectExactlyOneRow(rows, scanSummary)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, identity.ErrAccountNotFound
		}
		return nil, fmt.Errorf("pgvault: get account: %w", err)
	}
	return &s, nil
}

func (v *Vault) ListAccounts(ctx context.Context, opts identity.ListOptions) ([]identity.AccountSummary, error) {
	opts = opts.Normalize()
	rows, err := v.db.Query(ctx,
		summaryQuery+`GROUP BY a.id ORDER BY a.created_at, a.id LIMIT $1 OFFSET $2`,
		opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("pgvault: list accounts: %w", err)
	}
	out, err := pgx.CollectRows(rows, scanSummary)
	if err != nil {
		return nil, fmt.Errorf("pgvault: list accounts: %w", err)
	}
	return out, nil
}

func scanSummary(row pgx.CollectableRow) (identity.AccountSummary, error) {
	var (
		s         identity.AccountSummary
		providers []string
	)
	if err := row.Scan(&s.ID, &s.PrimaryEmail, &s.DisplayName, &s.AvatarURL, &s.CreatedAt, &providers); err != nil {
		return s, err
	}
	s.CreatedAt = s.CreatedAt.UTC()
	s.LinkedProviders = canonicalProviders(providers)
	return s, nil
}

// canonicalProviders orders provider names the way identity.Providers does.
func canonicalProviders(names []string) []identity.Provider {
	seen := make(map[identity.Provider]bool, len(names))
	for _, n := range names {
		seen[identity.Provider(n)] = true
	}
	out := make([]identity.Provider, 0, len(names))
	for _, p := range identity.Providers() {
		if seen[p] {
			out = append(out, p)
		}
	}
	return out
}
