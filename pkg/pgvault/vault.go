package pgvault

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/oauthlink/pkg/identity"
	"github.com/dmitrymomot/oauthlink/pkg/logger"
	"github.com/dmitrymomot/oauthlink/pkg/pg"
)

// Migrations holds the goose migrations for the accounts schema.
// Pass it to pg.Migrate with the "migrations" directory.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations.
const MigrationsDir = "migrations"

// Constraint names from the migrations, used to classify unique violations.
const (
	constraintAccountPK       = "accounts_pkey"
	constraintEmail           = "accounts_email_key"
	constraintProviderSubject = "provider_links_provider_subject_key"
)

// Ensure Vault implements identity.Store.
var _ identity.Store = (*Vault)(nil)

// DB is the subset of *pgxpool.Pool used by the vault.
type DB interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Sealer encrypts tokens at rest; see secrets.Sealer.
type Sealer interface {
	Seal(plaintext, aad string) (string, error)
	Open(value, aad string) (string, error)
}

// Vault stores accounts in PostgreSQL. Uniqueness is enforced by table
// constraints; link upserts are per provider and last-writer-wins.
type Vault struct {
	db     DB
	sealer Sealer
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Vault.
type Option func(*Vault)

// WithSealer encrypts provider tokens before they are written.
func WithSealer(s Sealer) Option {
	return func(v *Vault) { v.sealer = s }
}

// WithLogger configures the logger for the vault.
func WithLogger(l *slog.Logger) Option {
	return func(v *Vault) {
		if l != nil {
			v.logger = l
		}
	}
}

// WithClock sets the time source for updated_at.
func WithClock(now func() time.Time) Option {
	return func(v *Vault) {
		if now != nil {
			v.now = now
		}
	}
}

// New creates a vault on top of an open pool. Run pg.Migrate with Migrations first.
func New(db DB, opts ...Option) *Vault {
	v := &Vault{
		db:     db,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

var readOnly = pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}

func (v *Vault) FindByProviderSubject(ctx context.Context, provider identity.Provider, subjectID string) (*identity.Account, error) {
	var acc *identity.Account
	err := pgx.BeginTxFunc(ctx, v.db, readOnly, func(tx pgx.Tx) error {
		var id string
		err := tx.QueryRow(ctx,
			`SELECT account_id FROM provider_links WHERE provider = $1 AND subject_id = $2`,
			string(provider), subjectID,
		).Scan(&id)
		if err != nil {
			return err
		}
		acc, err = v.loadAccount(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, v.readError("find by provider subject", err)
	}
	return acc, nil
}

func (v *Vault) FindByEmail(ctx context.Context, email string) (*identity.Account, error) {
	var acc *identity.Account
	err := pgx.BeginTxFunc(ctx, v.db, readOnly, func(tx pgx.Tx) error {
		var id string
		err := tx.QueryRow(ctx, `SELECT id FROM accounts WHERE email = $1`, identity.NormalizeEmail(email)).Scan(&id)
		if err != nil {
			return err
		}
		acc, err = v.loadAccount(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, v.readError("find by email", err)
	}
	return acc, nil
}

func (v *Vault) InsertAccount(ctx context.Context, draft identity.AccountDraft) (*identity.Account, error) {
	acc := draft.Account()
	acc.PrimaryEmail = identity.NormalizeEmail(acc.PrimaryEmail)

	access, refresh, err := v.sealLink(draft.Link)
	if err != nil {
		return nil, err
	}

	err = pgx.BeginTxFunc(ctx, v.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO accounts (id, email, display_name, avatar_url, version, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $6)`,
			acc.ID, acc.PrimaryEmail, acc.DisplayName, acc.AvatarURL, acc.Version, acc.CreatedAt,
		); err != nil {
			return err
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO provider_links (account_id, provider, subject_id, access_token, refresh_token, linked_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			acc.ID, string(draft.Link.Provider), draft.Link.SubjectID, access, refresh, draft.Link.LinkedAt, acc.CreatedAt,
		)
		return err
	})
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return nil, v.conflict(ctx, err, draft.Link, acc.PrimaryEmail, acc.ID)
		}
		return nil, fmt.Errorf("pgvault: insert account: %w", err)
	}

	v.logger.DebugContext(ctx, "account inserted",
		logger.Component("pgvault"),
		logger.AccountID(acc.ID),
		logger.Provider(draft.Link.Provider),
	)
	return acc, nil
}

func (v *Vault) AddOrUpdateLink(ctx context.Context, accountID string, link identity.ProviderLink) (*identity.Account, error) {
	access, refresh, err := v.sealLink(link)
	if err != nil {
		return nil, err
	}

	now := v.now().UTC()
	var acc *identity.Account
	err = pgx.BeginTxFunc(ctx, v.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var owner string
		err := tx.QueryRow(ctx,
			`SELECT account_id FROM provider_links WHERE provider = $1 AND subject_id = $2`,
			string(link.Provider), link.SubjectID,
		).Scan(&owner)
		switch {
		case err == nil && owner != accountID:
			return &identity.ConflictError{
				Kind:      identity.ConflictProviderSubject,
				Provider:  link.Provider,
				SubjectID: link.SubjectID,
				OwnerID:   owner,
			}
		case err != nil && !pg.IsNotFoundError(err):
			return err
		}

		tag, err := tx.Exec(ctx,
			`UPDATE accounts SET version = version + 1, updated_at = $2 WHERE id = $1`,
			accountID, now,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return identity.ErrAccountNotFound
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO provider_links (account_id, provider, subject_id, access_token, refresh_token, linked_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (account_id, provider) DO UPDATE SET
			     subject_id    = EXCLUDED.subject_id,
			     access_token  = EXCLUDED.access_token,
			     refresh_token = EXCLUDED.refresh_token,
			     linked_at     = EXCLUDED.linked_at,
			     updated_at    = EXCLUDED.updated_at`,
			accountID, string(link.Provider), link.SubjectID, access, refresh, link.LinkedAt, now,
		); err != nil {
			return err
		}

		acc, err = v.loadAccount(ctx, tx, accountID)
		return err
	})
	switch {
	case err == nil:
		return acc, nil
	case errors.Is(err, identity.ErrAccountNotFound), identity.IsConflict(err):
		return nil, err
	case pg.IsDuplicateKeyError(err):
		return nil, v.conflict(ctx, err, link, "", accountID)
	case pg.IsSerializationFailure(err):
		return nil, &identity.ConflictError{Kind: identity.ConflictStale, OwnerID: accountID}
	default:
		return nil, fmt.Errorf("pgvault: add or update link: %w", err)
	}
}

// loadAccount reads the account row and its links with q.
func (v *Vault) loadAccount(ctx context.Context, q pgx.Tx, id string) (*identity.Account, error) {
	acc := &identity.Account{Links: make(map[identity.Provider]identity.ProviderLink)}
	err := q.QueryRow(ctx,
		`SELECT id, email, display_name, avatar_url, version, created_at, updated_at FROM accounts WHERE id = $1`, id,
	).Scan(&acc.ID, &acc.PrimaryEmail, &acc.DisplayName, &acc.AvatarURL, &acc.Version, &acc.CreatedAt, &acc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	acc.CreatedAt = acc.CreatedAt.UTC()
	acc.UpdatedAt = acc.UpdatedAt.UTC()

	rows, err := q.Query(ctx,
		`SELECT provider, subject_id, access_token, refresh_token, linked_at FROM provider_links WHERE account_id = $1`, id,
	)
	if err != nil {
		return nil, err
	}
	links, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (identity.ProviderLink, error) {
		var (
			l        identity.ProviderLink
			provider string
		)
		err := row.Scan(&provider, &l.SubjectID, &l.AccessToken, &l.RefreshToken, &l.LinkedAt)
		l.Provider = identity.Provider(provider)
		l.LinkedAt = l.LinkedAt.UTC()
		return l, err
	})
	if err != nil {
		return nil, err
	}

	for _, l := range links {
		if l, err = v.openLink(l); err != nil {
			return nil, err
		}
		acc.Links[l.Provider] = l
	}
	return acc, nil
}

func (v *Vault) readError(op string, err error) error {
	if pg.IsNotFoundError(err) {
		return identity.ErrAccountNotFound
	}
	return fmt.Errorf("pgvault: %s: %w", op, err)
}

// conflict translates a unique violation into *identity.ConflictError,
// looking up the current owner of the contested key.
func (v *Vault) conflict(ctx context.Context, err error, link identity.ProviderLink, email, accountID string) error {
	c := conflictFromConstraint(pg.ConstraintName(err), link, email, accountID)

	var owner string
	var lookupErr error
	switch c.Kind {
	case identity.ConflictProviderSubject:
		lookupErr = v.db.QueryRow(ctx,
			`SELECT account_id FROM provider_links WHERE provider = $1 AND subject_id = $2`,
			string(link.Provider), link.SubjectID,
		).Scan(&owner)
	case identity.ConflictEmail:
		lookupErr = v.db.QueryRow(ctx, `SELECT id FROM accounts WHERE email = $1`, email).Scan(&owner)
	default:
		return c
	}
	if lookupErr != nil && !pg.IsNotFoundError(lookupErr) {
		v.logger.WarnContext(ctx, "failed to look up conflicting account",
			logger.Component("pgvault"),
			logger.Error(lookupErr),
		)
	}
	c.OwnerID = owner
	return c
}

func conflictFromConstraint(constraint string, link identity.ProviderLink, email, accountID string) *identity.ConflictError {
	switch constraint {
	case constraintProviderSubject:
		return &identity.ConflictError{
			Kind:      identity.ConflictProviderSubject,
			Provider:  link.Provider,
			SubjectID: link.SubjectID,
		}
	case constraintEmail:
		return &identity.ConflictError{Kind: identity.ConflictEmail, Email: email}
	case constraintAccountPK:
		return &identity.ConflictError{Kind: identity.ConflictStale, OwnerID: accountID}
	default:
		return &identity.ConflictError{Kind: identity.ConflictStale}
	}
}

func (v *Vault) sealLink(l identity.ProviderLink) (access, refresh string, err error) {
	if v.sealer == nil {
		return l.AccessToken, l.RefreshToken, nil
	}
	aad := l.Key()
	if access, err = v.sealer.Seal(l.AccessToken, aad); err != nil {
		return "", "", fmt.Errorf("pgvault: seal access token: %w", err)
	}
	if refresh, err = v.sealer.Seal(l.RefreshToken, aad); err != nil {
		return "", "", fmt.Errorf("pgvault: seal refresh token: %w", err)
	}
	return access, refresh, nil
}

func (v *Vault) openLink(l identity.ProviderLink) (identity.ProviderLink, error) {
	if v.sealer == nil {
		return l, nil
	}
	aad := l.Key()
	var err error
	if l.AccessToken, err = v.sealer.Open(l.AccessToken, aad); err != nil {
		return l, fmt.Errorf("pgvault: open access token: %w", err)
	}
	if l.RefreshToken, err = v.sealer.Open(l.RefreshToken, aad); err != nil {
		return l, fmt.Errorf("pgvault: open refresh token: %w", err)
	}
	return l, nil
}
