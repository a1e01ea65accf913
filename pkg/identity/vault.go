package identity

import "context"

// Vault is the persistence boundary for accounts and their provider links.
// Implementations are the authority for uniqueness: they must reject writes
// that would let a (provider, subject) pair or a primary email belong to more
// than one account, returning *ConflictError.
type Vault interface {
	// FindByProviderSubject returns the account owning the pair or ErrAccountNotFound.
	FindByProviderSubject(ctx context.Context, provider Provider, subjectID string) (*Account, error)
	// FindByEmail returns the account with the given normalized email or ErrAccountNotFound.
	FindByEmail(ctx context.Context, email string) (*Account, error)
	// InsertAccount atomically creates the account with its single link.
	InsertAccount(ctx context.Context, draft AccountDraft) (*Account, error)
	// AddOrUpdateLink sets the link for link.Provider on the account, replacing any
	// existing link for that provider. It fails with a ConflictProviderSubject
	// conflict only when the pair belongs to another account; concurrent writes
	// to the same account are last-writer-wins per provider.
	AddOrUpdateLink(ctx context.Context, accountID string, link ProviderLink) (*Account, error)
}

// AccountReader is the administrative read surface. It never exposes tokens.
type AccountReader interface {
	GetAccount(ctx context.Context, id string) (*AccountSummary, error)
	ListAccounts(ctx context.Context, opts ListOptions) ([]AccountSummary, error)
}

// Store is a vault that also serves the read surface.
type Store interface {
	Vault
	AccountReader
}
