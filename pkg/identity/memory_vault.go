package identity

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"
)

// Ensure MemoryVault implements Store.
var _ Store = (*MemoryVault)(nil)

// MemoryVault is an in-process Store. It enforces the same uniqueness rules as
// the database-backed vaults and is safe for concurrent use.
// Returned accounts are copies; mutating them does not affect the vault.
type MemoryVault struct {
	mu       sync.RWMutex
	accounts map[string]*Account
	byEmail  map[string]string
	byLink   map[string]string
	now      func() time.Time
}

// MemoryVaultOption configures a MemoryVault.
type MemoryVaultOption func(*MemoryVault)

// WithMemoryClock sets the time source used for UpdatedAt.
func WithMemoryClock(now func() time.Time) MemoryVaultOption {
	return func(v *MemoryVault) {
		if now != nil {
			v.now = now
		}
	}
}

// NewMemoryVault creates an empty in-memory vault.
func NewMemoryVault(opts ...MemoryVaultOption) *MemoryVault {
	v := &MemoryVault{
		accounts: make(map[string]*Account),
		byEmail:  make(map[string]string),
		byLink:   make(map[string]string),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *MemoryVault) FindByProviderSubject(ctx context.Context, provider Provider, subjectID string) (*Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v.mu.RLock()
	defer v.mu.RUnlock()

	id, ok := v.byLink[LinkKey(provider, subjectID)]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return v.accounts[id].Clone(), nil
}

func (v *MemoryVault) FindByEmail(ctx context.Context, email string) (*Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v.mu.RLock()
	defer v.mu.RUnlock()

	id, ok := v.byEmail[NormalizeEmail(email)]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return v.accounts[id].Clone(), nil
}

func (v *MemoryVault) InsertAccount(ctx context.Context, draft AccountDraft) (*Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	acc := draft.Account()
	acc.PrimaryEmail = NormalizeEmail(acc.PrimaryEmail)
	key := draft.Link.Key()

	v.mu.Lock()
	defer v.mu.Unlock()

	if owner, ok := v.byLink[key]; ok {
		return nil, &ConflictError{
			Kind:      ConflictProviderSubject,
			Provider:  draft.Link.Provider,
			SubjectID: draft.Link.SubjectID,
			OwnerID:   owner,
		}
	}
	if owner, ok := v.byEmail[acc.PrimaryEmail]; ok {
		return nil, &ConflictError{Kind: ConflictEmail, Email: acc.PrimaryEmail, OwnerID: owner}
	}
	if _, ok := v.accounts[acc.ID]; ok {
		return nil, &ConflictError{Kind: ConflictStale, OwnerID: acc.ID}
	}

	v.accounts[acc.ID] = acc
	v.byEmail[acc.PrimaryEmail] = acc.ID
	v.byLink[key] = acc.ID
	return acc.Clone(), nil
}

func (v *MemoryVault) AddOrUpdateLink(ctx context.Context, accountID string, link ProviderLink) (*Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := link.Key()

	v.mu.Lock()
	defer v.mu.Unlock()

	acc, ok := v.accounts[accountID]
	if !ok {
		return nil, ErrAccountNotFound
	}
	if owner, ok := v.byLink[key]; ok && owner != accountID {
		return nil, &ConflictError{
			Kind:      ConflictProviderSubject,
			Provider:  link.Provider,
			SubjectID: link.SubjectID,
			OwnerID:   owner,
		}
	}

	if prev, ok := acc.Links[link.Provider]; ok && prev.SubjectID != link.SubjectID {
		delete(v.byLink, prev.Key())
	}
	acc.Links[link.Provider] = link
	acc.Version++
	acc.UpdatedAt = v.now().UTC()
	v.byLink[key] = accountID

	return acc.Clone(), nil
}

func (v *MemoryVault) GetAccount(ctx context.Context, id string) (*AccountSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v.mu.RLock()
	defer v.mu.RUnlock()

	acc, ok := v.accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	s := acc.Summary()
	return &s, nil
}

func (v *MemoryVault) ListAccounts(ctx context.Context, opts ListOptions) ([]AccountSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts = opts.Normalize()

	v.mu.RLock()
	all := make([]*Account, 0, len(v.accounts))
	for _, acc := range v.accounts {
		all = append(all, acc)
	}
	slices.SortFunc(all, func(a, b *Account) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	out := make([]AccountSummary, 0, opts.Limit)
	for i := opts.Offset; i < len(all) && len(out) < opts.Limit; i++ {
		out = append(out, all[i].Summary())
	}
	v.mu.RUnlock()

	return out, nil
}

// Len returns the number of stored accounts.
func (v *MemoryVault) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.accounts)
}
