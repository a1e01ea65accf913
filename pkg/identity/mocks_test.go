package identity

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockVault is a mock implementation of Vault.
type MockVault struct {
	mock.Mock
}

func (m *MockVault) FindByProviderSubject(ctx context.Context, provider Provider, subjectID string) (*Account, error) {
	args := m.Called(ctx, provider, subjectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Account), args.Error(1)
}

func (m *MockVault) FindByEmail(ctx context.Context, email string) (*Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Account), args.Error(1)
}

func (m *MockVault) InsertAccount(ctx context.Context, draft AccountDraft) (*Account, error) {
	args := m.Called(ctx, draft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Account), args.Error(1)
}

func (m *MockVault) AddOrUpdateLink(ctx context.Context, accountID string, link ProviderLink) (*Account, error) {
	args := m.Called(ctx, accountID, link)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Account), args.Error(1)
}
