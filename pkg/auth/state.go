package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"

	"github.com/dmitrymomot/oauthlink/pkg/identity"
)

// OAuthState is the server-side record of one authorization request.
type OAuthState struct {
	State     string            `json:"state"`
	Provider  identity.Provider `json:"provider"`
	Verifier  string            `json:"verifier"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// Expired reports whether the state is past its deadline at now.
func (s OAuthState) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// StateStore keeps OAuth state between the redirect and the callback.
type StateStore interface {
	Save(ctx context.Context, st OAuthState) error
	// Consume atomically loads and removes the state.
	// Missing, already consumed or expired states return ErrStateNotFound.
	Consume(ctx context.Context, state string) (OAuthState, error)
}

// generateState returns a 32-byte URL-safe random token.
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// MemoryStateStore is a process-local StateStore for single-instance deployments and tests.
type MemoryStateStore struct {
	mu     sync.Mutex
	states map[string]OAuthState
	now    func() time.Time
}

// NewMemoryStateStore creates an empty in-memory store.
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{
		states: make(map[string]OAuthState),
		now:    time.Now,
	}
}

func (m *MemoryStateStore) Save(_ context.Context, st OAuthState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweep()
	m.states[st.State] = st
	return nil
}

func (m *MemoryStateStore) Consume(_ context.Context, state string) (OAuthState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.states[state]
	if !ok {
		return OAuthState{}, ErrStateNotFound
	}
	delete(m.states, state)
	if st.Expired(m.now()) {
		return OAuthState{}, ErrStateNotFound
	}
	return st, nil
}

// Len returns the number of stored states, expired ones included.
func (m *MemoryStateStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.states)
}

// sweep drops expired states. Caller holds mu.
func (m *MemoryStateStore) sweep() {
	now := m.now()
	for k, st := range m.states {
		if st.Expired(now) {
			delete(m.states, k)
		}
	}
}

var _ StateStore = (*MemoryStateStore)(nil)
