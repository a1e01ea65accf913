package auth

import (
	"sync"

	"github.com/dmitrymomot/oauthlink/pkg/identity"
)

// Registry holds the adapters of the configured providers.
type Registry struct {
	mu       sync.RWMutex
	adapters map[identity.Provider]ProviderAdapter
}

// NewRegistry builds a registry from the given adapters.
func NewRegistry(adapters ...ProviderAdapter) (*Registry, error) {
	r := &Registry{adapters: make(map[identity.Provider]ProviderAdapter, len(adapters))}
	for _, a := range adapters {
		if err := r.Register(a); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds an adapter. Each provider may be registered once.
func (r *Registry) Register(a ProviderAdapter) error {
	if a == nil {
		return ErrNilAdapter
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.adapters[a.Provider()]; ok {
		return ErrDuplicateProvider
	}
	r.adapters[a.Provider()] = a
	return nil
}

// Get returns the adapter for the provider or ErrUnknownProvider.
func (r *Registry) Get(p identity.Provider) (ProviderAdapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[p]
	if !ok {
		return nil, ErrUnknownProvider
	}
	return a, nil
}

// Providers lists the registered providers in canonical order.
func (r *Registry) Providers() []identity.Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]identity.Provider, 0, len(r.adapters))
	for _, p := range identity.Providers() {
		if _, ok := r.adapters[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Len returns the number of registered adapters.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.adapters)
}

// AdapterFactory builds an adapter from its client registration.
type AdapterFactory func(ProviderConfig, ...AdapterOption) ProviderAdapter

// Factories maps every supported provider to its adapter constructor.
func Factories() map[identity.Provider]AdapterFactory {
	return map[identity.Provider]AdapterFactory{
		identity.ProviderGoogle:    NewGoogleAdapter,
		identity.ProviderFacebook:  NewFacebookAdapter,
		identity.ProviderGitHub:    NewGitHubAdapter,
		identity.ProviderLinkedIn:  NewLinkedInAdapter,
		identity.ProviderTwitter:   NewTwitterAdapter,
		identity.ProviderInstagram: NewInstagramAdapter,
		identity.ProviderReddit:    NewRedditAdapter,
	}
}

// RegistryFromConfig registers an adapter for every provider with a client ID.
func RegistryFromConfig(configs map[identity.Provider]ProviderConfig, opts ...AdapterOption) (*Registry, error) {
	r, _ := NewRegistry()
	factories := Factories()
	for _, p := range identity.Providers() {
		cfg, ok := configs[p]
		if !ok || !cfg.Enabled() {
			continue
		}
		if err := r.Register(factories[p](cfg, opts...)); err != nil {
			return nil, err
		}
	}
	return r, nil
}
