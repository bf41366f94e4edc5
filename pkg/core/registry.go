package core

import "fmt"

// Registry is the ordered set of configured providers. It is built once at
// startup and never modified, so it is safe for concurrent reads.
type Registry struct {
	providers []Provider
	byKey     map[string]int
}

// NewRegistry validates providers and returns them as a registry in the
// given order. The order is the default ranking of results.
func NewRegistry(providers ...Provider) (*Registry, error) {
	r := &Registry{
		providers: make([]Provider, 0, len(providers)),
		byKey:     make(map[string]int, len(providers)),
	}
	for _, p := range providers {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, exists := r.byKey[p.Key]; exists {
			return nil, fmt.Errorf("provider %s already registered", p.Key)
		}
		r.byKey[p.Key] = len(r.providers)
		r.providers = append(r.providers, p)
	}
	return r, nil
}

// Get looks up a provider by its exact key.
func (r *Registry) Get(key string) (Provider, bool) {
	i, ok := r.byKey[key]
	if !ok {
		return Provider{}, false
	}
	return r.providers[i], true
}

// Has reports whether key names a configured provider.
func (r *Registry) Has(key string) bool {
	_, ok := r.byKey[key]
	return ok
}

// Keys returns the provider keys in configured order.
func (r *Registry) Keys() []string {
	keys := make([]string, len(r.providers))
	for i, p := range r.providers {
		keys[i] = p.Key
	}
	return keys
}

// Providers returns a copy of the configured providers in order.
func (r *Registry) Providers() []Provider {
	out := make([]Provider, len(r.providers))
	copy(out, r.providers)
	return out
}

// Len returns the number of configured providers.
func (r *Registry) Len() int {
	return len(r.providers)
}
