package collector

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ThomasGit2000/trading-bot/internal/core"
)

// Registry holds the configured history providers by name
type Registry struct {
	mu        sync.RWMutex
	providers map[string]HistoryProvider
}

// NewRegistry creates a new provider registry
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]HistoryProvider),
	}
}

// Register adds a provider, replacing any with the same name
func (r *Registry) Register(p HistoryProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// Get retrieves a provider by name
func (r *Registry) Get(name string) (HistoryProvider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

// Lookup is Get with an error naming the registered providers.
func (r *Registry) Lookup(name string) (HistoryProvider, error) {
	if p, ok := r.Get(name); ok {
		return p, nil
	}
	return nil, core.WrapError(core.ErrConfigInvalid,
		fmt.Errorf("unknown data provider %q (have %v)", name, r.Names()))
}

// Names returns the registered provider names, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
