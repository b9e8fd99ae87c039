package provider

import (
	"fmt"

	"github.com/google/uuid"
)

// Registry is the ordered list of known providers.
type Registry struct {
	providers []Provider
	byID      map[uuid.UUID]int
}

func NewRegistry() *Registry {
	return &Registry{
		byID: make(map[uuid.UUID]int),
	}
}

func (r *Registry) Register(p Provider) error {
	if _, exists := r.byID[p.ID]; exists {
		return fmt.Errorf("provider with ID '%s' already registered", p.ID)
	}
	r.byID[p.ID] = len(r.providers)
	r.providers = append(r.providers, p)
	return nil
}

func (r *Registry) Get(id uuid.UUID) (Provider, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Provider{}, false
	}
	return r.providers[i], true
}

// All returns the providers in registry order.
func (r *Registry) All() []Provider {
	ps := make([]Provider, len(r.providers))
	copy(ps, r.providers)
	return ps
}

func (r *Registry) Len() int {
	return len(r.providers)
}

// Filter returns the providers matched by any selector, in registry order.
// With no selectors the whole registry is returned.
func (r *Registry) Filter(selectors []Selector) []Provider {
	return Filter(r.providers, selectors)
}

func Filter(providers []Provider, selectors []Selector) []Provider {
	if len(selectors) == 0 {
		ps := make([]Provider, len(providers))
		copy(ps, providers)
		return ps
	}

	ps := make([]Provider, 0, len(providers))
	for _, p := range providers {
		for _, s := range selectors {
			if s.Matches(p) {
				ps = append(ps, p)
				break
			}
		}
	}
	return ps
}
