package gate

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds the closed set of gates known to the process, keyed by
// gate id and grouped by module. Gates register once at startup; lookups
// during request processing are read-only.
type Registry struct {
	mu      sync.RWMutex
	gates   map[string]Gate
	modules map[string][]Gate
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		gates:   make(map[string]Gate),
		modules: make(map[string][]Gate),
	}
}

// Register adds a gate to the registry. Registering two gates with the
// same id is a configuration error.
func (r *Registry) Register(g Gate) error {
	if g.ID() == "" {
		return fmt.Errorf("gate id is required")
	}
	if g.Module() == "" {
		return fmt.Errorf("gate %s: module is required", g.ID())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.gates[g.ID()]; exists {
		return fmt.Errorf("gate %s: already registered", g.ID())
	}
	r.gates[g.ID()] = g
	r.modules[g.Module()] = append(r.modules[g.Module()], g)
	return nil
}

// RegisterAll registers every gate, stopping at the first error.
func (r *Registry) RegisterAll(gates []Gate) error {
	for _, g := range gates {
		if err := r.Register(g); err != nil {
			return err
		}
	}
	return nil
}

// ForModules resolves the gates for the requested modules, ordered by gate
// id so callers iterate deterministically. Unknown module names resolve to
// nothing and contribute no results.
func (r *Registry) ForModules(names []string) []Gate {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Gate
	seen := make(map[string]bool)
	for _, name := range names {
		for _, g := range r.modules[name] {
			if !seen[g.ID()] {
				seen[g.ID()] = true
				out = append(out, g)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Modules returns the sorted list of known module names.
func (r *Registry) Modules() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered gates.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.gates)
}
