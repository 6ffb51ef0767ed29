package catalogue

import (
	"fmt"
	"sync/atomic"
)

// Store publishes the active catalogue snapshot to request processing.
// Reloads swap the pointer atomically, so in-flight requests keep the
// snapshot they started with and never observe a half-updated catalogue.
type Store struct {
	current atomic.Pointer[Catalogue]
}

// NewStore creates a store holding the given initial snapshot.
func NewStore(initial *Catalogue) (*Store, error) {
	if initial == nil {
		return nil, fmt.Errorf("catalogue store: initial snapshot is required")
	}
	s := &Store{}
	s.current.Store(initial)
	return s, nil
}

// Snapshot returns the active catalogue. The returned snapshot is immutable
// and remains valid after later swaps.
func (s *Store) Snapshot() *Catalogue {
	return s.current.Load()
}

// Swap atomically replaces the active snapshot.
func (s *Store) Swap(next *Catalogue) {
	if next == nil {
		return
	}
	s.current.Store(next)
}
