package monster

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownArchetype is returned when a monster references an unregistered kind.
var ErrUnknownArchetype = errors.New("unknown monster archetype")

// Registry maps archetype kinds to their definitions.
// All methods are safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	kinds map[string]*Archetype
}

// NewRegistry returns a Registry pre-loaded with the built-in Molodoy archetype.
func NewRegistry() *Registry {
	r := &Registry{kinds: make(map[string]*Archetype)}
	r.kinds[KindMolodoy] = Molodoy()
	return r
}

// Register adds or replaces an archetype.
//
// Precondition: a must be non-nil.
// Postcondition: Returns an error when a fails validation.
func (r *Registry) Register(a *Archetype) error {
	if err := a.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds[a.Kind] = a
	return nil
}

// Get returns the archetype for kind or ErrUnknownArchetype.
func (r *Registry) Get(kind string) (*Archetype, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.kinds[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownArchetype, kind)
	}
	return a, nil
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.kinds))
	for k := range r.kinds {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
