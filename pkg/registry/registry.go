// Package registry provides a small named-implementation factory. Pluggable
// bases (platforms, node features) get a Factory instance, each concrete
// implementation registers a constructor under its declared type name, and
// the owner resolves one by name at startup without compile-time coupling.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// ErrNotFound is returned when no implementation registered the requested
// name.
var ErrNotFound = errors.New("not found")

// Factory maps declared type names to constructors of a common base type.
type Factory[T any] struct {
	base string

	mu    sync.RWMutex
	ctors map[string]func() T
	log   zerolog.Logger
}

// NewFactory creates an empty factory for the given base type name. The base
// name only appears in logs and error messages.
func NewFactory[T any](base string, log zerolog.Logger) *Factory[T] {
	return &Factory[T]{
		base:  base,
		ctors: make(map[string]func() T),
		log:   log.With().Str("factory", base).Logger(),
	}
}

// Register adds a constructor under the given type name. A duplicate name is
// not fatal but the first registration is kept, so repeated registration
// stays deterministic; the conflict is logged.
func (f *Factory[T]) Register(name string, ctor func() T) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.ctors[name]; exists {
		f.log.Warn().Str("type", name).Msg("type registered again, keeping first registration")
		return
	}
	f.ctors[name] = ctor
	f.log.Debug().Str("type", name).Msg("registered type")
}

// CreateByName constructs a new instance of the implementation registered
// under the given name. Unknown names fail with ErrNotFound.
func (f *Factory[T]) CreateByName(name string) (T, error) {
	f.mu.RLock()
	ctor, ok := f.ctors[name]
	f.mu.RUnlock()

	if !ok {
		var zero T
		return zero, fmt.Errorf("%s type %q: %w (registered: %v)", f.base, name, ErrNotFound, f.Names())
	}
	return ctor(), nil
}

// Names returns the registered type names, sorted for stable output.
func (f *Factory[T]) Names() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	names := make([]string, 0, len(f.ctors))
	for name := range f.ctors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
