// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"sync"
)

// Factory creates a Surface with the given options. Factories return an
// error when the options lack what the backend needs, which lets
// NewSurface fall through to the next backend.
type Factory func(opts Options) (Surface, error)

// Backend is a registered surface backend.
type Backend struct {
	// Name is the unique identifier for this backend.
	Name string

	// Priority determines selection order (higher = preferred).
	//   - 100: host GPU device ("gpucontext")
	//   - 10: headless memory surface ("image")
	Priority int

	// Factory creates surface instances.
	Factory Factory

	// Available reports if the backend can run on this system.
	Available func() bool
}

// Registry manages surface backends. Hosts register platform backends
// (a windowing toolkit, an XR runtime) next to the built-in ones, and the
// compositor picks the best that accepts its options.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]*Backend
}

// NewRegistry creates an empty registry.
// Most code should use the package-level functions backed by the default
// registry.
func NewRegistry() *Registry {
	return &Registry{backends: make(map[string]*Backend)}
}

var defaultRegistry = NewRegistry()

// Register adds a backend to the default registry.
func Register(name string, priority int, factory Factory, available func() bool) {
	defaultRegistry.Register(name, priority, factory, available)
}

// List returns the default registry's backends by descending priority.
func List() []string {
	return defaultRegistry.List()
}

// Available returns the default registry's available backends by
// descending priority.
func Available() []string {
	return defaultRegistry.Available()
}

// NewSurface creates a surface with the best backend of the default
// registry that accepts opts.
func NewSurface(opts Options) (Surface, error) {
	return defaultRegistry.NewSurface(opts)
}

// NewSurfaceByName creates a surface with a named backend of the default
// registry.
func NewSurfaceByName(name string, opts Options) (Surface, error) {
	return defaultRegistry.NewSurfaceByName(name, opts)
}

// Register adds a backend. A nil available means always available.
// Registering an existing name replaces it.
func (r *Registry) Register(name string, priority int, factory Factory, available func() bool) {
	if available == nil {
		available = func() bool { return true }
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[name] = &Backend{
		Name:      name,
		Priority:  priority,
		Factory:   factory,
		Available: available,
	}
}

// List returns all backend names by descending priority.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedNames(false)
}

// Available returns the names of available backends by descending priority.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedNames(true)
}

// Get returns a copy of the named backend.
func (r *Registry) Get(name string) (Backend, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.backends[name]
	if !ok {
		return Backend{}, false
	}
	return *b, true
}

// NewSurface tries each available backend by priority and returns the
// first surface created. When every backend fails the errors are joined.
func (r *Registry) NewSurface(opts Options) (Surface, error) {
	names := r.Available()
	if len(names) == 0 {
		return nil, ErrNoBackendAvailable
	}

	var errs []error
	for _, name := range names {
		s, err := r.NewSurfaceByName(name, opts)
		if err == nil {
			return s, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", name, err))
	}
	return nil, errors.Join(errs...)
}

// NewSurfaceByName creates a surface with a specific backend.
func (r *Registry) NewSurfaceByName(name string, opts Options) (Surface, error) {
	b, ok := r.Get(name)
	if !ok {
		return nil, &BackendNotFoundError{Name: name}
	}
	if !b.Available() {
		return nil, &BackendUnavailableError{Name: name}
	}
	return b.Factory(opts)
}

// sortedNames must be called with the lock held.
func (r *Registry) sortedNames(onlyAvailable bool) []string {
	list := make([]*Backend, 0, len(r.backends))
	for _, b := range r.backends {
		if onlyAvailable && !b.Available() {
			continue
		}
		list = append(list, b)
	}
	slices.SortFunc(list, func(a, b *Backend) int {
		return cmp.Or(cmp.Compare(b.Priority, a.Priority), cmp.Compare(a.Name, b.Name))
	})

	names := make([]string, len(list))
	for i, b := range list {
		names[i] = b.Name
	}
	return names
}

// ErrNoBackendAvailable is returned when no backends are registered or
// available.
var ErrNoBackendAvailable = errors.New("surface: no backend available")

// BackendNotFoundError indicates a named backend is not registered.
type BackendNotFoundError struct {
	Name string
}

func (e *BackendNotFoundError) Error() string {
	return "surface: backend not found: " + e.Name
}

// BackendUnavailableError indicates a backend exists but is not available.
type BackendUnavailableError struct {
	Name string
}

func (e *BackendUnavailableError) Error() string {
	return "surface: backend unavailable: " + e.Name
}

func init() {
	Register("gpucontext", 100, func(opts Options) (Surface, error) {
		size := opts.size()
		return NewProviderSurface(opts.Provider, opts.Target, size.X, size.Y)
	}, nil)
	Register("image", 10, func(opts Options) (Surface, error) {
		return NewImageSurface(opts.Width, opts.Height), nil
	}, nil)
}
