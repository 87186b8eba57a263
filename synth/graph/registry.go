package graph

import (
	"errors"
	"fmt"
	"sync"
)

// LoadState tracks a module's availability in the registry.
type LoadState int

const (
	// StateUnregistered means the module name has never been seen.
	StateUnregistered LoadState = iota
	// StateLoading means a loader has started but not resolved.
	StateLoading
	// StateLoaded means the module is available; requests resolve
	// synchronously.
	StateLoaded
)

func (s LoadState) String() string {
	switch s {
	case StateUnregistered:
		return "unregistered"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	default:
		return "unknown"
	}
}

var (
	// ErrModuleLoaded is returned when resolving an already-loaded module.
	ErrModuleLoaded = errors.New("module already loaded")
	errEmptyModule  = errors.New("empty module name")
)

// registryEntry is the single-resolution future for one module name:
// continuations queued before resolution fire exactly once, in registration
// order, when the module loads.
type registryEntry struct {
	state   LoadState
	module  Module
	waiters []func(Module)
}

// Registry maps module names to their load state and pending continuations.
// All methods are safe for concurrent control-plane use.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*registryEntry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*registryEntry)}
}

// State returns the load state of name.
func (r *Registry) State(name string) LoadState {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[name]
	if !ok {
		return StateUnregistered
	}

	return e.state
}

// Begin marks name as loading. It is a no-op for loaded modules.
func (r *Registry) Begin(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := r.entry(name)
	if e.state == StateUnregistered {
		e.state = StateLoading
	}
}

// Resolve marks name as loaded and fires every queued continuation exactly
// once, in registration order. Resolving twice is an error.
func (r *Registry) Resolve(name string, m Module) error {
	if name == "" {
		return errEmptyModule
	}

	r.mu.Lock()

	e := r.entry(name)
	if e.state == StateLoaded {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrModuleLoaded, name)
	}

	e.state = StateLoaded
	e.module = m

	waiters := e.waiters
	e.waiters = nil

	r.mu.Unlock()

	// Continuations run outside the lock so they may touch the registry.
	for _, fn := range waiters {
		fn(m)
	}

	return nil
}

// Register loads name through loader and resolves it. The loader runs
// synchronously; for genuinely asynchronous loading, call Begin, run the
// loader elsewhere, and Resolve when done.
func (r *Registry) Register(name string, loader func() (Module, error)) error {
	if name == "" {
		return errEmptyModule
	}

	if loader == nil {
		return fmt.Errorf("nil loader for module %s", name)
	}

	r.Begin(name)

	m, err := loader()
	if err != nil {
		return fmt.Errorf("load module %q: %w", name, err)
	}

	return r.Resolve(name, m)
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(name string, loader func() (Module, error)) {
	err := r.Register(name, loader)
	if err != nil {
		panic("graph registry: " + err.Error())
	}
}

// Request calls fn with the module once it is loaded. If it is already
// loaded, fn runs synchronously before Request returns; otherwise fn is
// queued and fires exactly once on resolution.
func (r *Registry) Request(name string, fn func(Module)) {
	if fn == nil {
		return
	}

	r.mu.Lock()

	e := r.entry(name)
	if e.state == StateLoaded {
		m := e.module
		r.mu.Unlock()

		fn(m)

		return
	}

	e.waiters = append(e.waiters, fn)
	r.mu.Unlock()
}

// Lookup returns the module for name if it is loaded.
func (r *Registry) Lookup(name string) (Module, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[name]
	if !ok || e.state != StateLoaded {
		return Module{}, false
	}

	return e.module, true
}

// entry returns the entry for name, creating it if needed. Callers hold mu.
func (r *Registry) entry(name string) *registryEntry {
	e, ok := r.entries[name]
	if !ok {
		e = &registryEntry{}
		r.entries[name] = e
	}

	return e
}
