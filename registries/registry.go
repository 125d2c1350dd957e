// Package registries provides small typed lookup tables — protocol
// resolvers, viewers, lenses, themes, mods — each keyed by a string id
// with an optional fallback and diagnostic events on resolve.
package registries

import (
	"sort"
	"sync"

	"github.com/teranos/graphshell/errors"
)

// Diagnostics receives the started/succeeded/failed(+fallback) events a
// lookup emits, mirroring spec.md §6's diagnostic event channel naming
// (e.g. "registry.viewer.resolve_started").
type Diagnostics interface {
	Emit(event string, fields map[string]interface{})
}

// NopDiagnostics discards every event; the zero value is ready to use.
type NopDiagnostics struct{}

func (NopDiagnostics) Emit(string, map[string]interface{}) {}

// Registry is a generic conflict-checked lookup table of id -> V, with an
// optional fallback id used when a resolve misses. Adapted from the
// teacher's plugin.Registry (RWMutex-guarded map, sorted List, Register
// conflict-checking) generalized over the entry type.
type Registry[V any] struct {
	mu       sync.RWMutex
	entries  map[string]V
	fallback string
	name     string // e.g. "viewer", "protocol" — used in diagnostic event ids
	diag     Diagnostics
}

// New creates an empty registry. name scopes the diagnostic event ids this
// registry emits (e.g. name="viewer" emits "registry.viewer.resolve_started").
func New[V any](name string, diag Diagnostics) *Registry[V] {
	if diag == nil {
		diag = NopDiagnostics{}
	}
	return &Registry[V]{entries: make(map[string]V), name: name, diag: diag}
}

// SetFallback sets the id resolved when Get misses and no explicit
// fallback id is requested.
func (r *Registry[V]) SetFallback(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = id
}

// Register adds an entry under id. Returns an error if id is already
// registered — callers must explicitly Replace to override.
func (r *Registry[V]) Register(id string, entry V) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[id]; exists {
		return errors.Newf("%s already registered: %s", r.name, id)
	}
	r.entries[id] = entry
	return nil
}

// Replace registers entry under id unconditionally, overwriting any prior
// registration.
func (r *Registry[V]) Replace(id string, entry V) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[id] = entry
}

// Get resolves id, falling back to the registry's fallback id on a miss,
// and reports the outcome through diagnostics.
func (r *Registry[V]) Get(id string) (V, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	r.diag.Emit("registry."+r.name+".resolve_started", map[string]interface{}{"id": id})

	if v, ok := r.entries[id]; ok {
		r.diag.Emit("registry."+r.name+".resolve_succeeded", map[string]interface{}{"id": id})
		return v, true
	}

	if r.fallback != "" {
		if v, ok := r.entries[r.fallback]; ok {
			r.diag.Emit("registry."+r.name+".resolve_fallback_used", map[string]interface{}{
				"id": id, "fallback": r.fallback,
			})
			return v, true
		}
	}

	var zero V
	r.diag.Emit("registry."+r.name+".resolve_failed", map[string]interface{}{"id": id})
	return zero, false
}

// List returns all registered ids in sorted order.
func (r *Registry[V]) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len reports how many entries are registered.
func (r *Registry[V]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
