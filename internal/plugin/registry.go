package plugin

import (
	"errors"
	"fmt"
	"sync"
)

// ErrUnknown is returned by Get for an unregistered plugin name. It marks
// a configuration fault, not a transient one: callers must not retry.
var ErrUnknown = errors.New("unknown plugin")

// Registry maps plugin names to their implementations.
// It is safe for concurrent reads; Register should only be called at startup.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]Plugin
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{plugins: make(map[string]Plugin)}
}

// Register adds a plugin. Panics on duplicate name to surface
// misconfiguration early.
func (r *Registry) Register(p Plugin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.plugins[p.Name()]; exists {
		panic(fmt.Sprintf("plugin registry: duplicate name %q", p.Name()))
	}
	r.plugins[p.Name()] = p
}

// Get returns the plugin registered under name.
func (r *Registry) Get(name string) (Plugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknown, name)
	}
	return p, nil
}

// Names returns all registered plugin names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.plugins))
	for k := range r.plugins {
		out = append(out, k)
	}
	return out
}
