package accel

import (
	"fmt"
	"sync"
)

// DefaultName is the backend used when a scene doesn't select one explicitly.
const DefaultName = "bvh"

var (
	registryMu sync.RWMutex
	registry   = make(map[string]func() Backend)
)

// Register makes a backend factory available under the given name.
// Subsequent registrations under the same name replace the previous one.
func Register(name string, factory func() Backend) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// New creates a fresh backend instance by name.
func New(name string) (Backend, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
	return factory(), nil
}

// Names returns the registered backend names.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}
