package plugin

import (
	"errors"
	"fmt"
	"sync"

	"github.com/lumen-render/lumen/pkg/core"
)

// ErrUnknownPlugin is returned when no constructor is registered for a name.
var ErrUnknownPlugin = errors.New("plugin: unknown plugin")

// Constructor builds an object from a configuration bundle
type Constructor func(props Properties) (core.Object, error)

var (
	mu       sync.RWMutex
	registry = make(map[string]Constructor)
)

// Register makes a constructor available under the given name.
// Subsequent registrations under the same name replace the previous one.
// Typically called from an object package's init function.
func Register(name string, ctor Constructor) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = ctor
}

// Create instantiates the named plugin from the given configuration
func Create(name string, props Properties) (core.Object, error) {
	mu.RLock()
	ctor, ok := registry[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlugin, name)
	}
	return ctor(props)
}
