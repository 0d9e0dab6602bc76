package sim

import (
	"fmt"
	"sort"
	"sync"

	"github.com/zclconf/go-cty/cty"
)

// Factory constructs a module instance from its configured name, the
// population it is bound to, and the raw argument map from the config file.
type Factory func(name, popName string, args map[string]cty.Value) (Module, error)

// Plugin is implemented by packages that contribute module types. The
// application wires every bundled plugin through Register at startup.
type Plugin interface {
	Register(r *Registry)
}

// Registry maps module type names to their factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty module type registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// RegisterType adds a factory under a type name. Registering the same type
// twice panics; duplicate types are a programming error, not a config error.
func (r *Registry) RegisterType(typeName string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[typeName]; ok {
		panic(fmt.Sprintf("sim: module type %q registered twice", typeName))
	}
	r.factories[typeName] = f
}

// New instantiates a module of the given type.
func (r *Registry) New(typeName, name, popName string, args map[string]cty.Value) (Module, error) {
	r.mu.RLock()
	f, ok := r.factories[typeName]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown module type %q (known: %v)", typeName, r.Types())
	}
	return f(name, popName, args)
}

// Types returns the registered type names in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
