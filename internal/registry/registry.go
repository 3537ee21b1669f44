package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/vk/optree/internal/optree"
)

// ErrUnknownPlugin is returned by Plugin for names nobody registered.
var ErrUnknownPlugin = errors.New("unknown plugin")

// Module is the interface that all plugin packages must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Factory creates a new plugin instance.
type Factory func() optree.Plugin

// Registry holds the registered plugin factories of a single application
// instance.
type Registry struct {
	factories map[string]Factory
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// RegisterPlugin registers a factory under name.
func (r *Registry) RegisterPlugin(name string, f Factory) {
	if _, exists := r.factories[name]; exists {
		panic(fmt.Sprintf("plugin with name '%s' already registered", name))
	}
	if f == nil {
		panic(fmt.Sprintf("plugin '%s' registered with a nil factory", name))
	}
	slog.Debug("Registering plugin.", "name", name)
	r.factories[name] = f
}

// Plugin creates a new instance of the named plugin.
func (r *Registry) Plugin(name string) (optree.Plugin, error) {
	f, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%q (available: %s): %w", name, strings.Join(r.Names(), ", "), ErrUnknownPlugin)
	}
	return f(), nil
}

// Names returns the registered plugin names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
