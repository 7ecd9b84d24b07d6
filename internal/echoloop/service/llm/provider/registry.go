package provider

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/kiosk404/echoloop/internal/echoloop/service/llm/provider/helper"
	"github.com/kiosk404/echoloop/internal/echoloop/service/llm/provider/spi"
)

// Registry maps provider IDs to plugin factories. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]spi.PluginFactory
}

func NewRegistry() *Registry {
	return &Registry{factories: map[string]spi.PluginFactory{}}
}

func (r *Registry) Register(name string, factory spi.PluginFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.add(name, factory)
}

func (r *Registry) add(name string, factory spi.PluginFactory) error {
	if _, dup := r.factories[name]; dup {
		return fmt.Errorf("provider %s is already registered", name)
	}
	r.factories[name] = factory
	return nil
}

func (r *Registry) MustRegister(name string, factory spi.PluginFactory) {
	if err := r.Register(name, factory); err != nil {
		panic(err)
	}
}

func (r *Registry) Lookup(name string) (spi.PluginFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[name]
	return f, ok
}

// Plugin returns a new plugin for name. Names without a registered plugin
// get the OpenAI-compatible generic one, and registered reports false.
func (r *Registry) Plugin(name string) (plugin spi.ProviderPlugin, registered bool) {
	if f, ok := r.Lookup(name); ok {
		return f(), true
	}
	return helper.NewGenericPlugin(name), false
}

// Names returns the registered provider IDs in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.factories))
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.factories)
}

// Extend adds every plugin of other. Nothing is added when a name is taken.
func (r *Registry) Extend(other *Registry) error {
	if other == nil || other == r {
		return nil
	}
	incoming := other.snapshot()

	r.mu.Lock()
	defer r.mu.Unlock()
	for name := range incoming {
		if _, dup := r.factories[name]; dup {
			return fmt.Errorf("provider %s is already registered", name)
		}
	}
	maps.Copy(r.factories, incoming)
	return nil
}

func (r *Registry) snapshot() map[string]spi.PluginFactory {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.factories)
}
