package tool

import (
	"fmt"
	"sort"
	"sync"

	"github.com/kiosk404/echoloop/pkg/logger"
)

// ToolSet is a named group of related tools loaded together.
type ToolSet struct {
	Name        string
	Description string
	// Tools builds the set's tools. It is called on every load.
	Tools func() []*Tool
}

// ToolSetRegistry is the catalog of tool sets that can be loaded into a Registry.
type ToolSetRegistry struct {
	mu     sync.RWMutex
	sets   map[string]ToolSet
	loaded map[string]int
}

// NewToolSetRegistry creates an empty catalog.
func NewToolSetRegistry() *ToolSetRegistry {
	return &ToolSetRegistry{
		sets:   make(map[string]ToolSet),
		loaded: make(map[string]int),
	}
}

// Register adds set to the catalog.
func (c *ToolSetRegistry) Register(set ToolSet) error {
	if set.Name == "" || set.Tools == nil {
		return fmt.Errorf("%w: tool set needs a name and a tool factory", ErrInvalidTool)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.sets[set.Name]; ok {
		return fmt.Errorf("%w: %s", ErrToolSetRegistered, set.Name)
	}
	c.sets[set.Name] = set
	return nil
}

// MustRegister is Register that panics on conflict.
func (c *ToolSetRegistry) MustRegister(set ToolSet) {
	if err := c.Register(set); err != nil {
		panic(err)
	}
}

// Get returns the named tool set.
func (c *ToolSetRegistry) Get(name string) (ToolSet, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	set, ok := c.sets[name]
	return set, ok
}

// List returns every tool set sorted by name.
func (c *ToolSetRegistry) List() []ToolSet {
	c.mu.RLock()
	defer c.mu.RUnlock()
	sets := make([]ToolSet, 0, len(c.sets))
	for _, s := range c.sets {
		sets = append(sets, s)
	}
	sort.Slice(sets, func(i, j int) bool { return sets[i].Name < sets[j].Name })
	return sets
}

// Load clears r and registers every tool of the named set into it.
func (c *ToolSetRegistry) Load(name string, r *Registry) error {
	set, ok := c.Get(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrToolSetNotFound, name)
	}

	r.Clear()
	for _, t := range set.Tools() {
		if err := r.Register(t); err != nil {
			r.Clear()
			return fmt.Errorf("failed to load tool set %q: %w", name, err)
		}
	}

	c.mu.Lock()
	c.loaded[name]++
	c.mu.Unlock()

	logger.Debug("[ToolSet] loaded %q with %d tools", name, r.Len())
	return nil
}

// LoadedSets returns the names of sets loaded at least once, sorted.
func (c *ToolSetRegistry) LoadedSets() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.loaded))
	for name := range c.loaded {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
