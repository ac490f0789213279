package prompt

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds the loaded prompt templates.
type Registry struct {
	mu      sync.RWMutex
	prompts map[string]*Template
}

var globalRegistry *Registry
var once sync.Once

// Get returns the global registry singleton, populated with the built-in
// accounting prompts on first use.
func Get() *Registry {
	once.Do(func() {
		globalRegistry = &Registry{prompts: make(map[string]*Template)}
		registerBuiltins(globalRegistry)
	})
	return globalRegistry
}

// Register adds a template to the registry.
func (r *Registry) Register(t *Template) error {
	if t.ID == "" {
		return fmt.Errorf("prompt ID cannot be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prompts[t.ID] = t
	return nil
}

// GetPrompt retrieves a template by ID.
func (r *Registry) GetPrompt(id string) (*Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.prompts[id]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("prompt not found: %s", id)
}

// GetByName retrieves a template by its external MCP name.
func (r *Registry) GetByName(name string) (*Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.prompts {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("prompt not found: %s", name)
}

// GetSystemPrompt returns only the system prompt string.
func (r *Registry) GetSystemPrompt(id string) (string, error) {
	p, err := r.GetPrompt(id)
	if err != nil {
		return "", err
	}
	return p.SystemPrompt, nil
}

// List returns every template sorted by external name.
func (r *Registry) List() []*Template {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Template, 0, len(r.prompts))
	for _, p := range r.prompts {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Count returns the number of registered templates.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.prompts)
}
