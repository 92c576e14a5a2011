package command

import (
	"fmt"
	"sync"

	perrors "github.com/phillarmonic/praxis/internal/errors"
)

// Registry maps command names to entries
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	order   []string // preserve insertion order
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*Entry),
		order:   make([]string, 0),
	}
}

// Register adds a command
func (r *Registry) Register(entry *Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := entry.Validate(); err != nil {
		return err
	}
	if _, exists := r.entries[entry.Name]; exists {
		return fmt.Errorf("command '%s' already registered", entry.Name)
	}

	r.entries[entry.Name] = entry
	r.order = append(r.order, entry.Name)
	return nil
}

// Replace registers entry, overriding any command with the same name
func (r *Registry) Replace(entry *Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := entry.Validate(); err != nil {
		return err
	}
	if _, exists := r.entries[entry.Name]; !exists {
		r.order = append(r.order, entry.Name)
	}
	r.entries[entry.Name] = entry
	return nil
}

// Get retrieves a command by name
func (r *Registry) Get(name string) (*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if entry, exists := r.entries[name]; exists {
		return entry, nil
	}
	return nil, &perrors.UnknownCommandError{Command: name}
}

// Exists checks if a command is registered
func (r *Registry) Exists(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.entries[name]
	return exists
}

// List returns all commands in insertion order
func (r *Registry) List() []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]*Entry, 0, len(r.order))
	for _, name := range r.order {
		entries = append(entries, r.entries[name])
	}
	return entries
}

// Count returns the number of registered commands
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries)
}
