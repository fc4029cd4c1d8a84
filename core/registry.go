package core

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds named Sender implementations and tracks the default.
type Registry struct {
	mu          sync.RWMutex
	senders     map[string]Sender
	defaultName string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		senders: make(map[string]Sender),
	}
}

// Register adds a sender. The first registered sender becomes the default.
func (r *Registry) Register(s Sender) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := s.Name()
	if _, exists := r.senders[name]; exists {
		return fmt.Errorf("sender %q already registered", name)
	}
	r.senders[name] = s
	if r.defaultName == "" {
		r.defaultName = name
	}
	return nil
}

// Default returns the default sender.
func (r *Registry) Default() (Sender, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.defaultName == "" {
		return nil, fmt.Errorf("no senders registered")
	}
	return r.senders[r.defaultName], nil
}

// Get returns a sender by name.
func (r *Registry) Get(name string) (Sender, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.senders[name]
	if !ok {
		return nil, fmt.Errorf("sender %q not found", name)
	}
	return s, nil
}

// Names returns the registered sender names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.senders))
	for name := range r.senders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
