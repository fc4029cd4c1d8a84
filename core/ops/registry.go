package ops

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Kind identifies a chat command by its token, without the leading slash.
type Kind string

const (
	KindStart Kind = "start"
)

// Request is the part of an inbound message an op may look at.
type Request struct {
	ChatID int64
	UserID int64
	Args   string
}

// Reply is what an op wants sent back to the requesting chat.
type Reply struct {
	Text    string
	Control *LaunchControl
}

// Op defines an executable operation triggered by an inbound command.
type Op interface {
	Kind() Kind
	Description() string
	Execute(ctx context.Context, req Request) (Reply, error)
}

// Registry holds registered operations keyed by kind.
type Registry struct {
	mu  sync.RWMutex
	ops map[Kind]Op
}

// NewRegistry creates an empty operation registry.
func NewRegistry() *Registry {
	return &Registry{ops: make(map[Kind]Op)}
}

// Register adds an operation. Returns an error if the kind is already registered.
func (r *Registry) Register(op Op) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kind := op.Kind()
	if kind == "" {
		return fmt.Errorf("op has empty kind")
	}
	if _, exists := r.ops[kind]; exists {
		return fmt.Errorf("op already registered: %s", kind)
	}
	r.ops[kind] = op
	return nil
}

// Get returns the operation with the given kind, or nil if not found.
func (r *Registry) Get(kind Kind) Op {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ops[kind]
}

// List returns all registered operations sorted by kind.
func (r *Registry) List() []Op {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.ops))
	for kind := range r.ops {
		kinds = append(kinds, string(kind))
	}
	sort.Strings(kinds)

	result := make([]Op, len(kinds))
	for i, kind := range kinds {
		result[i] = r.ops[Kind(kind)]
	}
	return result
}
