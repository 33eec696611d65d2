package caw

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/tailored-agentic-units/caw/kv"
)

// Handler runs one business operation. The payload is the JSON-encoded
// request; the result is the JSON-encoded reply. A non-nil error wraps one
// of the package error kinds.
type Handler func(ctx context.Context, payload json.RawMessage, store kv.Store) (json.RawMessage, error)

// Handler names bound by NewDefaultRegistry.
const (
	RegisterUserHandler = "registeruser"
	CawHandler          = "caw"
	FollowHandler       = "follow"
	ReadHandler         = "read"
	ProfileHandler      = "profile"
)

// Registry maps handler names to handlers. It is safe for concurrent use.
type Registry struct {
	entries map[string]Handler
	mu      sync.RWMutex
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Handler)}
}

// NewDefaultRegistry returns a registry with the five caw handlers bound.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for name, h := range map[string]Handler{
		RegisterUserHandler: RegisterUser,
		CawHandler:          Caw,
		FollowHandler:       Follow,
		ReadHandler:         Read,
		ProfileHandler:      Profile,
	} {
		r.entries[name] = h
	}
	return r
}

// Register adds a handler under name.
// Returns ErrAlreadyExists if the name is taken; use Replace to rebind.
func (r *Registry) Register(name string, h Handler) error {
	if name == "" {
		return fmt.Errorf("%w: handler name is empty", ErrInvalidArgument)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[name]; exists {
		return fmt.Errorf("%w: handler %s", ErrAlreadyExists, name)
	}
	r.entries[name] = h
	return nil
}

// Replace rebinds an existing name.
func (r *Registry) Replace(name string, h Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[name]; !exists {
		return fmt.Errorf("%w: handler %s", ErrNotFound, name)
	}
	r.entries[name] = h
	return nil
}

func (r *Registry) Lookup(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.entries[name]
	return h, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Execute runs the named handler against store.
// Returns ErrNotFound if no handler is registered under name. Handler errors
// are returned unwrapped so their kind and message reach the caller as-is.
func (r *Registry) Execute(ctx context.Context, name string, payload json.RawMessage, store kv.Store) (json.RawMessage, error) {
	h, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: function %s", ErrNotFound, name)
	}
	return h(ctx, payload, store)
}
