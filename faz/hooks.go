package faz

import (
	"context"
	"fmt"

	"github.com/tailored-agentic-units/caw/caw"
	"github.com/tailored-agentic-units/caw/kv"
)

// Hooks binds event types to handler names. Bindings are ordinary store
// rows keyed by the event number, so they persist with the rest of the data.
// Hooking appends; the last name in the row is the current binding.
type Hooks struct {
	store kv.Store
}

// NewHooks stores bindings in store under each event type's Key.
func NewHooks(store kv.Store) *Hooks {
	return &Hooks{store: store}
}

// Hook replaces the binding of t with name.
func (h *Hooks) Hook(ctx context.Context, t EventType, name string) error {
	if err := h.store.Put(ctx, t.Key(), name); err != nil {
		return fmt.Errorf("%w: hook %s: %w", caw.ErrUnavailable, t, err)
	}
	return nil
}

// Unhook removes every binding of t, including shadowed ones.
func (h *Hooks) Unhook(ctx context.Context, t EventType) error {
	if err := h.store.Remove(ctx, t.Key()); err != nil {
		return fmt.Errorf("%w: unhook %s: %w", caw.ErrUnavailable, t, err)
	}
	return nil
}

// Lookup returns the current handler name for t.
func (h *Hooks) Lookup(ctx context.Context, t EventType) (string, bool, error) {
	names, err := h.store.Get(ctx, t.Key())
	if err != nil {
		return "", false, fmt.Errorf("%w: lookup %s: %w", caw.ErrUnavailable, t, err)
	}
	if len(names) == 0 {
		return "", false, nil
	}
	return names[len(names)-1], true, nil
}
