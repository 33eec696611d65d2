package faz_test

import (
	"context"
	"errors"
	"testing"

	"github.com/tailored-agentic-units/caw/caw"
	"github.com/tailored-agentic-units/caw/faz"
	"github.com/tailored-agentic-units/caw/kv"
)

func TestParseEventType(t *testing.T) {
	tests := []struct {
		in      string
		want    faz.EventType
		wantErr bool
	}{
		{in: "registeruser", want: faz.EventRegisterUser},
		{in: "caw", want: faz.EventCaw},
		{in: "stream", want: faz.EventStream},
		{in: "3", want: faz.EventRead},
		{in: "9", wantErr: true},
		{in: "post", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := faz.ParseEventType(tt.in)
			if tt.wantErr {
				if !errors.Is(err, faz.ErrUnknownEventType) {
					t.Errorf("ParseEventType(%q) error = %v, want %v", tt.in, err, faz.ErrUnknownEventType)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseEventType(%q) = %v, %v, want %v", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestDefaultHooks(t *testing.T) {
	hooks := faz.DefaultHooks()
	if len(hooks) != 6 {
		t.Fatalf("DefaultHooks() has %d entries, want 6", len(hooks))
	}
	if hooks[faz.EventCaw] != "caw" || hooks[faz.EventStream] != "stream" {
		t.Errorf("DefaultHooks() = %v", hooks)
	}
}

func TestHooks_StoredAsRows(t *testing.T) {
	store := kv.NewMemoryStore()
	hooks := faz.NewHooks(store)
	ctx := context.Background()

	hooks.Hook(ctx, faz.EventCaw, "first")
	hooks.Hook(ctx, faz.EventCaw, "second")

	if rows, _ := store.Get(ctx, "1"); len(rows) != 2 {
		t.Errorf("store row for event 1 = %v, want both bindings", rows)
	}
	if name, ok, _ := hooks.Lookup(ctx, faz.EventCaw); !ok || name != "second" {
		t.Errorf("Lookup() = %q, %v, want second", name, ok)
	}

	hooks.Unhook(ctx, faz.EventCaw)
	if _, ok, _ := hooks.Lookup(ctx, faz.EventCaw); ok {
		t.Error("Lookup() after Unhook found a binding")
	}
}

func TestEnvelope_RoundTrip(t *testing.T) {
	in := &caw.ReadReply{Caws: []caw.Post{{ID: "0", Username: "a", Text: "root"}, {ID: "1", Username: "b", Text: "re", ParentID: "0"}}}

	env, err := faz.Wrap(in)
	if err != nil {
		t.Fatal(err)
	}
	if env.Type != caw.ReadReplyType {
		t.Errorf("Type = %q, want %q", env.Type, caw.ReadReplyType)
	}

	out, err := faz.Unwrap(env)
	if err != nil {
		t.Fatal(err)
	}
	got, ok := out.(*caw.ReadReply)
	if !ok || len(got.Caws) != 2 || got.Caws[1].ParentID != "0" {
		t.Errorf("Unwrap() = %#v", out)
	}
}

func TestUnwrap_UnknownType(t *testing.T) {
	if _, err := faz.Unwrap(faz.Envelope{Type: "x.Unknown"}); !errors.Is(err, caw.ErrInvalidArgument) {
		t.Errorf("Unwrap() error = %v, want %v", err, caw.ErrInvalidArgument)
	}
}
