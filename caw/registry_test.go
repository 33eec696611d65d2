package caw_test

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"testing"

	"github.com/tailored-agentic-units/caw/caw"
	"github.com/tailored-agentic-units/caw/kv"
)

func echoHandler(_ context.Context, payload json.RawMessage, _ kv.Store) (json.RawMessage, error) {
	return payload, nil
}

func TestNewDefaultRegistry(t *testing.T) {
	r := caw.NewDefaultRegistry()

	want := []string{"caw", "follow", "profile", "read", "registeruser"}
	if got := r.Names(); !slices.Equal(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

func TestRegistry_Register(t *testing.T) {
	tests := []struct {
		name    string
		handler string
		wantErr error
	}{
		{name: "valid", handler: "echo"},
		{name: "duplicate", handler: "echo", wantErr: caw.ErrAlreadyExists},
		{name: "empty name", handler: "", wantErr: caw.ErrInvalidArgument},
	}

	r := caw.NewRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.Register(tt.handler, echoHandler)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Register() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Errorf("Register() unexpected error: %v", err)
			}
		})
	}
}

func TestRegistry_Replace(t *testing.T) {
	r := caw.NewRegistry()

	if err := r.Replace("echo", echoHandler); !errors.Is(err, caw.ErrNotFound) {
		t.Errorf("Replace(missing) error = %v, want %v", err, caw.ErrNotFound)
	}

	if err := r.Register("echo", echoHandler); err != nil {
		t.Fatal(err)
	}
	upper := func(context.Context, json.RawMessage, kv.Store) (json.RawMessage, error) {
		return json.RawMessage(`"replaced"`), nil
	}
	if err := r.Replace("echo", upper); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	out, err := r.Execute(context.Background(), "echo", json.RawMessage(`"x"`), kv.NewMemoryStore())
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `"replaced"` {
		t.Errorf("Execute() = %s, want replaced handler output", out)
	}
}

func TestRegistry_Execute(t *testing.T) {
	r := caw.NewDefaultRegistry()
	store := kv.NewMemoryStore()
	ctx := context.Background()

	if _, err := r.Execute(ctx, "missing", nil, store); !errors.Is(err, caw.ErrNotFound) {
		t.Errorf("Execute(missing) error = %v, want %v", err, caw.ErrNotFound)
	}

	if _, err := r.Execute(ctx, caw.RegisterUserHandler, json.RawMessage(`{"username":"alice"}`), store); err != nil {
		t.Fatalf("Execute(registeruser) error = %v", err)
	}
	_, err := r.Execute(ctx, caw.RegisterUserHandler, json.RawMessage(`{"username":"alice"}`), store)
	if !errors.Is(err, caw.ErrAlreadyExists) {
		t.Errorf("second Execute(registeruser) error = %v, want %v", err, caw.ErrAlreadyExists)
	}
}

func TestNewReply(t *testing.T) {
	for _, name := range []string{
		caw.RegisterUserReplyType,
		caw.CawReplyType,
		caw.FollowReplyType,
		caw.ReadReplyType,
		caw.ProfileReplyType,
	} {
		reply, err := caw.NewReply(name)
		if err != nil {
			t.Errorf("NewReply(%q) error = %v", name, err)
			continue
		}
		if reply.TypeName() != name {
			t.Errorf("NewReply(%q).TypeName() = %q", name, reply.TypeName())
		}
	}

	if _, err := caw.NewReply("caw.v1.Nope"); !errors.Is(err, caw.ErrInvalidArgument) {
		t.Errorf("NewReply(unknown) error = %v, want %v", err, caw.ErrInvalidArgument)
	}
}
