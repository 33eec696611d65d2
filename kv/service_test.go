package kv_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/tailored-agentic-units/caw/kv"
)

func newTestServer(t *testing.T, store kv.Store) *kv.Client {
	t.Helper()

	mux := http.NewServeMux()
	for path, h := range kv.NewService(store, nil).Handlers() {
		mux.Handle(path, h)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return kv.NewClient(srv.Client(), srv.URL)
}

func TestService_RoundTrip(t *testing.T) {
	ctx := context.Background()
	backing := kv.NewMemoryStore()
	client := newTestServer(t, backing)

	for _, v := range []string{"alice", "bob", "alice"} {
		if err := client.Put(ctx, "users", v); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
	}

	got, err := client.Get(ctx, "users")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if want := []string{"alice", "bob", "alice"}; !slices.Equal(got, want) {
		t.Errorf("Get() = %v, want %v", got, want)
	}

	direct, _ := backing.Get(ctx, "users")
	if !slices.Equal(direct, got) {
		t.Errorf("backing store = %v, client saw %v", direct, got)
	}

	if err := client.Remove(ctx, "users"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	got, err = client.Get(ctx, "users")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("Get() after Remove = %#v, want empty", got)
	}
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := kv.NewClient(nil, url)
	if _, err := client.Get(context.Background(), "k"); err == nil {
		t.Error("Get() against closed server expected error")
	}
}
