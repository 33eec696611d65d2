package kv_test

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/tailored-agentic-units/caw/kv"
)

func TestMemoryStore_PutPreservesOrderAndDuplicates(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()

	for _, v := range []string{"v1", "v2", "v1", "v3"} {
		if err := store.Put(ctx, "k", v); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
	}

	got, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	want := []string{"v1", "v2", "v1", "v3"}
	if !slices.Equal(got, want) {
		t.Errorf("Get() = %v, want %v", got, want)
	}
}

func TestMemoryStore_GetMissingKey(t *testing.T) {
	got, err := kv.NewMemoryStore().Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("Get() = %#v, want empty non-nil slice", got)
	}
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	store.Put(ctx, "k", "original")

	got, _ := store.Get(ctx, "k")
	got[0] = "mutated"

	again, _ := store.Get(ctx, "k")
	if again[0] != "original" {
		t.Errorf("store contents changed through returned slice: %v", again)
	}
}

func TestMemoryStore_Remove(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	store.Put(ctx, "k", "a")
	store.Put(ctx, "k", "b")

	if err := store.Remove(ctx, "k"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := store.Remove(ctx, "never-existed"); err != nil {
		t.Fatalf("Remove() on missing key error = %v", err)
	}

	got, _ := store.Get(ctx, "k")
	if len(got) != 0 {
		t.Errorf("Get() after Remove = %v, want empty", got)
	}
}

func TestMemoryStore_SnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	source := kv.NewMemoryStore()
	source.Put(ctx, "users", "alice")
	source.Put(ctx, "users", "bob")
	source.Put(ctx, "caws", "0")
	source.Put(ctx, "caw-0", "payload")

	snapshot, err := source.CreateSnapshot(ctx)
	if err != nil {
		t.Fatalf("CreateSnapshot() error = %v", err)
	}

	restored := kv.NewMemoryStore()
	restored.Put(ctx, "stale", "gone after load")
	if err := restored.LoadSnapshot(ctx, snapshot); err != nil {
		t.Fatalf("LoadSnapshot() error = %v", err)
	}

	for _, key := range []string{"users", "caws", "caw-0"} {
		want, _ := source.Get(ctx, key)
		got, _ := restored.Get(ctx, key)
		if !slices.Equal(got, want) {
			t.Errorf("Get(%q) = %v, want %v", key, got, want)
		}
	}

	if stale, _ := restored.Get(ctx, "stale"); len(stale) != 0 {
		t.Errorf("LoadSnapshot kept stale key: %v", stale)
	}
	if restored.Len() != 3 {
		t.Errorf("Len() = %d, want 3", restored.Len())
	}
}

func TestMemoryStore_SnapshotIsIsolated(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	store.Put(ctx, "k", "a")

	snapshot, _ := store.CreateSnapshot(ctx)
	store.Put(ctx, "k", "b")

	values, ok := snapshot.Lookup("k")
	if !ok || !slices.Equal(values, []string{"a"}) {
		t.Errorf("snapshot changed after later Put: %v", values)
	}
}

func TestMemoryStore_ConcurrentPut(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			store.Put(ctx, "k", fmt.Sprint(i))
		}(i)
	}
	wg.Wait()

	got, _ := store.Get(ctx, "k")
	if len(got) != 100 {
		t.Errorf("Get() returned %d values, want 100", len(got))
	}
}
