// Package kv is the persistent key-value layer: an ordered multimap from a
// string key to the sequence of values appended under it. Backends share the
// Store contract; those that can export their full contents also implement
// Snapshotter so they can be persisted and restored.
package kv

import "context"

// Store is an append-only multimap. Each call is individually atomic; a
// sequence of calls is not, and concurrent callers may interleave between
// them.
type Store interface {
	// Put appends value to the sequence at key, creating it if absent.
	Put(ctx context.Context, key, value string) error
	// Get returns a copy of the sequence at key in insertion order. An absent
	// key yields an empty sequence, not an error.
	Get(ctx context.Context, key string) ([]string, error)
	// Remove deletes the whole sequence at key. Missing keys are ignored.
	Remove(ctx context.Context, key string) error
}

// Snapshotter exports and replaces a store's entire contents.
type Snapshotter interface {
	// CreateSnapshot returns a consistent point-in-time copy of every row.
	CreateSnapshot(ctx context.Context) (Snapshot, error)
	// LoadSnapshot atomically replaces all contents with the snapshot's rows.
	LoadSnapshot(ctx context.Context, snapshot Snapshot) error
}

// SnapshotStore is a Store that can also be snapshotted.
type SnapshotStore interface {
	Store
	Snapshotter
}

// Row is one key and its ordered values.
type Row struct {
	Key    string   `json:"key"`
	Values []string `json:"values"`
}

// Snapshot is the full contents of a store as an ordered list of rows.
type Snapshot []Row

// Lookup returns the values of key, or false if the snapshot has no such row.
func (s Snapshot) Lookup(key string) ([]string, bool) {
	for _, row := range s {
		if row.Key == key {
			return row.Values, true
		}
	}
	return nil, false
}
