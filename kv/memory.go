package kv

import (
	"context"
	"slices"
	"sort"
	"sync"
)

// MemoryStore keeps every row in process memory. One mutex guards all five
// operations. It never returns an error.
type MemoryStore struct {
	rows map[string][]string
	mu   sync.Mutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string][]string)}
}

// Put appends value under key.
func (s *MemoryStore) Put(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rows[key] = append(s.rows[key], value)
	return nil
}

// Get returns a copy of the values under key.
func (s *MemoryStore) Get(_ context.Context, key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, ok := s.rows[key]
	if !ok {
		return []string{}, nil
	}
	return slices.Clone(values), nil
}

// Remove drops key and all its values.
func (s *MemoryStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.rows, key)
	return nil
}

// CreateSnapshot returns rows sorted by key so repeated snapshots of the same
// contents encode to identical bytes.
func (s *MemoryStore) CreateSnapshot(_ context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make(Snapshot, 0, len(s.rows))
	for key, values := range s.rows {
		snapshot = append(snapshot, Row{Key: key, Values: slices.Clone(values)})
	}
	sort.Slice(snapshot, func(i, j int) bool {
		return snapshot[i].Key < snapshot[j].Key
	})
	return snapshot, nil
}

// LoadSnapshot replaces every row. Duplicate keys in snapshot are
// concatenated in order.
func (s *MemoryStore) LoadSnapshot(_ context.Context, snapshot Snapshot) error {
	rows := make(map[string][]string, len(snapshot))
	for _, row := range snapshot {
		rows[row.Key] = append(rows[row.Key], row.Values...)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.rows = rows
	return nil
}

// Len reports the number of keys currently held.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}
