package kv

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tailored-agentic-units/caw/observability"
)

// Persistence event types.
const (
	EventSnapshotRestore observability.EventType = "kv.snapshot.restore"
	EventSnapshotWrite   observability.EventType = "kv.snapshot.write"
	EventSnapshotError   observability.EventType = "kv.snapshot.error"
)

// PersistentStore writes a full snapshot of the wrapped store to disk after
// every successful Put or Remove. The write happens synchronously on the
// mutating call. Durability is "last successful snapshot write": a failed
// write is reported but does not fail the mutation, which has already been
// applied in memory.
type PersistentStore struct {
	store    SnapshotStore
	file     *SnapshotFile
	logger   *slog.Logger
	observer observability.Observer

	// serializes snapshot+write so an older snapshot can never land on disk
	// after a newer one.
	writeMu sync.Mutex
}

// PersistentOption configures a PersistentStore.
type PersistentOption func(*PersistentStore)

func WithPersistLogger(logger *slog.Logger) PersistentOption {
	return func(p *PersistentStore) { p.logger = logger }
}

func WithPersistObserver(observer observability.Observer) PersistentOption {
	return func(p *PersistentStore) { p.observer = observer }
}

// NewPersistentStore restores store from file and returns the wrapper.
// Restore replaces any contents store already had.
func NewPersistentStore(ctx context.Context, store SnapshotStore, file *SnapshotFile, opts ...PersistentOption) (*PersistentStore, error) {
	p := &PersistentStore{
		store:    store,
		file:     file,
		logger:   slog.Default(),
		observer: observability.NoOpObserver{},
	}
	for _, opt := range opts {
		opt(p)
	}

	snapshot, err := file.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := store.LoadSnapshot(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("restore snapshot: %w", err)
	}

	p.observer.OnEvent(ctx, observability.NewEvent(
		EventSnapshotRestore,
		observability.LevelInfo,
		"kv.PersistentStore",
		map[string]any{"path": file.Path(), "rows": len(snapshot)},
	))

	return p, nil
}

func (p *PersistentStore) Put(ctx context.Context, key, value string) error {
	if err := p.store.Put(ctx, key, value); err != nil {
		return err
	}
	p.persist(ctx)
	return nil
}

func (p *PersistentStore) Get(ctx context.Context, key string) ([]string, error) {
	return p.store.Get(ctx, key)
}

func (p *PersistentStore) Remove(ctx context.Context, key string) error {
	if err := p.store.Remove(ctx, key); err != nil {
		return err
	}
	p.persist(ctx)
	return nil
}

func (p *PersistentStore) CreateSnapshot(ctx context.Context) (Snapshot, error) {
	return p.store.CreateSnapshot(ctx)
}

func (p *PersistentStore) LoadSnapshot(ctx context.Context, snapshot Snapshot) error {
	if err := p.store.LoadSnapshot(ctx, snapshot); err != nil {
		return err
	}
	p.persist(ctx)
	return nil
}

// Flush writes the current contents to disk and returns any failure.
func (p *PersistentStore) Flush(ctx context.Context) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	snapshot, err := p.store.CreateSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSnapshotSave, err)
	}
	if err := p.file.Save(ctx, snapshot); err != nil {
		return err
	}

	p.observer.OnEvent(ctx, observability.NewEvent(
		EventSnapshotWrite,
		observability.LevelVerbose,
		"kv.PersistentStore",
		map[string]any{"path": p.file.Path(), "rows": len(snapshot)},
	))
	return nil
}

func (p *PersistentStore) persist(ctx context.Context) {
	if err := p.Flush(ctx); err != nil {
		p.logger.WarnContext(
			ctx,
			"snapshot write failed",
			slog.String("path", p.file.Path()),
			slog.String("error", err.Error()),
		)
		p.observer.OnEvent(ctx, observability.NewEvent(
			EventSnapshotError,
			observability.LevelWarning,
			"kv.PersistentStore",
			map[string]any{"path": p.file.Path(), "error": err.Error()},
		))
	}
}
