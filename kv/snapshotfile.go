package kv

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// SnapshotFile reads and writes one encoded snapshot on disk.
type SnapshotFile struct {
	path string
}

// NewSnapshotFile binds a snapshot to path. The file need not exist yet.
func NewSnapshotFile(path string) *SnapshotFile {
	return &SnapshotFile{path: path}
}

func (f *SnapshotFile) Path() string {
	return f.path
}

// Load reads the snapshot. A missing file is an empty snapshot so first
// start needs no bootstrap step.
func (f *SnapshotFile) Load(_ context.Context) (Snapshot, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Snapshot{}, nil
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrSnapshotLoad, f.path, err)
	}

	snapshot, err := UnmarshalSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSnapshotLoad, f.path, err)
	}
	return snapshot, nil
}

// Save rewrites the file in full. The bytes go to a temp file in the same
// directory first and are renamed into place, so a crash leaves either the
// previous snapshot or the new one.
func (f *SnapshotFile) Save(_ context.Context, snapshot Snapshot) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSnapshotSave, f.path, err)
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSnapshotSave, f.path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(MarshalSnapshot(snapshot)); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %v", ErrSnapshotSave, f.path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %v", ErrSnapshotSave, f.path, err)
	}

	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %v", ErrSnapshotSave, f.path, err)
	}
	return nil
}
