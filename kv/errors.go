package kv

import "errors"

// Sentinel errors for store operations.
var (
	ErrSnapshotCorrupt = errors.New("snapshot corrupt")
	ErrSnapshotLoad    = errors.New("snapshot load failed")
	ErrSnapshotSave    = errors.New("snapshot save failed")
	ErrUnknownBackend  = errors.New("unknown store backend")
	ErrBackend         = errors.New("store backend failure")
)
