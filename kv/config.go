package kv

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/tailored-agentic-units/caw/observability"
)

// Backend names accepted by Config.Backend.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendRemote   = "remote"
)

const (
	DefaultAddress   = "localhost:50001"
	DefaultKeyPrefix = "caw:"
)

// Config holds store initialization parameters.
type Config struct {
	Backend      string `json:"backend,omitempty" yaml:"backend,omitempty"`
	Address      string `json:"address,omitempty" yaml:"address,omitempty"`             // KeyValueService address: listen side for the kv server, dial side for the remote backend.
	SnapshotPath string `json:"snapshot_path,omitempty" yaml:"snapshot_path,omitempty"` // Empty keeps state purely in memory.
	RedisURL     string `json:"redis_url,omitempty" yaml:"redis_url,omitempty"`
	PostgresDSN  string `json:"postgres_dsn,omitempty" yaml:"postgres_dsn,omitempty"`
	KeyPrefix    string `json:"key_prefix,omitempty" yaml:"key_prefix,omitempty"` // Redis key namespace.
}

// DefaultConfig returns an in-memory, non-persistent configuration.
func DefaultConfig() Config {
	return Config{
		Backend:   BackendMemory,
		Address:   DefaultAddress,
		KeyPrefix: DefaultKeyPrefix,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Backend != "" {
		c.Backend = source.Backend
	}
	if source.Address != "" {
		c.Address = source.Address
	}
	if source.SnapshotPath != "" {
		c.SnapshotPath = source.SnapshotPath
	}
	if source.RedisURL != "" {
		c.RedisURL = source.RedisURL
	}
	if source.PostgresDSN != "" {
		c.PostgresDSN = source.PostgresDSN
	}
	if source.KeyPrefix != "" {
		c.KeyPrefix = source.KeyPrefix
	}
}

// ApplyEnv overlays CAW_KV_BACKEND, CAW_KV_ADDRESS, CAW_SNAPSHOT, REDIS_URL
// and DATABASE_URL when set.
func (c *Config) ApplyEnv() {
	c.Merge(&Config{
		Backend:      os.Getenv("CAW_KV_BACKEND"),
		Address:      os.Getenv("CAW_KV_ADDRESS"),
		SnapshotPath: os.Getenv("CAW_SNAPSHOT"),
		RedisURL:     os.Getenv("REDIS_URL"),
		PostgresDSN:  os.Getenv("DATABASE_URL"),
	})
}

// NewStore builds the configured backend. When SnapshotPath is set and the
// backend can snapshot, the store is restored from the file and wrapped in a
// PersistentStore. The returned close function releases backend connections
// and is never nil.
func NewStore(ctx context.Context, cfg *Config, observer observability.Observer, opts ...PersistentOption) (Store, func(), error) {
	noop := func() {}

	var (
		base    Store
		closeFn = noop
	)

	switch cfg.Backend {
	case "", BackendMemory:
		base = NewMemoryStore()
	case BackendRedis:
		if cfg.RedisURL == "" {
			return nil, noop, fmt.Errorf("%w: redis backend requires redis_url", ErrBackend)
		}
		rs, err := NewRedisStore(ctx, cfg.RedisURL, cfg.KeyPrefix)
		if err != nil {
			return nil, noop, err
		}
		base, closeFn = rs, func() { rs.Close() }
	case BackendPostgres:
		if cfg.PostgresDSN == "" {
			return nil, noop, fmt.Errorf("%w: postgres backend requires postgres_dsn", ErrBackend)
		}
		ps, err := NewPostgresStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, noop, err
		}
		base, closeFn = ps, ps.Close
	case BackendRemote:
		base = NewClient(http.DefaultClient, cfg.Address)
	default:
		return nil, noop, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}

	if cfg.SnapshotPath == "" {
		return base, closeFn, nil
	}

	snapshotter, ok := base.(SnapshotStore)
	if !ok {
		closeFn()
		return nil, noop, fmt.Errorf("%w: backend %q cannot be snapshotted", ErrBackend, cfg.Backend)
	}

	if observer != nil {
		opts = append([]PersistentOption{WithPersistObserver(observer)}, opts...)
	}
	persistent, err := NewPersistentStore(ctx, snapshotter, NewSnapshotFile(cfg.SnapshotPath), opts...)
	if err != nil {
		closeFn()
		return nil, noop, err
	}
	return persistent, closeFn, nil
}
