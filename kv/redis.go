package kv

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
)

const scanBatch = 256

// RedisStore keeps each row as a Redis list under prefix+key. RPUSH keeps
// insertion order and duplicates, matching the in-memory semantics.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to redisURL and verifies the connection.
func NewRedisStore(ctx context.Context, redisURL, prefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%w: parse redis url: %v", ErrBackend, err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: connect to redis: %v", ErrBackend, err)
	}

	return &RedisStore{client: client, prefix: prefix}, nil
}

func (s *RedisStore) key(key string) string {
	return s.prefix + key
}

func (s *RedisStore) Put(ctx context.Context, key, value string) error {
	if err := s.client.RPush(ctx, s.key(key), value).Err(); err != nil {
		return fmt.Errorf("%w: rpush %s: %v", ErrBackend, key, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]string, error) {
	values, err := s.client.LRange(ctx, s.key(key), 0, -1).Result()
	if err != nil {
		if err == redis.Nil {
			return []string{}, nil
		}
		return nil, fmt.Errorf("%w: lrange %s: %v", ErrBackend, key, err)
	}
	if values == nil {
		values = []string{}
	}
	return values, nil
}

func (s *RedisStore) Remove(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("%w: del %s: %v", ErrBackend, key, err)
	}
	return nil
}

// CreateSnapshot scans the prefix and reads every list in one pipeline. Redis
// gives no cross-key isolation for SCAN, so rows written during the scan may
// or may not be included.
func (s *RedisStore) CreateSnapshot(ctx context.Context) (Snapshot, error) {
	keys, err := s.scanKeys(ctx)
	if err != nil {
		return nil, err
	}

	cmds := make([]*redis.StringSliceCmd, len(keys))
	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, k := range keys {
			cmds[i] = pipe.LRange(ctx, k, 0, -1)
		}
		return nil
	})
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("%w: snapshot read: %v", ErrBackend, err)
	}

	snapshot := make(Snapshot, 0, len(keys))
	for i, k := range keys {
		values, err := cmds[i].Result()
		if err != nil && err != redis.Nil {
			return nil, fmt.Errorf("%w: snapshot read %s: %v", ErrBackend, k, err)
		}
		if len(values) == 0 {
			continue
		}
		snapshot = append(snapshot, Row{Key: strings.TrimPrefix(k, s.prefix), Values: values})
	}
	return snapshot, nil
}

// LoadSnapshot deletes every key under the prefix and writes the snapshot
// rows inside one MULTI/EXEC transaction.
func (s *RedisStore) LoadSnapshot(ctx context.Context, snapshot Snapshot) error {
	existing, err := s.scanKeys(ctx)
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(existing) > 0 {
			pipe.Del(ctx, existing...)
		}
		for _, row := range snapshot {
			if len(row.Values) == 0 {
				continue
			}
			values := make([]any, len(row.Values))
			for i, v := range row.Values {
				values[i] = v
			}
			pipe.RPush(ctx, s.key(row.Key), values...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: snapshot load: %v", ErrBackend, err)
	}
	return nil
}

func (s *RedisStore) scanKeys(ctx context.Context) ([]string, error) {
	var (
		keys   []string
		cursor uint64
	)
	for {
		batch, next, err := s.client.Scan(ctx, cursor, s.prefix+"*", scanBatch).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: scan: %v", ErrBackend, err)
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
