package kv

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS kv_values (
		seq   BIGSERIAL PRIMARY KEY,
		key   TEXT NOT NULL,
		value TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS kv_values_key_seq ON kv_values (key, seq)`,
}

// PostgresStore keeps one table row per appended value. The serial column
// preserves insertion order within a key.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to dsn and creates the table when missing.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: parse postgres dsn: %v", ErrBackend, err)
	}
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheStatement

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: connect to postgres: %v", ErrBackend, err)
	}

	for _, stmt := range postgresSchema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("%w: create schema: %v", ErrBackend, err)
		}
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Put(ctx context.Context, key, value string) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO kv_values (key, value) VALUES ($1, $2)`, key, value)
	if err != nil {
		return fmt.Errorf("%w: insert %s: %v", ErrBackend, key, err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT value FROM kv_values WHERE key = $1 ORDER BY seq`, key)
	if err != nil {
		return nil, fmt.Errorf("%w: select %s: %v", ErrBackend, key, err)
	}

	values, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("%w: select %s: %v", ErrBackend, key, err)
	}
	if values == nil {
		values = []string{}
	}
	return values, nil
}

func (s *PostgresStore) Remove(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM kv_values WHERE key = $1`, key); err != nil {
		return fmt.Errorf("%w: delete %s: %v", ErrBackend, key, err)
	}
	return nil
}

// CreateSnapshot reads the whole table in one REPEATABLE READ transaction.
func (s *PostgresStore) CreateSnapshot(ctx context.Context) (Snapshot, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("%w: begin snapshot: %v", ErrBackend, err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `SELECT key, value FROM kv_values ORDER BY key, seq`)
	if err != nil {
		return nil, fmt.Errorf("%w: snapshot read: %v", ErrBackend, err)
	}
	defer rows.Close()

	snapshot := Snapshot{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("%w: snapshot scan: %v", ErrBackend, err)
		}
		if n := len(snapshot); n > 0 && snapshot[n-1].Key == key {
			snapshot[n-1].Values = append(snapshot[n-1].Values, value)
			continue
		}
		snapshot = append(snapshot, Row{Key: key, Values: []string{value}})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: snapshot read: %v", ErrBackend, err)
	}

	return snapshot, tx.Commit(ctx)
}

// LoadSnapshot truncates the table and copies the snapshot rows in order
// within one transaction.
func (s *PostgresStore) LoadSnapshot(ctx context.Context, snapshot Snapshot) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin load: %v", ErrBackend, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `TRUNCATE kv_values RESTART IDENTITY`); err != nil {
		return fmt.Errorf("%w: truncate: %v", ErrBackend, err)
	}

	var records [][]any
	for _, row := range snapshot {
		for _, v := range row.Values {
			records = append(records, []any{row.Key, v})
		}
	}

	if len(records) > 0 {
		_, err := tx.CopyFrom(ctx, pgx.Identifier{"kv_values"}, []string{"key", "value"}, pgx.CopyFromRows(records))
		if err != nil {
			return fmt.Errorf("%w: copy rows: %v", ErrBackend, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit load: %v", ErrBackend, err)
	}
	return nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}
