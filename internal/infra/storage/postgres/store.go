// Package postgres implements a storage Store on a Postgres table, for
// deployments that share cart state across hosts.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"storefront/internal/storage/core"
)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/storefront?sslmode=disable"
)

const schema = `CREATE TABLE IF NOT EXISTS kv (
	key TEXT PRIMARY KEY,
	value BYTEA NOT NULL,
	etag TEXT NOT NULL,
	updated_at BIGINT NOT NULL
)`

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store persists values in the kv table.
type Store struct {
	db *sql.DB
}

// New opens a Postgres-backed store using dsn (falls back to defaultDSN),
// pings it and ensures the kv table exists.
func New(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure kv table: %w", err)
	}
	return &Store{db: db}, nil
}

// Driver returns the storage driver identifier.
func (s *Store) Driver() core.Driver { return core.DriverPostgres }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Put upserts value under key.
func (s *Store) Put(ctx context.Context, key string, value []byte) (core.Info, error) {
	k, err := core.CleanKey(key)
	if err != nil {
		return core.Info{}, err
	}
	now := time.Now().UTC()
	etag := core.ETag(value)
	_, err = s.db.ExecContext(ctx, `INSERT INTO kv (key, value, etag, updated_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, etag = EXCLUDED.etag, updated_at = EXCLUDED.updated_at`,
		k, value, etag, now.UnixNano())
	if err != nil {
		return core.Info{}, fmt.Errorf("upsert %s: %w", k, err)
	}
	return core.Info{Key: k, Size: int64(len(value)), ETag: etag, LastModified: now}, nil
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	k, err := core.CleanKey(key)
	if err != nil {
		return nil, err
	}
	var value []byte
	err = s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = $1`, k).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", k, err)
	}
	return value, nil
}

// Delete removes key returning true if a row was deleted.
func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	k, err := core.CleanKey(key)
	if err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = $1`, k)
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", k, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// List returns the entries whose key starts with prefix, ordered by key.
func (s *Store) List(ctx context.Context, prefix string) ([]core.Info, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, octet_length(value), etag, updated_at FROM kv ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("select kv: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var infos []core.Info
	for rows.Next() {
		var (
			info    core.Info
			updated int64
		)
		if err := rows.Scan(&info.Key, &info.Size, &info.ETag, &updated); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		if strings.HasPrefix(info.Key, prefix) {
			info.LastModified = time.Unix(0, updated).UTC()
			infos = append(infos, info)
		}
	}
	return infos, rows.Err()
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
