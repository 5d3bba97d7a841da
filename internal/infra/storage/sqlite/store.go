// Package sqlite implements the default durable storage Store on a single
// SQLite table using the pure Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"storefront/internal/storage/core"
)

const schema = `CREATE TABLE IF NOT EXISTS kv (
	key TEXT PRIMARY KEY,
	value BLOB NOT NULL,
	etag TEXT NOT NULL,
	updated_at INTEGER NOT NULL
)`

// Store persists values in the kv table of a SQLite database file.
type Store struct {
	db   *sql.DB
	path string
}

// New opens (creating if needed) the database at path and ensures the schema.
func New(path string) (*Store, error) {
	if path == "" {
		path = "storefront.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection serialises writers and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create kv table: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Driver returns the storage driver identifier.
func (s *Store) Driver() core.Driver { return core.DriverSQLite }

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

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
	_, err = s.db.ExecContext(ctx, `INSERT INTO kv (key, value, etag, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, etag = excluded.etag, updated_at = excluded.updated_at`,
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
	err = s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, k).Scan(&value)
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
	res, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, k)
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", k, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// List returns the entries whose key starts with prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]core.Info, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, length(value), etag, updated_at FROM kv ORDER BY key`)
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
		if !strings.HasPrefix(info.Key, prefix) {
			continue
		}
		info.LastModified = time.Unix(0, updated).UTC()
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }
