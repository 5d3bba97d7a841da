// Package core defines the key/value contract behind the storefront's durable
// local state (the cart and the selected store).
package core

import (
	"context"
	"errors"
	"time"
)

// Driver identifies a concrete storage backend implementation.
type Driver string

const (
	// DriverMemory keeps values in process memory (tests, throwaway sessions).
	DriverMemory Driver = "memory"
	// DriverFilesystem stores one file per key under a root directory.
	DriverFilesystem Driver = "fs"
	// DriverSQLite stores values in a single SQLite table (default).
	DriverSQLite Driver = "sqlite"
	// DriverPostgres stores values in a Postgres table.
	DriverPostgres Driver = "postgres"
	// DriverS3 stores one object per key in an S3 / MinIO compatible bucket.
	DriverS3 Driver = "s3"
)

// Info describes a stored value.
type Info struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size_bytes"`
	ETag         string    `json:"etag,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// Store is a string-keyed byte store with overwrite semantics. Put replaces
// any existing value; Get of a missing key returns ErrNotFound.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) (Info, error)
	Delete(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string) ([]Info, error)
	Driver() Driver
	Close() error
}

var (
	// ErrNotFound is returned by Get when the key has no value.
	ErrNotFound = errors.New("storage: key not found")
	// ErrInvalidKey is returned for empty keys or keys escaping the namespace.
	ErrInvalidKey = errors.New("storage: invalid key")
)
