// Package storage re-exports the core key/value abstractions and selects a
// backend implementation. Only this package imports internal/infra/storage.
package storage

import "storefront/internal/storage/core"

type (
	// Driver identifies a storage backend driver.
	Driver = core.Driver
	// Info describes a stored value.
	Info = core.Info
	// Store is the interface for storage backends.
	Store = core.Store
)

const (
	DriverMemory     = core.DriverMemory
	DriverFilesystem = core.DriverFilesystem
	DriverSQLite     = core.DriverSQLite
	DriverPostgres   = core.DriverPostgres
	DriverS3         = core.DriverS3
)

var (
	// ErrNotFound is returned by Get when the key has no value.
	ErrNotFound = core.ErrNotFound
	// ErrInvalidKey is returned for malformed keys.
	ErrInvalidKey = core.ErrInvalidKey
)
