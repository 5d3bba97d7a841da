package storage

import (
	"context"
	"fmt"

	"storefront/internal/infra/storage/fs"
	"storefront/internal/infra/storage/memory"
	"storefront/internal/infra/storage/postgres"
	"storefront/internal/infra/storage/s3"
	"storefront/internal/infra/storage/sqlite"
)

// S3Options configures the s3 driver.
type S3Options struct {
	Bucket          string
	Region          string
	Prefix          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PathStyle       bool
}

// Options selects and configures a backend. The zero value opens SQLite at
// the default path.
type Options struct {
	Driver      Driver
	FSRoot      string
	SQLitePath  string
	PostgresDSN string
	S3          S3Options
}

// Open constructs the backend named by opts.Driver.
func Open(ctx context.Context, opts Options) (Store, error) {
	driver := opts.Driver
	if driver == "" {
		driver = DriverSQLite
	}
	switch driver {
	case DriverSQLite:
		return sqlite.New(opts.SQLitePath)
	case DriverFilesystem:
		return fs.New(opts.FSRoot)
	case DriverMemory:
		return memory.New(), nil
	case DriverPostgres:
		return postgres.New(ctx, opts.PostgresDSN)
	case DriverS3:
		return s3.New(ctx, s3.Config{
			Bucket:          opts.S3.Bucket,
			Region:          opts.S3.Region,
			Prefix:          opts.S3.Prefix,
			Endpoint:        opts.S3.Endpoint,
			AccessKeyID:     opts.S3.AccessKeyID,
			SecretAccessKey: opts.S3.SecretAccessKey,
			PathStyle:       opts.S3.PathStyle,
		})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}

// NewMemory returns an in-memory store.
func NewMemory() Store { return memory.New() }

// NewS3Mock returns an S3 store backed by a fake transport, for tests in
// packages that may not import the infra layer.
func NewS3Mock() Store { return s3.NewMockForTests() }
