package storage

import (
	"context"
	"fmt"

	"weather-dashboard/config"
)

// BlobStore is a key-value store of opaque strings.
type BlobStore interface {
	// ReadBlob reports found=false when nothing was ever written under key.
	ReadBlob(ctx context.Context, key string) (value string, found bool, err error)
	WriteBlob(ctx context.Context, key, value string) error
	Close() error
}

// Open builds the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig) (BlobStore, error) {
	switch cfg.Driver {
	case "memory":
		return NewMemoryStore(), nil
	case "", "file":
		return NewFileStore(cfg.Path)
	case "sqlite":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = cfg.Path
		}
		return NewSQLStore(ctx, DialectSQLite, dsn)
	case "postgres":
		return NewSQLStore(ctx, DialectPostgres, cfg.DSN)
	case "mysql":
		return NewSQLStore(ctx, DialectMySQL, cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
