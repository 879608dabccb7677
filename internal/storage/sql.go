package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
)

type dialectQueries struct {
	driver string
	schema string
	read   string
	upsert string
}

var queries = map[Dialect]dialectQueries{
	DialectSQLite: {
		driver: "sqlite",
		schema: `CREATE TABLE IF NOT EXISTS blobs (
			blob_key   TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		read: `SELECT value FROM blobs WHERE blob_key = ?`,
		upsert: `INSERT INTO blobs(blob_key, value, updated_at) VALUES(?, ?, ?)
			ON CONFLICT(blob_key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
	},
	DialectPostgres: {
		driver: "pgx",
		schema: `CREATE TABLE IF NOT EXISTS blobs (
			blob_key   TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		read: `SELECT value FROM blobs WHERE blob_key = $1`,
		upsert: `INSERT INTO blobs(blob_key, value, updated_at) VALUES($1, $2, $3)
			ON CONFLICT(blob_key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
	},
	DialectMySQL: {
		driver: "mysql",
		schema: `CREATE TABLE IF NOT EXISTS blobs (
			blob_key   VARCHAR(255) PRIMARY KEY,
			value      MEDIUMTEXT NOT NULL,
			updated_at VARCHAR(64) NOT NULL
		)`,
		read: `SELECT value FROM blobs WHERE blob_key = ?`,
		upsert: `INSERT INTO blobs(blob_key, value, updated_at) VALUES(?, ?, ?)
			ON DUPLICATE KEY UPDATE value = VALUES(value), updated_at = VALUES(updated_at)`,
	},
}

// SQLStore keeps blobs in a single table of a SQLite, PostgreSQL or MySQL
// database.
type SQLStore struct {
	db *sql.DB
	q  dialectQueries
}

func NewSQLStore(ctx context.Context, dialect Dialect, dsn string) (*SQLStore, error) {
	q, ok := queries[dialect]
	if !ok {
		return nil, fmt.Errorf("unsupported sql dialect %q", dialect)
	}
	if dsn == "" {
		return nil, fmt.Errorf("%s dsn cannot be empty", dialect)
	}

	db, err := sql.Open(q.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		// a single connection serializes writers and keeps ":memory:" databases alive
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", dialect, err)
	}

	if _, err := db.ExecContext(ctx, q.schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create blobs table: %w", err)
	}

	return &SQLStore{db: db, q: q}, nil
}

func (s *SQLStore) ReadBlob(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, s.q.read, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read blob %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLStore) WriteBlob(ctx context.Context, key, value string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := s.db.ExecContext(ctx, s.q.upsert, key, value, now); err != nil {
		return fmt.Errorf("failed to write blob %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
