package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/specvital/bake/pkg/domain"
)

// SchemaVersion is bumped whenever the stored class shape changes.
// Rows written by another version are treated as misses.
const SchemaVersion = 1

const schemaSQL = `
CREATE TABLE IF NOT EXISTS parsed_files (
	path     TEXT PRIMARY KEY,
	size     INTEGER NOT NULL,
	mod_time INTEGER NOT NULL,
	version  INTEGER NOT NULL,
	classes  TEXT NOT NULL,
	parsed_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

// SQLite is a cache persisted in a SQLite database file.
type SQLite struct {
	db *sql.DB
}

// Open opens or creates the cache database at path.
func Open(path string) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	// Parse workers store concurrently; a single connection serializes writes.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close closes the database.
func (c *SQLite) Close() error {
	return c.db.Close()
}

// Load implements introspect.Cache.
func (c *SQLite) Load(path string, size int64, modTime time.Time) ([]domain.ClassInfo, bool) {
	var data string
	err := c.db.QueryRow(
		"SELECT classes FROM parsed_files WHERE path = ? AND size = ? AND mod_time = ? AND version = ?",
		path, size, modTime.UnixNano(), SchemaVersion,
	).Scan(&data)
	if err != nil {
		return nil, false
	}

	var classes []domain.ClassInfo
	if err := json.Unmarshal([]byte(data), &classes); err != nil {
		return nil, false
	}
	return classes, true
}

// Store implements introspect.Cache.
func (c *SQLite) Store(path string, size int64, modTime time.Time, classes []domain.ClassInfo) error {
	if classes == nil {
		classes = []domain.ClassInfo{}
	}
	data, err := json.Marshal(classes)
	if err != nil {
		return fmt.Errorf("failed to encode classes: %w", err)
	}

	_, err = c.db.Exec(
		`INSERT INTO parsed_files (path, size, mod_time, version, classes, parsed_at)
		 VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(path) DO UPDATE SET
			size = excluded.size,
			mod_time = excluded.mod_time,
			version = excluded.version,
			classes = excluded.classes,
			parsed_at = excluded.parsed_at`,
		path, size, modTime.UnixNano(), SchemaVersion, string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to store %s: %w", path, err)
	}
	return nil
}

// Count returns the number of cached files.
func (c *SQLite) Count(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM parsed_files").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count cache entries: %w", err)
	}
	return n, nil
}

// Clear removes every cached file.
func (c *SQLite) Clear(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, "DELETE FROM parsed_files"); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}
