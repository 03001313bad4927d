// Package buildcache persists build signatures and converted document bodies
// between runs so unchanged inputs can skip work. The cache lives in the state
// directory, never in the published output, and losing it only costs a full
// rebuild.
package buildcache

import (
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// Cache is a SQLite-backed store for build records and conversion results.
type Cache struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (or creates) the cache database at dbPath.
// Use ":memory:" for an in-memory database, or a file path for persistent storage.
func Open(dbPath string) (*Cache, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	c := &Cache{db: db}
	if err := c.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return c, nil
}

func (c *Cache) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL,
		signature TEXT NOT NULL,
		outcome TEXT NOT NULL,
		started INTEGER NOT NULL,
		finished INTEGER NOT NULL,
		report BLOB
	);
	CREATE INDEX IF NOT EXISTS idx_builds_signature ON builds(signature);
	CREATE TABLE IF NOT EXISTS conversions (
		key TEXT PRIMARY KEY,
		engine TEXT NOT NULL,
		format TEXT NOT NULL,
		html BLOB NOT NULL,
		created INTEGER NOT NULL,
		last_used INTEGER NOT NULL
	);
	`
	_, err := c.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.db.Close()
}
