package buildcache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// ConversionKey derives the cache key for one document conversion. The key
// covers the engine, the source format, any extra converter arguments and the
// source bytes, so any change to one of them misses the cache.
func ConversionKey(engine, format string, args []string, source []byte) string {
	h := sha256.New()
	h.Write([]byte(engine))
	h.Write([]byte{0})
	h.Write([]byte(format))
	h.Write([]byte{0})
	for _, a := range args {
		h.Write([]byte(a))
		h.Write([]byte{0})
	}
	h.Write(source)
	return hex.EncodeToString(h.Sum(nil))
}

// Conversion looks up a cached conversion result and refreshes its last_used
// stamp on a hit. The second return reports whether the key was present.
func (c *Cache) Conversion(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	row := c.db.QueryRowContext(ctx, "SELECT html FROM conversions WHERE key = ?", key)
	var html []byte
	err := row.Scan(&html)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("scan conversion: %w", err)
	}

	if _, err := c.db.ExecContext(ctx,
		"UPDATE conversions SET last_used = ? WHERE key = ?", time.Now().Unix(), key,
	); err != nil {
		return nil, false, fmt.Errorf("touch conversion: %w", err)
	}
	return html, true, nil
}

// StoreConversion saves one conversion result, replacing any previous entry
// under the same key.
func (c *Cache) StoreConversion(ctx context.Context, key, engine, format string, html []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().Unix()
	_, err := c.db.ExecContext(ctx,
		"INSERT INTO conversions (key, engine, format, html, created, last_used) VALUES (?, ?, ?, ?, ?, ?) ON CONFLICT(key) DO UPDATE SET html = excluded.html, last_used = excluded.last_used",
		key, engine, format, html, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert conversion: %w", err)
	}
	return nil
}

// PruneConversions deletes entries not used within maxAge and reports how many
// rows were removed.
func (c *Cache) PruneConversions(ctx context.Context, maxAge time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := time.Now().Add(-maxAge).Unix()
	res, err := c.db.ExecContext(ctx, "DELETE FROM conversions WHERE last_used < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune conversions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
