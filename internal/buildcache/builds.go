package buildcache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// BuildRecord is one finished build as stored in the cache.
type BuildRecord struct {
	BuildID   string
	Signature string
	Outcome   string
	Started   time.Time
	Finished  time.Time
	Report    []byte
}

// RecordBuild appends a finished build to the cache.
func (c *Cache) RecordBuild(ctx context.Context, rec BuildRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.ExecContext(ctx,
		"INSERT INTO builds (build_id, signature, outcome, started, finished, report) VALUES (?, ?, ?, ?, ?, ?)",
		rec.BuildID, rec.Signature, rec.Outcome, rec.Started.Unix(), rec.Finished.Unix(), rec.Report,
	)
	if err != nil {
		return fmt.Errorf("insert build: %w", err)
	}
	return nil
}

// LastBuild returns the most recently recorded build, or nil when the cache
// holds none.
func (c *Cache) LastBuild(ctx context.Context) (*BuildRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	row := c.db.QueryRowContext(ctx,
		"SELECT build_id, signature, outcome, started, finished, report FROM builds ORDER BY id DESC LIMIT 1",
	)

	var rec BuildRecord
	var started, finished int64
	err := row.Scan(&rec.BuildID, &rec.Signature, &rec.Outcome, &started, &finished, &rec.Report)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan build: %w", err)
	}
	rec.Started = time.Unix(started, 0)
	rec.Finished = time.Unix(finished, 0)
	return &rec, nil
}

// Builds returns the newest builds, most recent first, up to limit.
func (c *Cache) Builds(ctx context.Context, limit int) ([]BuildRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rows, err := c.db.QueryContext(ctx,
		"SELECT build_id, signature, outcome, started, finished, report FROM builds ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer rows.Close()

	var recs []BuildRecord
	for rows.Next() {
		var rec BuildRecord
		var started, finished int64
		if err := rows.Scan(&rec.BuildID, &rec.Signature, &rec.Outcome, &started, &finished, &rec.Report); err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		rec.Started = time.Unix(started, 0)
		rec.Finished = time.Unix(finished, 0)
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return recs, nil
}

// PruneBuilds deletes all but the newest keep builds and reports how many rows
// were removed.
func (c *Cache) PruneBuilds(ctx context.Context, keep int) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	res, err := c.db.ExecContext(ctx,
		"DELETE FROM builds WHERE id NOT IN (SELECT id FROM builds ORDER BY id DESC LIMIT ?)",
		keep,
	)
	if err != nil {
		return 0, fmt.Errorf("prune builds: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
