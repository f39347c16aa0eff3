package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// VerdictCache persists the outcomes of secondary relevance fetches.
type VerdictCache struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// Open opens (or creates) the verdict cache at the given path, runs schema
// migrations and prunes entries older than the TTL.
func Open(path string, ttl time.Duration) (*VerdictCache, error) {
	db, err := openDatabase(path)
	if err != nil {
		return nil, err
	}
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating verdict cache: %w", err)
	}

	c := &VerdictCache{db: db, ttl: ttl, now: time.Now}
	if err := c.pruneExpired(); err != nil {
		slog.Warn("pruning expired verdicts failed", "error", err)
	}
	slog.Info("opened verdict cache", "path", path, "ttl", ttl)
	return c, nil
}

// Close closes the underlying database connection.
func (c *VerdictCache) Close() error {
	return c.db.Close()
}

// DB returns the underlying *sql.DB for advanced use cases.
func (c *VerdictCache) DB() *sql.DB {
	return c.db
}

// Lookup returns the cached verdict for the identity. ok is false when no
// entry exists, the entry is older than the TTL, or its timestamp cannot be
// parsed.
func (c *VerdictCache) Lookup(id string) (relevant bool, ok bool, err error) {
	var (
		rel       int
		checkedAt string
	)
	row := c.db.QueryRow("SELECT relevant, checked_at FROM verdicts WHERE id = ?", id)
	if err := row.Scan(&rel, &checkedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, false, nil
		}
		return false, false, fmt.Errorf("querying verdict: %w", err)
	}

	t, err := time.Parse(time.RFC3339, checkedAt)
	if err != nil || c.now().Sub(t) > c.ttl {
		return false, false, nil
	}
	return rel != 0, true, nil
}

// Store records the verdict for the identity, replacing any previous entry.
func (c *VerdictCache) Store(id string, relevant bool) error {
	rel := 0
	if relevant {
		rel = 1
	}
	_, err := c.db.Exec(`
		INSERT INTO verdicts (id, relevant, checked_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			relevant = excluded.relevant,
			checked_at = excluded.checked_at`,
		id, rel, c.now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("storing verdict: %w", err)
	}
	return nil
}

// pruneExpired deletes entries older than the TTL.
func (c *VerdictCache) pruneExpired() error {
	cutoff := c.now().UTC().Add(-c.ttl).Format(time.RFC3339)
	res, err := c.db.Exec("DELETE FROM verdicts WHERE checked_at < ?", cutoff)
	if err != nil {
		return fmt.Errorf("deleting expired verdicts: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		slog.Debug("pruned expired verdicts", "count", n)
	}
	return nil
}
