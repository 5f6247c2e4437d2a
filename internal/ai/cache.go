package ai

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// defaultCacheTimeout bounds every cache I/O call so a wedged disk can
// never stall an analysis task; the caller treats timeouts as misses.
const defaultCacheTimeout = 5 * time.Second

// Cache is the durable response store. Entries are keyed by
// provider:model:fingerprint, so different models never share an entry.
// There is no expiry: explanations for a pattern rarely go stale compared
// to the cost of regenerating them, and the clean command gives the
// operator explicit control.
type Cache struct {
	db      *sql.DB
	timeout time.Duration
}

// DefaultCachePath returns the per-installation cache database location.
func DefaultCachePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".cache", "logwhy", "cache.db"), nil
}

// OpenCache opens (creating if needed) the cache database at path.
func OpenCache(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping cache db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate cache db: %w", err)
	}

	return &Cache{db: db, timeout: defaultCacheTimeout}, nil
}

func migrate(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS analysis_cache (
		cache_key   TEXT PRIMARY KEY,
		provider    TEXT NOT NULL,
		model       TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		result      TEXT NOT NULL,
		created_at  INTEGER NOT NULL
	);
	`
	_, err := db.Exec(schema)
	return err
}

func cacheKey(provider, model, fingerprint string) string {
	return provider + ":" + model + ":" + fingerprint
}

// Get looks up a cached analysis. A miss returns (nil, nil); callers treat
// any error as a miss as well, since the cache is an optimization and
// never a correctness dependency.
func (c *Cache) Get(ctx context.Context, provider, model, fingerprint string) (*AnalysisResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var serialized string
	err := c.db.QueryRowContext(ctx,
		`SELECT result FROM analysis_cache WHERE cache_key = ?`,
		cacheKey(provider, model, fingerprint),
	).Scan(&serialized)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}

	var result AnalysisResult
	if err := json.Unmarshal([]byte(serialized), &result); err != nil {
		return nil, fmt.Errorf("cache decode: %w", err)
	}
	result.Origin = OriginCached
	return &result, nil
}

// Set stores an analysis. Last write wins; two writers for the same key
// produce equivalent content.
func (c *Cache) Set(ctx context.Context, provider, model, fingerprint string, result *AnalysisResult) error {
	serialized, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, err = c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO analysis_cache
		 (cache_key, provider, model, fingerprint, result, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		cacheKey(provider, model, fingerprint), provider, model, fingerprint,
		string(serialized), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Clear removes every cached entry and returns how many were deleted.
func (c *Cache) Clear(ctx context.Context) (int64, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM analysis_cache`)
	if err != nil {
		return 0, fmt.Errorf("cache clear: %w", err)
	}
	return res.RowsAffected()
}

// ClearOlderThan removes entries created more than the given number of
// days ago.
func (c *Cache) ClearOlderThan(ctx context.Context, days int) (int64, error) {
	cutoff := time.Now().Unix() - int64(days)*86400
	res, err := c.db.ExecContext(ctx,
		`DELETE FROM analysis_cache WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cache clear: %w", err)
	}
	return res.RowsAffected()
}

// Count returns the number of cached entries.
func (c *Cache) Count(ctx context.Context) (int64, error) {
	var n int64
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM analysis_cache`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("cache count: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}
