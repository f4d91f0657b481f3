package geocode

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// cacheKey returns SHA-256 hex of the normalized address.
func cacheKey(address string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(address), " "))
	h := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", h)
}

// CachedClient wraps a Client with a SQLite-backed cache. Matches and
// non-matches are both cached, each with the configured TTL.
type CachedClient struct {
	inner Client
	db    *sql.DB
	ttl   time.Duration
}

// NewCachedClient opens (or creates) the cache database at dsn and wraps
// inner with it.
func NewCachedClient(inner Client, dsn string, ttl time.Duration) (*CachedClient, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: open cache")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "geocode: exec %s", pragma)
		}
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS geocode_cache (
			address_hash TEXT PRIMARY KEY,
			result       TEXT NOT NULL,
			cached_at    DATETIME NOT NULL
		)`); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "geocode: migrate cache")
	}
	return &CachedClient{inner: inner, db: db, ttl: ttl}, nil
}

func (c *CachedClient) Close() error {
	return c.db.Close()
}

// Geocode implements Client, consulting the cache first.
func (c *CachedClient) Geocode(ctx context.Context, address string) (*Result, error) {
	key := cacheKey(address)

	if cached := c.checkCache(ctx, key); cached != nil {
		return cached, nil
	}

	result, err := c.inner.Geocode(ctx, address)
	if err != nil {
		return nil, err
	}
	if err := c.storeCache(ctx, key, result); err != nil {
		zap.L().Warn("geocode: cache write failed", zap.Error(err))
	}
	return result, nil
}

// checkCache returns the cached result for key, or nil on miss, expiry, or
// corruption. A corrupt row is deleted so the next lookup refetches.
func (c *CachedClient) checkCache(ctx context.Context, key string) *Result {
	row := c.db.QueryRowContext(ctx,
		`SELECT result FROM geocode_cache WHERE address_hash = ? AND cached_at > ?`,
		key, time.Now().UTC().Add(-c.ttl),
	)

	var payload string
	if err := row.Scan(&payload); err != nil {
		return nil
	}

	var r Result
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		zap.L().Warn("geocode: deleting corrupt cache entry", zap.String("key", key[:12]), zap.Error(err))
		_, _ = c.db.ExecContext(ctx, `DELETE FROM geocode_cache WHERE address_hash = ?`, key)
		return nil
	}

	zap.L().Debug("geocode cache hit", zap.String("key", key[:12]), zap.Bool("matched", r.Matched))
	return &r
}

func (c *CachedClient) storeCache(ctx context.Context, key string, result *Result) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "geocode: marshal result")
	}
	_, err = c.db.ExecContext(ctx, `
		INSERT INTO geocode_cache (address_hash, result, cached_at)
		VALUES (?, ?, ?)
		ON CONFLICT(address_hash) DO UPDATE SET
			result = excluded.result,
			cached_at = excluded.cached_at`,
		key, string(payload), time.Now().UTC(),
	)
	return eris.Wrap(err, "geocode: store cache")
}
