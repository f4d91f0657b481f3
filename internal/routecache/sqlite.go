package routecache

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "routecache: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "routecache: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const routesMigration = `
CREATE TABLE IF NOT EXISTS routes (
	key        TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	fetched_at DATETIME NOT NULL,
	expires_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_routes_expires_at ON routes(expires_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, routesMigration)
	return eris.Wrap(err, "routecache: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Get(ctx context.Context, key Key) (Entry, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT payload FROM routes WHERE key = ? AND expires_at > ?`,
		key.String(), time.Now().UTC(),
	)

	var payload string
	err := row.Scan(&payload)
	if err == sql.ErrNoRows {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, eris.Wrap(err, "routecache: get")
	}

	var e Entry
	if err := json.Unmarshal([]byte(payload), &e); err != nil || !e.valid() {
		// Corrupt entry: drop it and treat as a miss.
		zap.L().Warn("deleting corrupt route cache entry",
			zap.String("key", key.String()),
			zap.Error(err))
		if derr := s.Delete(ctx, key); derr != nil {
			return Entry{}, false, derr
		}
		return Entry{}, false, nil
	}
	return e, true, nil
}

func (s *SQLiteStore) Put(ctx context.Context, key Key, entry Entry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return eris.Wrap(err, "routecache: marshal entry")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO routes (key, payload, fetched_at, expires_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload,
		     fetched_at = excluded.fetched_at, expires_at = excluded.expires_at`,
		key.String(), string(payload), entry.FetchedAt, entry.ExpiresAt,
	)
	return eris.Wrap(err, "routecache: put")
}

func (s *SQLiteStore) Delete(ctx context.Context, key Key) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM routes WHERE key = ?`, key.String())
	return eris.Wrap(err, "routecache: delete")
}

func (s *SQLiteStore) Prune(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM routes WHERE expires_at <= ?`, time.Now().UTC())
	if err != nil {
		return 0, eris.Wrap(err, "routecache: prune")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "routecache: rows affected")
}

func (s *SQLiteStore) Clear(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM routes`)
	if err != nil {
		return 0, eris.Wrap(err, "routecache: clear")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "routecache: rows affected")
}

func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	var oldest, newest sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(expires_at <= ?), 0),
		        MIN(fetched_at), MAX(fetched_at)
		 FROM routes`,
		time.Now().UTC(),
	).Scan(&st.Entries, &st.Expired, &oldest, &newest)
	if err != nil {
		return Stats{}, eris.Wrap(err, "routecache: stats")
	}
	if oldest.Valid {
		st.Oldest = oldest.Time
	}
	if newest.Valid {
		st.Newest = newest.Time
	}
	return st, nil
}
