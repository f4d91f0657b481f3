package routecache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by cache-only lookups when no usable entry exists.
var ErrCacheMiss = errors.New("routecache: miss")

// Entry is a cached route. Entries are immutable once stored: a stale or
// corrupt entry is deleted and replaced, never edited.
type Entry struct {
	DurationMinutes float64   `json:"duration_minutes"`
	DistanceMiles   float64   `json:"distance_miles"`
	Mode            string    `json:"mode"`
	Source          string    `json:"source"`
	FetchedAt       time.Time `json:"fetched_at"`
	ExpiresAt       time.Time `json:"expires_at"`
}

// valid is the integrity check applied when reading an entry back. Entries
// that fail it are treated as corrupt.
func (e Entry) valid() bool {
	return e.DurationMinutes >= 0 &&
		e.DistanceMiles >= 0 &&
		e.Mode != "" &&
		e.Source != "" &&
		!e.FetchedAt.IsZero() &&
		e.ExpiresAt.After(e.FetchedAt)
}

// Stats summarizes store contents.
type Stats struct {
	Entries int       `json:"entries"`
	Expired int       `json:"expired"`
	Oldest  time.Time `json:"oldest,omitzero"`
	Newest  time.Time `json:"newest,omitzero"`
}

// Store persists route entries by key. Get reports ok=false for a missing,
// expired, or corrupt entry; corrupt entries are deleted on read.
type Store interface {
	Get(ctx context.Context, key Key) (Entry, bool, error)
	Put(ctx context.Context, key Key, entry Entry) error
	Delete(ctx context.Context, key Key) error

	// Prune removes expired entries and returns how many were deleted.
	Prune(ctx context.Context) (int, error)

	// Clear removes every entry.
	Clear(ctx context.Context) (int, error)

	Stats(ctx context.Context) (Stats, error)
	Close() error
}
