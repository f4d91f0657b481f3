package routecache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store. It backs dry runs and tests.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]Entry
}

func NewMemory() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

func (m *MemoryStore) Get(ctx context.Context, key Key) (Entry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key.String()]
	if !ok || !e.ExpiresAt.After(time.Now().UTC()) {
		return Entry{}, false, nil
	}
	if !e.valid() {
		delete(m.entries, key.String())
		return Entry{}, false, nil
	}
	return e, true, nil
}

func (m *MemoryStore) Put(ctx context.Context, key Key, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key.String()] = entry
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, key Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key.String())
	return nil
}

func (m *MemoryStore) Prune(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	n := 0
	for k, e := range m.entries {
		if !e.ExpiresAt.After(now) {
			delete(m.entries, k)
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) Clear(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.entries)
	m.entries = make(map[string]Entry)
	return n, nil
}

func (m *MemoryStore) Stats(ctx context.Context) (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	var st Stats
	for _, e := range m.entries {
		st.Entries++
		if !e.ExpiresAt.After(now) {
			st.Expired++
		}
		if st.Oldest.IsZero() || e.FetchedAt.Before(st.Oldest) {
			st.Oldest = e.FetchedAt
		}
		if e.FetchedAt.After(st.Newest) {
			st.Newest = e.FetchedAt
		}
	}
	return st, nil
}

func (m *MemoryStore) Close() error { return nil }
