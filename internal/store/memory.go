// ABOUTME: In-memory Store implementation for tests and single-process dev mode
// ABOUTME: Mirrors SQLiteStore semantics including TTL expiry and atomic counters

package store

import (
	"context"
	"sync"
	"time"
)

type memEntry struct {
	value     []byte
	expiresAt time.Time
}

type memCounter struct {
	count     int64
	expiresAt time.Time
}

// MemoryStore is an in-memory Store implementation. It is safe for concurrent
// use but is invisible to other processes; production deployments use
// SQLiteStore on a shared database.
type MemoryStore struct {
	mu       sync.Mutex
	entries  map[string]*memEntry
	counters map[string]*memCounter

	// now is swappable so expiry tests don't have to sleep.
	now func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:  make(map[string]*memEntry),
		counters: make(map[string]*memCounter),
		now:      time.Now,
	}
}

// SetClock replaces the store's time source. Intended for tests.
func (m *MemoryStore) SetClock(now func() time.Time) {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
}

// Get returns the value for key, or ErrNotFound if absent or expired.
func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok || !entry.expiresAt.After(m.now()) {
		delete(m.entries, key)
		return nil, ErrNotFound
	}

	value := make([]byte, len(entry.value))
	copy(value, entry.value)
	return value, nil
}

// SetWithTTL stores value under key with an expiry of now+ttl.
func (m *MemoryStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)
	m.entries[key] = &memEntry{value: stored, expiresAt: m.now().Add(ttl)}
	return nil
}

// Delete removes key. Absent keys are not an error.
func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// IncrBelow atomically increments the counter for key while it is below limit.
func (m *MemoryStore) IncrBelow(ctx context.Context, key string, limit int64, ttl time.Duration) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	counter, ok := m.counters[key]
	if !ok || !counter.expiresAt.After(now) {
		if limit <= 0 {
			delete(m.counters, key)
			return 0, false, nil
		}
		m.counters[key] = &memCounter{count: 1, expiresAt: now.Add(ttl)}
		return 1, true, nil
	}

	if counter.count < limit {
		counter.count++
		return counter.count, true, nil
	}
	return counter.count, false, nil
}
