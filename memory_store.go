package simpleratelimiter

import (
	"sync"
	"time"
)

// memoryEntry is one stored counter. A zero expiresAt means no expiration.
type memoryEntry struct {
	value     int64
	expiresAt time.Time
}

// MemoryStore is an in-process Store backed by a mutex-guarded map. It is
// safe for concurrent use, but its state is local to the process; use a
// Redis-backed store when the limit must hold across replicas. It doubles
// as the test double for everything built on Store.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry

	// now is swapped out by tests to drive expiration deterministically.
	now func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

var _ Store = (*MemoryStore)(nil)

// entry returns the live entry for key, discarding it first if expired.
// Callers must hold mu.
func (m *MemoryStore) entry(key string) (memoryEntry, bool) {
	e, ok := m.entries[key]
	if !ok {
		return memoryEntry{}, false
	}
	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		delete(m.entries, key)
		return memoryEntry{}, false
	}
	return e, true
}

// Exists reports whether key holds an unexpired value.
func (m *MemoryStore) Exists(key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entry(key)
	return ok, nil
}

// Set writes value and restarts the expiration countdown.
func (m *MemoryStore) Set(key string, value int64, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := memoryEntry{value: value}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.entries[key] = e
	return nil
}

// Expire restarts the expiration countdown, leaving the value untouched.
// Absent keys are left absent; a non-positive ttl deletes the key, as
// Redis does.
func (m *MemoryStore) Expire(key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entry(key)
	if !ok {
		return nil
	}
	if ttl <= 0 {
		delete(m.entries, key)
		return nil
	}
	e.expiresAt = m.now().Add(ttl)
	m.entries[key] = e
	return nil
}

// Decr decrements by 1 and returns the new value. An absent key starts
// from zero and materializes with no expiration, as Redis does.
func (m *MemoryStore) Decr(key string) (int64, error) {
	return m.add(key, -1)
}

// Incr increments by 1 and returns the new value. An absent key starts
// from zero and materializes with no expiration, as Redis does.
func (m *MemoryStore) Incr(key string) (int64, error) {
	return m.add(key, 1)
}

func (m *MemoryStore) add(key string, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, _ := m.entry(key)
	e.value += delta
	m.entries[key] = e
	return e.value, nil
}

// Get reads the current value. An absent key reads as 0.
func (m *MemoryStore) Get(key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, _ := m.entry(key)
	return e.value, nil
}
