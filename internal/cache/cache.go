// Package cache provides expiring key-value caches for fetched chain data.
// Each logical cache (metadata, prices, token list, security) is a separate
// instance with its own fixed TTL.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Store is an expiring cache. Values are JSON-serialized so the in-memory and
// Redis backends behave identically. Get reports whether the key was present
// and unexpired; an expired entry is a miss.
type Store interface {
	// Get unmarshals the cached value into dest and reports whether it was found
	Get(ctx context.Context, key string, dest any) (bool, error)
	// Set stores a value under key with the store's TTL
	Set(ctx context.Context, key string, value any) error
	// TTL returns the fixed expiry applied to entries
	TTL() time.Duration
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// Memory is an in-process Store. Expired entries are evicted lazily on read;
// there is no background sweep, so unread stale entries linger until the next
// Get for their key.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemory creates an in-memory cache with the given entry TTL
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// SetClock overrides the time source, for tests
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// Get implements Store
func (m *Memory) Get(_ context.Context, key string, dest any) (bool, error) {
	m.mu.Lock()
	e, ok := m.entries[key]
	if ok && m.now().After(e.expiresAt) {
		delete(m.entries, key)
		ok = false
	}
	m.mu.Unlock()

	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(e.data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached value: %w", err)
	}
	return true, nil
}

// Set implements Store
func (m *Memory) Set(_ context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	m.mu.Lock()
	m.entries[key] = memoryEntry{data: data, expiresAt: m.now().Add(m.ttl)}
	m.mu.Unlock()
	return nil
}

// TTL implements Store
func (m *Memory) TTL() time.Duration {
	return m.ttl
}

// Keys returns the keys currently held, including entries that expired but
// have not been read since. Used by tests to observe eviction.
func (m *Memory) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	return keys
}

// Caches bundles the four logical caches used by the fetchers
type Caches struct {
	Metadata  Store
	Price     Store
	TokenList Store
	Security  Store
}

// TTLConfig holds the per-cache TTLs
type TTLConfig struct {
	Metadata  time.Duration
	Price     time.Duration
	TokenList time.Duration
	Security  time.Duration
}

// NewMemoryCaches builds all four caches backed by process memory
func NewMemoryCaches(ttls TTLConfig) *Caches {
	return &Caches{
		Metadata:  NewMemory(ttls.Metadata),
		Price:     NewMemory(ttls.Price),
		TokenList: NewMemory(ttls.TokenList),
		Security:  NewMemory(ttls.Security),
	}
}
