// Package cache memoizes computed household results by input.
package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/iwvelando/household-budget/internal/engine"
	"github.com/iwvelando/household-budget/pkg/constants"
)

// Cache stores serialized results. A miss and a failing backend look the same
// to Get; callers compute the result in either case.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key string, value string) error
}

// Key returns the cache key for an input. Equal inputs share a key.
func Key(in engine.HouseholdInput) (string, error) {
	data, err := json.Marshal(in)
	if err != nil {
		return "", err
	}
	return constants.CacheKeyPrefix + strconv.FormatUint(xxhash.Sum64(data), 16), nil
}

// MemoryCache is an in-process Cache used when no redis is configured.
// Entries expire after the TTL; once maxEntries is reached the oldest entry
// makes room for a new one.
type MemoryCache struct {
	mu         sync.Mutex
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
	entries    map[string]memoryEntry
}

type memoryEntry struct {
	value  string
	stored time.Time
}

// NewMemoryCache returns an empty MemoryCache. A non-positive ttl keeps
// entries until they are evicted; a non-positive maxEntries uses
// constants.DefaultMemoryCacheEntries.
func NewMemoryCache(ttl time.Duration, maxEntries int) *MemoryCache {
	if maxEntries <= 0 {
		maxEntries = constants.DefaultMemoryCacheEntries
	}
	return &MemoryCache{
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
		entries:    make(map[string]memoryEntry),
	}
}

func (m *MemoryCache) Get(_ context.Context, key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return "", false
	}
	if m.expired(entry, m.now()) {
		delete(m.entries, key)
		return "", false
	}
	return entry.value, true
}

func (m *MemoryCache) Set(_ context.Context, key string, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.maxEntries {
		m.purgeExpired(now)
		if len(m.entries) >= m.maxEntries {
			m.evictOldest()
		}
	}
	m.entries[key] = memoryEntry{value: value, stored: now}
	return nil
}

// Len reports the number of cached entries, expired ones included until they
// are purged.
func (m *MemoryCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *MemoryCache) expired(entry memoryEntry, now time.Time) bool {
	return m.ttl > 0 && now.Sub(entry.stored) >= m.ttl
}

func (m *MemoryCache) purgeExpired(now time.Time) {
	for key, entry := range m.entries {
		if m.expired(entry, now) {
			delete(m.entries, key)
		}
	}
}

func (m *MemoryCache) evictOldest() {
	var (
		oldestKey string
		oldest    time.Time
		found     bool
	)
	for key, entry := range m.entries {
		if !found || entry.stored.Before(oldest) {
			oldestKey, oldest, found = key, entry.stored, true
		}
	}
	if found {
		delete(m.entries, oldestKey)
	}
}
