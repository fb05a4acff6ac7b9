package storage

import (
	"context"
	"sync"
	"time"

	"github.com/BetterCallFirewall/Bastion/internal/models"
)

// MemoryStore - in-process verdict cache with TTL and a size bound
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	ttl     time.Duration
	maxSize int
	now     func() time.Time
}

type cacheEntry struct {
	verdict   models.Verdict
	timestamp time.Time
	hits      int
}

// CacheStats - counters exposed on /api/stats
type CacheStats struct {
	Size      int `json:"size"`
	MaxSize   int `json:"max_size"`
	TotalHits int `json:"total_hits"`
}

// NewMemoryStore creates an empty cache
func NewMemoryStore(ttl time.Duration, maxSize int) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*cacheEntry, maxSize),
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
	}
}

func (m *MemoryStore) Get(ctx context.Context, key string) (models.Verdict, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return models.Verdict{}, false, nil
	}

	if m.now().Sub(entry.timestamp) > m.ttl {
		delete(m.entries, key)
		return models.Verdict{}, false, nil
	}

	entry.hits++
	return entry.verdict, true, nil
}

func (m *MemoryStore) Set(ctx context.Context, key string, verdict models.Verdict) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.maxSize {
		m.evictOldest()
	}

	m.entries[key] = &cacheEntry{
		verdict:   verdict,
		timestamp: m.now(),
	}
	return nil
}

// evictOldest drops the entry stored first; caller holds the lock
func (m *MemoryStore) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, entry := range m.entries {
		if oldestKey == "" || entry.timestamp.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.timestamp
		}
	}

	if oldestKey != "" {
		delete(m.entries, oldestKey)
	}
}

func (m *MemoryStore) Stats() CacheStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	totalHits := 0
	for _, entry := range m.entries {
		totalHits += entry.hits
	}

	return CacheStats{
		Size:      len(m.entries),
		MaxSize:   m.maxSize,
		TotalHits: totalHits,
	}
}
