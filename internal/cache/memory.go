package cache

import (
	"context"
	"sync"
	"time"

	"StockDesk/internal/logger"
)

const memorySweepFreq = time.Minute

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
	ttl       time.Duration
}

// MemoryStore keeps entries in process. Entries expire ttl after they were last
// written or read; a sweep drops expired entries at most once per minute. With maxBytes > 0 writes
// that would exceed the budget are rejected.
type MemoryStore struct {
	mu         sync.Mutex
	items      map[string]*memoryEntry
	lastSweep  time.Time
	totalBytes int64
	maxBytes   int64
	now        func() time.Time
}

func NewMemoryStore(maxBytes int64) *MemoryStore {
	return &MemoryStore{
		items:    make(map[string]*memoryEntry),
		maxBytes: maxBytes,
		now:      time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.maybeSweepLocked(now)
	entry, ok := s.items[key]
	if !ok {
		return nil, false, nil
	}
	if now.After(entry.expiresAt) {
		s.deleteLocked(key)
		return nil, false, nil
	}
	entry.expiresAt = now.Add(entry.ttl)
	return entry.value, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.maybeSweepLocked(now)

	size := int64(len(key) + len(value))
	if s.maxBytes > 0 && size > s.maxBytes {
		logger.Warn("query_cache_item_too_large", map[string]any{
			"item_bytes": size,
			"max_bytes":  s.maxBytes,
		})
		return nil
	}

	var existing int64
	if old, ok := s.items[key]; ok {
		existing = int64(len(key) + len(old.value))
	}
	if s.maxBytes > 0 && s.totalBytes-existing+size > s.maxBytes {
		logger.Warn("query_cache_memory_limit_exceeded", map[string]any{
			"item_bytes":  size,
			"total_bytes": s.totalBytes,
			"max_bytes":   s.maxBytes,
		})
		return nil
	}

	s.items[key] = &memoryEntry{
		value:     value,
		expiresAt: now.Add(ttl),
		ttl:       ttl,
	}
	s.totalBytes += size - existing
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		s.deleteLocked(k)
	}
	return nil
}

// Len reports the number of live entries, expired ones included until swept.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *MemoryStore) deleteLocked(key string) {
	if entry, ok := s.items[key]; ok {
		s.totalBytes -= int64(len(key) + len(entry.value))
		delete(s.items, key)
	}
}

func (s *MemoryStore) maybeSweepLocked(now time.Time) {
	if !s.lastSweep.IsZero() && now.Sub(s.lastSweep) < memorySweepFreq {
		return
	}
	for key, entry := range s.items {
		if now.After(entry.expiresAt) {
			s.deleteLocked(key)
		}
	}
	s.lastSweep = now
}
