// Package dedup tracks which media items have already been downloaded. The
// durable store is the resume checkpoint: a media id present in the store is
// never fetched again, across restarts.
package dedup

import (
	"fmt"
	"sync"
	"time"
)

// Store is the durable record of completed downloads.
type Store interface {
	// Contains answers whether key has been recorded.
	Contains(key string) bool
	// Record marks key as downloaded at ts. Recording an already-present
	// key is a no-op. The write is durable before Record returns.
	Record(key string, ts time.Time) error
	// Load returns all recorded keys for startup warm-up.
	Load() (map[string]time.Time, error)
	// Close releases the underlying storage.
	Close() error
}

// Key builds the store key for a media item. Media ids are namespaced by
// creator so a shared id across creators cannot collide.
func Key(creatorID, mediaID int64) string {
	return fmt.Sprintf("%d/%d", creatorID, mediaID)
}

// MemoryStore is an in-memory Store for tests and dry runs.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]time.Time)}
}

// Contains answers whether key has been recorded.
func (s *MemoryStore) Contains(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[key]
	return ok
}

// Record marks key as downloaded at ts.
func (s *MemoryStore) Record(key string, ts time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[key]; ok {
		return nil
	}
	s.records[key] = ts
	return nil
}

// Load returns a copy of all recorded keys.
func (s *MemoryStore) Load() (map[string]time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]time.Time, len(s.records))
	for k, v := range s.records {
		out[k] = v
	}
	return out, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
