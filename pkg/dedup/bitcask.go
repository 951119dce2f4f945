package dedup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"git.mills.io/prologic/bitcask"
)

// BitcaskStore is a Store backed by an on-disk bitcask key/value log. The
// database is opened with sync-on-put so a record survives a crash
// immediately after Record returns.
type BitcaskStore struct {
	db *bitcask.Bitcask
	mu sync.RWMutex
}

// OpenBitcask opens (or creates) the dedup database at path.
func OpenBitcask(path string) (*BitcaskStore, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "/" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create state directory %s: %w", dir, err)
		}
	}

	db, err := bitcask.Open(path, bitcask.WithSync(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open dedup database at %s: %w", path, err)
	}
	return &BitcaskStore{db: db}, nil
}

// Contains answers whether key has been recorded.
func (s *BitcaskStore) Contains(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db.Has([]byte(key))
}

// Record marks key as downloaded at ts. Re-recording a present key is a
// no-op, which keeps the downloaded_at of the first completion.
func (s *BitcaskStore) Record(key string, ts time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := []byte(key)
	if s.db.Has(k) {
		return nil
	}
	if err := s.db.Put(k, []byte(ts.UTC().Format(time.RFC3339))); err != nil {
		return fmt.Errorf("failed to record %s: %w", key, err)
	}
	return nil
}

// Load folds over the whole database for startup warm-up.
func (s *BitcaskStore) Load() (map[string]time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]time.Time)
	err := s.db.Fold(func(key []byte) error {
		value, err := s.db.Get(key)
		if err != nil {
			if errors.Is(err, bitcask.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		ts, err := time.Parse(time.RFC3339, string(value))
		if err != nil {
			// Tolerate unparseable values; presence is what matters.
			ts = time.Time{}
		}
		out[string(key)] = ts
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load dedup records: %w", err)
	}
	return out, nil
}

// Close flushes and closes the database.
func (s *BitcaskStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
