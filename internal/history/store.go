package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mmcdole/scout/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// DefaultMaxEntries bounds how many distinct queries are remembered
const DefaultMaxEntries = 200

var bucketQueries = []byte("queries")

// Store implements domain.HistoryStore using BoltDB.
// Entries are keyed by normalized query text.
type Store struct {
	db  *bolt.DB
	now func() time.Time
	max int

	mu      sync.RWMutex
	entries map[string]domain.HistoryEntry
}

// NewStore opens the history database at path. An empty path keeps
// history in memory only.
func NewStore(path string, maxEntries int) (*Store, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	s := &Store{
		now:     time.Now,
		max:     maxEntries,
		entries: make(map[string]domain.HistoryEntry),
	}
	if path == "" {
		return s, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketQueries)
		if err != nil {
			return err
		}
		// Load everything up front; history is small and read on every keystroke
		var corrupt [][]byte
		err = b.ForEach(func(k, v []byte) error {
			var entry domain.HistoryEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				corrupt = append(corrupt, append([]byte(nil), k...))
				return nil
			}
			s.entries[string(k)] = entry
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range corrupt {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	s.db = db
	return s, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record remembers q, bumping its use count
func (s *Store) Record(q domain.Query) error {
	key := q.Normalized()
	if key == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.entries[key]
	entry.Text = q.Text
	entry.Count++
	entry.LastUsed = s.now()
	s.entries[key] = entry

	evicted := s.trimLocked()

	if s.db == nil {
		return nil
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketQueries)
		for _, k := range evicted {
			if err := b.Delete([]byte(k)); err != nil {
				return err
			}
		}
		return b.Put([]byte(key), data)
	})
}

// trimLocked drops the least recently used entries beyond max and returns
// their keys
func (s *Store) trimLocked() []string {
	if len(s.entries) <= s.max {
		return nil
	}
	keys := s.sortedKeysLocked()
	evicted := keys[s.max:]
	for _, k := range evicted {
		delete(s.entries, k)
	}
	return evicted
}

// sortedKeysLocked returns keys by most recent use, newest first
func (s *Store) sortedKeysLocked() []string {
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := s.entries[keys[i]], s.entries[keys[j]]
		if !a.LastUsed.Equal(b.LastUsed) {
			return a.LastUsed.After(b.LastUsed)
		}
		return keys[i] < keys[j]
	})
	return keys
}

// Recent returns up to limit entries, most recently used first
func (s *Store) Recent(limit int) ([]domain.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := s.sortedKeysLocked()
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}
	out := make([]domain.HistoryEntry, len(keys))
	for i, k := range keys {
		out[i] = s.entries[k]
	}
	return out, nil
}

// Suggest returns past queries that fuzzy-match prefix, closest first.
// An empty prefix behaves like Recent.
func (s *Store) Suggest(prefix string, limit int) ([]domain.HistoryEntry, error) {
	prefix = domain.NewQuery(prefix, 0, 0).Normalized()
	if prefix == "" {
		return s.Recent(limit)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := s.sortedKeysLocked()
	ranks := fuzzy.RankFindFold(prefix, keys)

	// Stable sort keeps recency order among equal distances
	sort.SliceStable(ranks, func(i, j int) bool {
		return ranks[i].Distance < ranks[j].Distance
	})

	out := make([]domain.HistoryEntry, 0, len(ranks))
	for _, r := range ranks {
		if r.Target == prefix {
			continue // already typed in full
		}
		out = append(out, s.entries[r.Target])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Clear forgets every query
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]domain.HistoryEntry)
	if s.db == nil {
		return nil
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketQueries); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		_, err := tx.CreateBucket(bucketQueries)
		return err
	})
}

// Len returns the number of remembered queries
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
