package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/mmcdole/reel/internal/domain"
)

// Bucket names
var (
	bucketProgress = []byte("progress")
)

const progressKeyPrefix = "item:"

// ProgressStore implements domain.ProgressStore using BoltDB.
type ProgressStore struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache

	// In-memory cache for hot-path reads (promoted on access)
	cache map[string][]byte
}

// NewProgressStore opens the database at path. An empty path keeps
// everything in memory.
func NewProgressStore(path string) (*ProgressStore, error) {
	if path == "" {
		// Memory-only mode (no persistence)
		return &ProgressStore{cache: make(map[string][]byte)}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketProgress)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &ProgressStore{db: db, cache: make(map[string][]byte)}, nil
}

func (s *ProgressStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Generic helpers ===

func (s *ProgressStore) get(key string, dest interface{}) bool {
	// Check memory cache first
	s.mu.RLock()
	if data, ok := s.cache[key]; ok {
		s.mu.RUnlock()
		return json.Unmarshal(data, dest) == nil
	}
	s.mu.RUnlock()

	if s.db == nil {
		return false
	}

	var data []byte
	s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketProgress).Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})

	if data == nil {
		return false
	}

	// Promote to memory cache
	s.mu.Lock()
	s.cache[key] = data
	s.mu.Unlock()

	return json.Unmarshal(data, dest) == nil
}

func (s *ProgressStore) set(key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.cache[key] = data
	s.mu.Unlock()

	if s.db == nil {
		return nil // Memory-only mode
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketProgress).Put([]byte(key), data)
	})
}

func (s *ProgressStore) delete(key string) error {
	s.mu.Lock()
	delete(s.cache, key)
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketProgress).Delete([]byte(key))
	})
}

// === Progress ===

func (s *ProgressStore) GetProgress(itemID string) (domain.Progress, bool) {
	var p domain.Progress
	ok := s.get(progressKeyPrefix+itemID, &p)
	return p, ok
}

func (s *ProgressStore) SaveProgress(p domain.Progress) error {
	if p.ItemID == "" {
		return fmt.Errorf("save progress: %w", domain.ErrItemNotFound)
	}
	if p.UpdatedAt == 0 {
		p.UpdatedAt = time.Now().Unix()
	}
	return s.set(progressKeyPrefix+p.ItemID, p)
}

func (s *ProgressStore) DeleteProgress(itemID string) error {
	return s.delete(progressKeyPrefix + itemID)
}

// ListProgress returns all saved progress, most recently updated first.
func (s *ProgressStore) ListProgress() ([]domain.Progress, error) {
	var raw [][]byte

	if s.db == nil {
		s.mu.RLock()
		for k, v := range s.cache {
			if strings.HasPrefix(k, progressKeyPrefix) {
				raw = append(raw, v)
			}
		}
		s.mu.RUnlock()
	} else {
		err := s.db.View(func(tx *bolt.Tx) error {
			c := tx.Bucket(bucketProgress).Cursor()
			prefix := []byte(progressKeyPrefix)
			for k, v := c.Seek(prefix); k != nil && strings.HasPrefix(string(k), progressKeyPrefix); k, v = c.Next() {
				raw = append(raw, append([]byte(nil), v...))
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	out := make([]domain.Progress, 0, len(raw))
	for _, data := range raw {
		var p domain.Progress
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decode progress: %w", err)
		}
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UpdatedAt != out[j].UpdatedAt {
			return out[i].UpdatedAt > out[j].UpdatedAt
		}
		return out[i].ItemID < out[j].ItemID
	})
	return out, nil
}
