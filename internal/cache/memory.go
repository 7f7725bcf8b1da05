package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore keeps entries in process memory with expiry
type MemoryStore struct {
	items *gocache.Cache
}

// NewMemoryStore creates a memory store. Expired entries are purged every cleanupInterval.
func NewMemoryStore(defaultTTL, cleanupInterval time.Duration) *MemoryStore {
	return &MemoryStore{items: gocache.New(defaultTTL, cleanupInterval)}
}

func (s *MemoryStore) Get(key string) ([]byte, bool) {
	v, ok := s.items.Get(key)
	if !ok {
		return nil, false
	}
	b, ok := v.([]byte)
	return b, ok
}

// Set stores value; a zero ttl uses the store default
func (s *MemoryStore) Set(key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}
	s.items.Set(key, value, ttl)
	return nil
}

func (s *MemoryStore) Delete(key string) error {
	s.items.Delete(key)
	return nil
}

func (s *MemoryStore) Clear() error {
	s.items.Flush()
	return nil
}

// Len returns the number of live entries, expired ones included until the next cleanup
func (s *MemoryStore) Len() int {
	return s.items.ItemCount()
}
