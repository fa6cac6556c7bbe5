package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore keeps pages in process memory with per-entry expiry
type MemoryStore struct {
	cache *gocache.Cache
}

// NewMemoryStore creates a memory store; ttl 0 means entries never expire
func NewMemoryStore(ttl, cleanupInterval time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	return &MemoryStore{cache: gocache.New(ttl, cleanupInterval)}
}

// Get returns the cached page for key
func (s *MemoryStore) Get(key string) (*Page, bool) {
	if v, ok := s.cache.Get(key); ok {
		return v.(*Page), true
	}
	return nil, false
}

// Set stores page under key; ttl 0 uses the store default
func (s *MemoryStore) Set(key string, page *Page, ttl time.Duration) error {
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}
	s.cache.Set(key, page, ttl)
	return nil
}

// Delete removes key
func (s *MemoryStore) Delete(key string) error {
	s.cache.Delete(key)
	return nil
}

// Clear removes every entry
func (s *MemoryStore) Clear() error {
	s.cache.Flush()
	return nil
}

// Len reports the number of live entries
func (s *MemoryStore) Len() int {
	return s.cache.ItemCount()
}
