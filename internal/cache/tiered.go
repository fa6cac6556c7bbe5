package cache

import (
	"errors"
	"time"
)

// TieredStore checks a fast store before a slow one and promotes hits
type TieredStore struct {
	fast Store
	slow Store
}

// NewTieredStore combines two stores
func NewTieredStore(fast, slow Store) *TieredStore {
	return &TieredStore{fast: fast, slow: slow}
}

// Get checks the fast tier, then the slow tier
func (s *TieredStore) Get(key string) (*Page, bool) {
	if page, ok := s.fast.Get(key); ok {
		return page, true
	}

	if page, ok := s.slow.Get(key); ok {
		_ = s.fast.Set(key, page, 0)
		return page, true
	}

	return nil, false
}

// Set writes to both tiers
func (s *TieredStore) Set(key string, page *Page, ttl time.Duration) error {
	if err := s.fast.Set(key, page, ttl); err != nil {
		return err
	}
	return s.slow.Set(key, page, ttl)
}

// Delete removes key from both tiers
func (s *TieredStore) Delete(key string) error {
	return errors.Join(s.fast.Delete(key), s.slow.Delete(key))
}

// Clear empties both tiers
func (s *TieredStore) Clear() error {
	return errors.Join(s.fast.Clear(), s.slow.Clear())
}
