package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/ppiankov/mathblocks/internal/model"
)

// Page is a fetched lesson page together with its HTTP metadata
type Page struct {
	Body      []byte          `json:"body"`
	Meta      model.FetchMeta `json:"meta"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// Store caches fetched pages by key
type Store interface {
	Get(key string) (*Page, bool)
	Set(key string, page *Page, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a cache key from a lesson URL
func Key(url string) string {
	hash := sha256.Sum256([]byte(url))
	return "mathblocks:v1:" + hex.EncodeToString(hash[:])
}

// New builds the store described by cfg. A non-empty Dir adds a disk tier
// behind the memory tier so pages survive between CLI runs.
func New(cfg model.CacheConfig) Store {
	memory := NewMemoryStore(cfg.TTL, 10*time.Minute)
	if cfg.Dir == "" {
		return memory
	}
	return NewTieredStore(memory, NewDiskStore(cfg.Dir, cfg.TTL))
}
