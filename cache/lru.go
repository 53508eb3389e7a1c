package cache

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// LRUStore is an in-memory Store with LRU eviction.
type LRUStore struct {
	cache *lru.Cache[string, []float64]
}

// NewLRUStore creates an in-memory store holding up to capacity vectors.
func NewLRUStore(capacity int) (*LRUStore, error) {
	c, err := lru.New[string, []float64](capacity)
	if err != nil {
		return nil, err
	}
	return &LRUStore{cache: c}, nil
}

// Get returns the cached vector for key, if present.
func (s *LRUStore) Get(_ context.Context, key string) ([]float64, bool, error) {
	v, ok := s.cache.Get(key)
	return v, ok, nil
}

// Set stores the vector for key, evicting the least recently used entry
// when at capacity.
func (s *LRUStore) Set(_ context.Context, key string, vector []float64) error {
	s.cache.Add(key, vector)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *LRUStore) Close() error { return nil }
