// Package cache provides content-addressed storage for embedding vectors,
// so repeated comparisons of the same text or image skip the remote call.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
)

// Store persists embedding vectors keyed by content hash.
type Store interface {
	// Get returns the vector for key, reporting whether it was present.
	Get(ctx context.Context, key string) ([]float64, bool, error)

	// Set stores the vector for key.
	Set(ctx context.Context, key string, vector []float64) error

	// Close releases resources held by the store.
	Close() error
}

// Key derives a cache key from raw content. The namespace separates text
// embeddings from image features so identical bytes never collide across
// providers.
func Key(namespace string, content []byte) string {
	sum := sha256.Sum256(content)
	return namespace + ":" + hex.EncodeToString(sum[:])
}
