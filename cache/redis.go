package cache

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Store backed by Redis, for sharing embeddings across
// processes. Vectors are stored as little-endian float64 bytes.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisConfig configures a RedisStore.
type RedisConfig struct {
	// Addr is the host:port of the Redis server.
	Addr string

	Username string
	Password string
	Database int

	// Prefix namespaces the keys; defaults to "docsim:".
	Prefix string

	// TTL expires entries after the given duration; zero means no expiry.
	TTL time.Duration
}

// NewRedisStore creates a Redis-backed store and verifies connectivity.
func NewRedisStore(ctx context.Context, config RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Username: config.Username,
		Password: config.Password,
		DB:       config.Database,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	prefix := config.Prefix
	if prefix == "" {
		prefix = "docsim:"
	}

	return &RedisStore{client: client, prefix: prefix, ttl: config.TTL}, nil
}

// Get returns the cached vector for key, if present.
func (s *RedisStore) Get(ctx context.Context, key string) ([]float64, bool, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	vec, err := bytesToFloats(data)
	if err != nil {
		return nil, false, err
	}
	return vec, true, nil
}

// Set stores the vector for key.
func (s *RedisStore) Set(ctx context.Context, key string, vector []float64) error {
	return s.client.Set(ctx, s.prefix+key, floatsToBytes(vector), s.ttl).Err()
}

// Close closes the underlying client.
func (s *RedisStore) Close() error { return s.client.Close() }

func floatsToBytes(fs []float64) []byte {
	buf := make([]byte, len(fs)*8)
	for i, f := range fs {
		binary.LittleEndian.PutUint64(buf[i*8:(i+1)*8], math.Float64bits(f))
	}
	return buf
}

func bytesToFloats(b []byte) ([]float64, error) {
	if len(b)%8 != 0 {
		return nil, fmt.Errorf("malformed vector payload: %d bytes", len(b))
	}
	fs := make([]float64, len(b)/8)
	for i := range fs {
		fs[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8 : (i+1)*8]))
	}
	return fs, nil
}
