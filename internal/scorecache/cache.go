// Package scorecache caches scoring responses keyed by the request
// payload, so repeated requests for the same rows skip model inference.
package scorecache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/your-org/diabetes-classifier/internal/config"
)

// ErrCacheMiss is returned when no cached response exists for a key.
var ErrCacheMiss = errors.New("scorecache: cache miss")

// Cache stores class-name predictions for a request key.
type Cache interface {
	Get(ctx context.Context, key string) ([]string, error)
	Set(ctx context.Context, key string, classes []string) error
}

// Key derives a stable cache key from the request rows.
func Key(rows [][]float64) string {
	h := sha256.New()
	var buf [8]byte
	for _, row := range rows {
		binary.LittleEndian.PutUint64(buf[:], uint64(len(row)))
		h.Write(buf[:])
		for _, v := range row {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
			h.Write(buf[:])
		}
	}
	return "score:" + hex.EncodeToString(h.Sum(nil))
}

// RedisCache backs Cache with a Redis instance. Entries expire after
// the configured TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(ctx context.Context, cfg config.CacheConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
		DB:   cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return &RedisCache{
		client: client,
		ttl:    time.Duration(cfg.TTLSeconds) * time.Second,
	}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]string, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache key %s: %w", key, err)
	}
	var classes []string
	if err := json.Unmarshal([]byte(val), &classes); err != nil {
		return nil, fmt.Errorf("failed to decode cached value for %s: %w", key, err)
	}
	return classes, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, classes []string) error {
	data, err := json.Marshal(classes)
	if err != nil {
		return fmt.Errorf("failed to encode cache value: %w", err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache key %s: %w", key, err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
