package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/storefront-engine/internal/cache"
	"github.com/noah-isme/storefront-engine/internal/resilience"
)

var errCacheDisabled = errors.New("catalog cache disabled")

// Cache wraps Redis helpers for JSON payloads. Reads and writes are skipped
// while the breaker is open; invalidation is always attempted.
type Cache struct {
	client  *redis.Client
	ttl     time.Duration
	breaker *resilience.Breaker
}

// NewCache constructs a cache helper. A nil client disables caching.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Cache{client: client, ttl: ttl}
}

// WithBreaker guards reads and writes with b.
func (c *Cache) WithBreaker(b *resilience.Breaker) *Cache {
	c.breaker = b
	return c
}

// GetJSON unmarshals a cached JSON payload into dst. It reports whether the key existed.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	if c == nil || c.client == nil || key == "" || !c.breaker.Allow(ctx) {
		return false, nil
	}
	data, err := c.client.Get(ctx, key).Bytes()
	c.breaker.Report(ctx, err == nil || errors.Is(err, redis.Nil))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

// Generation reads the invalidation counter for a product. Callers take it
// before loading from the store and hand it to FillProduct.
func (c *Cache) Generation(ctx context.Context, id string) (int64, error) {
	if c == nil || c.client == nil || id == "" || !c.breaker.Allow(ctx) {
		return 0, errCacheDisabled
	}
	gen, err := c.client.Get(ctx, cache.KeyProductGeneration(id)).Int64()
	c.breaker.Report(ctx, err == nil || errors.Is(err, redis.Nil))
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// FillProduct stores the snapshot only if no invalidation happened since gen
// was read. It reports whether the snapshot was written.
func (c *Cache) FillProduct(ctx context.Context, id string, gen int64, v any) (bool, error) {
	if c == nil || c.client == nil || id == "" || !c.breaker.Allow(ctx) {
		return false, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return false, err
	}
	genKey := cache.KeyProductGeneration(id)
	stored := false
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, cache.KeyProduct(id), data, c.ttl)
			return nil
		})
		if err == nil {
			stored = true
		}
		return err
	}, genKey)
	if errors.Is(err, redis.TxFailedErr) {
		c.breaker.Report(ctx, true)
		return false, nil
	}
	c.breaker.Report(ctx, err == nil)
	return stored, err
}

// Invalidate drops the product snapshots for ids and bumps their generation
// so fills started before this call are discarded.
func (c *Cache) Invalidate(ctx context.Context, ids ...string) error {
	if c == nil || c.client == nil || len(ids) == 0 {
		return nil
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range ids {
			genKey := cache.KeyProductGeneration(id)
			pipe.Del(ctx, cache.KeyProduct(id))
			pipe.Incr(ctx, genKey)
			pipe.Expire(ctx, genKey, c.generationTTL())
		}
		return nil
	})
	c.breaker.Report(ctx, err == nil)
	return err
}

// generationTTL outlives any snapshot written under an older generation.
func (c *Cache) generationTTL() time.Duration {
	return 2 * c.ttl
}
