package irr

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/fundwise/ledgex/config"
)

// CachedRate is the cache payload. ComputedAt is compared against the input
// data's last-modified time on every hit, so a recompute racing an eager
// invalidation resolves last-writer-wins instead of leaving a stale value.
type CachedRate struct {
	Rate       float64   `json:"rate"`
	ComputedAt time.Time `json:"computed_at"`
}

// Cache stores rates keyed by fingerprint and tracks which keys belong to
// which holding so a write to one holding can evict every affected entry.
type Cache interface {
	Get(key string) (*CachedRate, error)
	Set(key string, value CachedRate, holdingIDs []string) error
	InvalidateHolding(holdingID string) error
}

const (
	cacheKeyPrefix     = "ledgex:irr:"
	holdingIndexPrefix = "ledgex:irr:holding:"
	cacheTTL           = 24 * time.Hour
)

// RedisCache is the production cache on the shared redis connection.
type RedisCache struct {
	service *config.CacheService
}

func NewRedisCache() *RedisCache {
	return &RedisCache{service: config.Redis}
}

func (c *RedisCache) Get(key string) (*CachedRate, error) {
	var cached CachedRate

	err := c.service.GetKey(cacheKeyPrefix+key, &cached)
	if err == redis.Nil {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return &cached, nil
}

func (c *RedisCache) Set(key string, value CachedRate, holdingIDs []string) error {
	if err := c.service.SetKey(cacheKeyPrefix+key, value, cacheTTL); err != nil {
		return err
	}

	for _, holdingID := range holdingIDs {
		if err := c.service.Connection.SAdd(c.service.Ctx, holdingIndexPrefix+holdingID, key).Err(); err != nil {
			return err
		}
	}

	return nil
}

// InvalidateHolding eagerly deletes every cached rate whose holding set
// contains the holding.
func (c *RedisCache) InvalidateHolding(holdingID string) error {
	indexKey := holdingIndexPrefix + holdingID

	keys, err := c.service.Connection.SMembers(c.service.Ctx, indexKey).Result()
	if err != nil && err != redis.Nil {
		return err
	}

	for _, key := range keys {
		if err := c.service.DeleteKey(cacheKeyPrefix + key); err != nil {
			return err
		}
	}

	return c.service.Connection.Del(c.service.Ctx, indexKey).Err()
}

// MemoryCache backs tests and embedded deployments.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string][]byte
	index   map[string]map[string]bool
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string][]byte),
		index:   make(map[string]map[string]bool),
	}
}

func (c *MemoryCache) Get(key string) (*CachedRate, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	raw, ok := c.entries[key]
	if !ok {
		return nil, nil
	}

	var cached CachedRate
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, err
	}

	return &cached, nil
}

func (c *MemoryCache) Set(key string, value CachedRate, holdingIDs []string) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = raw

	for _, holdingID := range holdingIDs {
		if c.index[holdingID] == nil {
			c.index[holdingID] = make(map[string]bool)
		}

		c.index[holdingID][key] = true
	}

	return nil
}

func (c *MemoryCache) InvalidateHolding(holdingID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.index[holdingID] {
		delete(c.entries, key)
	}

	delete(c.index, holdingID)

	return nil
}
