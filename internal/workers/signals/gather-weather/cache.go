package gatherweather

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"margadarshak/internal/models"

	lru "github.com/hashicorp/golang-lru"
	"github.com/redis/go-redis/v9"
)

// Cache stores readings per city and hour. Misses and backend errors look the same to callers.
type Cache interface {
	Get(ctx context.Context, key string) (models.WeatherReading, bool)
	Set(ctx context.Context, key string, reading models.WeatherReading)
}

func cacheKey(city string, at time.Time) string {
	return "weather:" + strings.ToLower(strings.TrimSpace(city)) + ":" + at.Format("2006010215")
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) (models.WeatherReading, bool) {
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return models.WeatherReading{}, false
	}
	var r models.WeatherReading
	if err := json.Unmarshal([]byte(val), &r); err != nil {
		return models.WeatherReading{}, false
	}
	return r, true
}

func (c *RedisCache) Set(ctx context.Context, key string, reading models.WeatherReading) {
	data, err := json.Marshal(reading)
	if err != nil {
		return
	}
	c.client.Set(ctx, key, string(data), c.ttl)
}

type lruEntry struct {
	reading models.WeatherReading
	expires time.Time
}

// LRUCache is the in-process fallback when no Redis is configured.
type LRUCache struct {
	cache *lru.Cache
	ttl   time.Duration
	now   func() time.Time
}

func NewLRUCache(size int, ttl time.Duration) (*LRUCache, error) {
	if size <= 0 {
		size = 64
	}
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &LRUCache{cache: c, ttl: ttl, now: time.Now}, nil
}

func (c *LRUCache) Get(_ context.Context, key string) (models.WeatherReading, bool) {
	v, ok := c.cache.Get(key)
	if !ok {
		return models.WeatherReading{}, false
	}
	e := v.(lruEntry)
	if c.now().After(e.expires) {
		c.cache.Remove(key)
		return models.WeatherReading{}, false
	}
	return e.reading, true
}

func (c *LRUCache) Set(_ context.Context, key string, reading models.WeatherReading) {
	c.cache.Add(key, lruEntry{reading: reading, expires: c.now().Add(c.ttl)})
}
