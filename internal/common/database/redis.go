package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"margadarshak/internal/common/config"

	"github.com/redis/go-redis/v9"
)

// Redis backs the shared weather cache.
type Redis struct {
	Client *redis.Client
}

// OpenRedis connects and pings. Weather lookups are small, so the pool is kept
// narrow and the timeouts short.
func OpenRedis(ctx context.Context, cfg config.RedisConfig) (*Redis, error) {
	if cfg.Address == "" {
		return nil, errors.New("redis: address is empty")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
		PoolSize:     5,
	})

	r := &Redis{Client: rdb}
	if err := r.Ping(ctx); err != nil {
		rdb.Close()
		return nil, err
	}
	return r, nil
}

func (r *Redis) Ping(ctx context.Context) error {
	if err := r.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.Client.Close()
}
