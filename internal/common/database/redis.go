// internal/common/database/redis.go
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/LianruiSun/JobboCat/internal/common/config"

	"github.com/redis/go-redis/v9"
)

// RedisClient wraps the Redis client
type RedisClient struct {
	Client *redis.Client
}

// NewRedis creates a new Redis client
func NewRedis(cfg config.RedisConfig) (*RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	return &RedisClient{Client: rdb}, nil
}

// Ping tests the Redis connection
func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (c *RedisClient) Close() error {
	if c.Client != nil {
		return c.Client.Close()
	}
	return nil
}

// ZAddMember upserts a member with the given score in a sorted set
func (c *RedisClient) ZAddMember(ctx context.Context, key string, score float64, member string) error {
	return c.Client.ZAdd(ctx, key, redis.Z{Score: score, Member: member}).Err()
}

// ZRemRangeByScore removes members whose score falls in [min, max] and
// returns the number removed
func (c *RedisClient) ZRemRangeByScore(ctx context.Context, key, min, max string) (int64, error) {
	return c.Client.ZRemRangeByScore(ctx, key, min, max).Result()
}

// ZCount counts members whose score falls in [min, max]
func (c *RedisClient) ZCount(ctx context.Context, key, min, max string) (int64, error) {
	return c.Client.ZCount(ctx, key, min, max).Result()
}

// GetClient returns the underlying *redis.Client for compatibility
func (c *RedisClient) GetClient() *redis.Client {
	return c.Client
}
