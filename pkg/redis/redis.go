package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/richxcame/engraving-commerce/pkg/config"
)

const idempotencyPrefix = "idem:"

// Client wraps the Redis client
type Client struct {
	*redis.Client
}

// NewRedisClient creates a new Redis client
func NewRedisClient(cfg *config.RedisConfig) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("unable to connect to redis: %w", err)
	}

	return &Client{Client: client}, nil
}

// Processed reports whether key was marked done by MarkProcessed
func (c *Client) Processed(ctx context.Context, key string) (bool, error) {
	n, err := c.Exists(ctx, idempotencyPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("check %s: %w", key, err)
	}
	return n > 0, nil
}

// MarkProcessed records key as done for ttl. Call it only after the unit of
// work has completed, so a crash midway leaves the key unset.
func (c *Client) MarkProcessed(ctx context.Context, key string, ttl time.Duration) error {
	if err := c.Set(ctx, idempotencyPrefix+key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("mark %s: %w", key, err)
	}
	return nil
}

// Healthy pings the server
func (c *Client) Healthy(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

// Close closes the Redis client
func (c *Client) Close() error {
	return c.Client.Close()
}
