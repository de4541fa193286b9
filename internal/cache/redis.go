package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/garnizeh/staffdir/pkg/models"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the key holding the JSON encoded staff list.
const DefaultRedisKey = "staffdir:staff:all"

// Redis is a ListCache stored in a redis key with a TTL. It lets several
// server processes share one invalidation point.
type Redis struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisClient connects to redis with short timeouts.
func NewRedisClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
}

func NewRedis(client *redis.Client, key string, ttl time.Duration, logger *slog.Logger) *Redis {
	if key == "" {
		key = DefaultRedisKey
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Redis{client: client, key: key, ttl: ttl, logger: logger}
}

// Healthy verifies redis connectivity.
func (c *Redis) Healthy(ctx context.Context) bool {
	return c.client.Ping(ctx).Err() == nil
}

// Get treats any redis or decode failure as a miss.
func (c *Redis) Get(ctx context.Context) ([]models.Staff, bool) {
	b, err := c.client.Get(ctx, c.key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache: redis get failed", slog.Any("err", err))
		}
		return nil, false
	}
	var out []models.Staff
	if err := json.Unmarshal(b, &out); err != nil {
		c.logger.Warn("cache: decode cached list", slog.Any("err", err))
		return nil, false
	}
	return out, true
}

func (c *Redis) Set(ctx context.Context, records []models.Staff) error {
	b, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode staff list: %w", err)
	}
	if err := c.client.Set(ctx, c.key, b, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", c.key, err)
	}
	return nil
}

func (c *Redis) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", c.key, err)
	}
	return nil
}

// Close releases the redis connection pool.
func (c *Redis) Close() error {
	return c.client.Close()
}
