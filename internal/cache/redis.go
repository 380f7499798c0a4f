package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"BTCChart/internal/model"

	"github.com/go-redis/redis/v8"
)

// RedisCache shares generated series between chart processes.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache connects to addr and verifies the connection with a ping.
func NewRedisCache(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return &RedisCache{client: client, prefix: "btcchart:series:", ttl: ttl}, nil
}

func (c *RedisCache) Name() string { return "redis" }

func (c *RedisCache) Load(ctx context.Context, tf model.Timeframe) (*model.SeriesRun, error) {
	data, err := c.client.Get(ctx, c.prefix+string(tf)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, err
	}
	return decodeRun(data, tf)
}

// Save stores the run with the configured TTL; zero keeps it forever.
func (c *RedisCache) Save(ctx context.Context, run *model.SeriesRun) error {
	data, err := json.Marshal(run)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.prefix+string(run.Timeframe), data, c.ttl).Err()
}

func (c *RedisCache) Close() error { return c.client.Close() }
