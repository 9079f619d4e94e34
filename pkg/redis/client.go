// Package redis connects the shared Redis client used for locks,
// idempotency records and rate-limit windows.
package redis

import (
	"context"
	"fmt"

	redis "github.com/redis/go-redis/v9"

	"github.com/kpp-all/drip-bot/pkg/config"
)

// Client embeds go-redis so callers use its API directly.
type Client struct {
	*redis.Client
}

// NewFromAppConfig dials Redis per the application config and verifies the
// connection with a ping before returning.
func NewFromAppConfig(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Client{rdb}, nil
}
