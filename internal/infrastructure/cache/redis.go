package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shirin/backend/internal/infrastructure/config"
)

// connectTimeout bounds the startup ping so a dead Redis fails fast
// instead of hanging the whole boot sequence.
const connectTimeout = 5 * time.Second

// NewRedisClient connects to Redis and verifies the connection with a
// ping. The returned client is shared by every component that caches
// through Redis, currently the exchange rate provider.
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}
