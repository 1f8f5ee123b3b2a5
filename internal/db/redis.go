package db

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewRedisClient connects to redis from a REDIS_URL-style string. Redis only
// backs the auth rate limiter, so an unreachable server returns nil and the
// caller degrades to running without limiting rather than failing startup.
func NewRedisClient(redisURL string, logger *zap.Logger) *redis.Client {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Warn("invalid redis url, rate limiting disabled", zap.Error(err))
		return nil
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable, rate limiting disabled", zap.Error(err))
		_ = client.Close()
		return nil
	}

	logger.Info("redis connection established")
	return client
}
