package config

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// NewRedisClient returns nil when REDIS_ADDR is unset or the server does not
// answer a ping, so callers run without the cache.
func NewRedisClient(cfg Config, log *logrus.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		log.Info("redis disabled: REDIS_ADDR not set")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.WithError(err).WithField("addr", cfg.RedisAddr).Warn("redis unreachable, occupancy cache disabled")
		_ = client.Close()
		return nil
	}
	log.WithField("addr", cfg.RedisAddr).Info("redis connected")
	return client
}
