package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mikey/scamguard/internal/adapters/ratelimit"
	"github.com/mikey/scamguard/internal/config"
)

// RateLimitFactory creates the Redis backed request limiter
type RateLimitFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewRateLimitFactory creates a new rate limit factory
func NewRateLimitFactory(cfg *config.Config, logger *zap.Logger) *RateLimitFactory {
	return &RateLimitFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateLimiter connects to Redis and returns the limiter with its client.
// Both are nil when rate limiting is disabled.
func (f *RateLimitFactory) CreateLimiter(ctx context.Context) (*ratelimit.Limiter, *redis.Client, error) {
	rc := f.cfg.GetRateLimit()
	if !rc.Enabled {
		return nil, nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:         rc.RedisAddress,
		Password:     rc.RedisPassword,
		DB:           rc.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	f.logger.Info("Rate limiting enabled",
		zap.String("redis", rc.RedisAddress),
		zap.Int("requests_per_minute", rc.RequestsPerMinute))

	limiter := ratelimit.NewLimiter(client, rc.KeyPrefix, rc.RequestsPerMinute, time.Minute)
	return limiter, client, nil
}
