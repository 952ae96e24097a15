// AngelaMos | 2026
// redis.go

package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"

	"github.com/buildmc/storefront/internal/config"
)

// RedisKeyPrefix namespaces every key and channel the storefront owns, so
// the instance can be shared with the game server's plugins.
const RedisKeyPrefix = "buildmc:"

const (
	redisPingTimeout    = 5 * time.Second
	redisConnectTimeout = 20 * time.Second
)

// RedisKey joins parts under RedisKeyPrefix: RedisKey("status", "snapshot")
// is "buildmc:status:snapshot".
func RedisKey(parts ...string) string {
	return RedisKeyPrefix + strings.Join(parts, ":")
}

type Redis struct {
	Client *redis.Client
}

// NewRedis retries the first ping with backoff, since redis and the API
// usually start together.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*Redis, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	opts.MinIdleConns = cfg.MinIdleConns
	opts.PoolTimeout = 30 * time.Second
	opts.ConnMaxIdleTime = 5 * time.Minute

	r := &Redis{Client: redis.NewClient(opts)}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = redisConnectTimeout
	if err := backoff.Retry(func() error {
		return r.Ping(ctx)
	}, backoff.WithContext(policy, ctx)); err != nil {
		_ = r.Client.Close() //nolint:errcheck
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	return r, nil
}

func (r *Redis) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()

	if err := r.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (r *Redis) PoolStats() *redis.PoolStats {
	return r.Client.PoolStats()
}

func (r *Redis) Close() error {
	if r.Client == nil {
		return nil
	}
	return r.Client.Close()
}
