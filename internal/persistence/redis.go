package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/employee-directory/internal/config"
)

const revokedTokenPrefix = "employee-directory:revoked:"

// Redis wraps the go-redis client.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to Redis using the provided configuration. An empty
// address yields a handle without a client.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	if cfg.Addr == "" {
		logger.Warn("REDIS_ADDR not provided; token revocation disabled")
		return &Redis{}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis")
	}

	return &Redis{Client: client}
}

// Enabled reports whether a client is configured.
func (r *Redis) Enabled() bool {
	return r != nil && r.Client != nil
}

// Close closes the client.
func (r *Redis) Close() {
	if r.Enabled() {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if !r.Enabled() {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}

// Revoke marks a token id as revoked until ttl elapses.
func (r *Redis) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if !r.Enabled() || ttl <= 0 {
		return nil
	}
	return r.Client.Set(ctx, revokedTokenPrefix+tokenID, "1", ttl).Err()
}

// IsRevoked reports whether the token id was revoked.
func (r *Redis) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if !r.Enabled() {
		return false, nil
	}
	n, err := r.Client.Exists(ctx, revokedTokenPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
