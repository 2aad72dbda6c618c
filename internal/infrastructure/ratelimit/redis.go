package ratelimit

import (
	"context"
	"log/slog"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Redis shares counters between instances. It fails open when Redis errors.
type Redis struct {
	client  *redis.Client
	logger  *slog.Logger
	prefix  string
	timeout time.Duration
}

// NewRedis connects and pings the server before returning.
func NewRedis(ctx context.Context, addr, password string, db int, logger *slog.Logger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return newRedis(client, logger), nil
}

func newRedis(client *redis.Client, logger *slog.Logger) *Redis {
	if logger == nil {
		logger = slog.Default()
	}
	return &Redis{
		client:  client,
		logger:  logger,
		prefix:  "userauth:ratelimit:",
		timeout: 250 * time.Millisecond,
	}
}

var _ Limiter = (*Redis)(nil)

// Allow increments the key's counter. A counter left without an expiry gets
// one on the next hit, so a window always ends.
func (r *Redis) Allow(ctx context.Context, key string, limit int, span time.Duration) Decision {
	if limit <= 0 {
		return Decision{Allowed: true}
	}
	if span <= 0 {
		span = time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	redisKey := r.prefix + key
	var (
		incr *redis.IntCmd
		ttl  *redis.DurationCmd
	)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		ttl = pipe.TTL(ctx, redisKey)
		return nil
	})
	if err != nil {
		r.logger.Error("redis rate limiter error", "op", "incr", "error", err)
		return Decision{Allowed: true}
	}

	count := incr.Val()
	remaining := ttl.Val()
	if remaining < 0 {
		if err := r.client.Expire(ctx, redisKey, span).Err(); err != nil {
			r.logger.Error("redis rate limiter error", "op", "expire", "error", err)
		}
		remaining = span
	}
	return Decision{
		Allowed: int(count) <= limit,
		Count:   int(count),
		ResetAt: time.Now().Add(remaining),
	}
}

// Close releases the client.
func (r *Redis) Close() error {
	return r.client.Close()
}
