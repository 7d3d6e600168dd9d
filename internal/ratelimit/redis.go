package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	redis "github.com/redis/go-redis/v9"
)

type redisLimiter struct {
	client  *redis.Client
	prefix  string
	timeout time.Duration
}

// NewRedis returns a limiter backed by Redis INCR/EXPIRE, so the window is
// shared across replicas. Redis failures fail open: an unreachable backend
// never blocks requests.
func NewRedis(addr, password string, db int) (Limiter, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ratelimit: redis ping %s: %w", addr, err)
	}
	return &redisLimiter{
		client:  client,
		prefix:  "telemetry:ratelimit:",
		timeout: 250 * time.Millisecond,
	}, nil
}

func (l *redisLimiter) Allow(key string, limit int, window time.Duration) Decision {
	if limit <= 0 {
		return Decision{Allowed: true}
	}
	if window <= 0 {
		window = time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	redisKey := l.prefix + key
	counter, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		slog.Error("ratelimit: redis incr failed — allowing request", "err", err)
		return Decision{Allowed: true}
	}
	if counter == 1 {
		if err := l.client.Expire(ctx, redisKey, window).Err(); err != nil {
			slog.Error("ratelimit: redis expire failed", "err", err)
		}
	}
	ttl, err := l.client.TTL(ctx, redisKey).Result()
	if err != nil || ttl <= 0 {
		ttl = window
	}
	return Decision{
		Allowed:   int(counter) <= limit,
		Count:     int(counter),
		WindowEnd: time.Now().Add(ttl),
	}
}

func (l *redisLimiter) Close() {
	_ = l.client.Close()
}
