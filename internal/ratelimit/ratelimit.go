package ratelimit

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/faridz/amlak/internal/api"
)

// Counter is the slice of redis the limiter needs. Incr must create the key
// at 1 when absent.
type Counter interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

type redisCounter struct {
	client *redis.Client
}

func NewRedisCounter(client *redis.Client) Counter {
	return &redisCounter{client: client}
}

func (c *redisCounter) Incr(ctx context.Context, key string) (int64, error) {
	return c.client.Incr(ctx, key).Result()
}

func (c *redisCounter) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return c.client.Expire(ctx, key, ttl).Err()
}

// Limiter applies a fixed-window request cap per client IP. When the backing
// counter is unreachable the request passes; rate limiting degrades rather
// than taking login down with it.
type Limiter struct {
	counter Counter
	log     *zap.Logger
	window  time.Duration
}

func NewLimiter(counter Counter, log *zap.Logger, window time.Duration) *Limiter {
	return &Limiter{
		counter: counter,
		log:     log,
		window:  window,
	}
}

// Limit returns a middleware allowing at most max requests per window for
// the given route name.
func (l *Limiter) Limit(name string, max int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := fmt.Sprintf("ratelimit:%s:%s:%d", name, clientIP(r), time.Now().Unix()/int64(l.window.Seconds()))

			count, err := l.counter.Incr(r.Context(), key)
			if err != nil {
				l.log.Warn("rate limit counter unavailable", zap.String("route", name), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if count == 1 {
				if err := l.counter.Expire(r.Context(), key, l.window); err != nil {
					l.log.Warn("failed to set rate limit expiry", zap.String("key", key), zap.Error(err))
				}
			}

			if count > int64(max) {
				api.Error(w, http.StatusTooManyRequests, "too many attempts, please try again later")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP keys on RemoteAddr; the router's RealIP middleware has already
// resolved trusted forwarding headers into it, and reading them here again
// would let clients spoof their way to a fresh budget.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
