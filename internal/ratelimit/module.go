package ratelimit

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/faridz/amlak/internal/config"
)

const defaultWindow = 15 * time.Minute

func Module() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				func(cfg *config.AppConfig) *redis.Client {
					return redis.NewClient(&redis.Options{
						Addr:     cfg.Redis.Addr,
						Password: cfg.Redis.Password,
						DB:       cfg.Redis.DB,
					})
				},
			),
			fx.Annotate(
				func(client *redis.Client) Counter {
					return NewRedisCounter(client)
				},
			),
			fx.Annotate(
				func(cfg *config.AppConfig, counter Counter, log *zap.Logger) *Limiter {
					window := cfg.RateLimit.WindowDuration
					if window <= 0 {
						window = defaultWindow
					}
					return NewLimiter(counter, log, window)
				},
			),
		),
		fx.Invoke(registerHooks),
	)
}

func registerHooks(lifecycle fx.Lifecycle, client *redis.Client, log *zap.Logger) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				log.Warn("redis unreachable, rate limiting degraded", zap.Error(err))
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Closing redis connection")
			return client.Close()
		},
	})
}
