package storage

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/faridz/amlak/internal/config"
)

func Module() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				func(cfg *config.AppConfig, log *zap.Logger) (ImageStore, error) {
					return NewMinioStore(&cfg.Storage, log)
				},
			),
		),
	)
}
