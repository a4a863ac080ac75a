package auth

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/faridz/amlak/internal/config"
)

// NewModule returns the auth module options
func NewModule() fx.Option {
	return fx.Options(
		fx.Provide(
			// Provide repository
			fx.Annotate(
				func(db *gorm.DB) Repository {
					return NewRepository(db)
				},
			),
			// Provide service
			fx.Annotate(
				func(config *config.AppConfig, log *zap.Logger, repo Repository) *Service {
					return NewService(&config.Auth, log, repo)
				},
			),
			// Provide guard
			fx.Annotate(
				func(ads AdFinder) *Guard {
					return NewGuard(ads)
				},
			),
			// Provide handler
			fx.Annotate(
				func(svc *Service, guard *Guard, log *zap.Logger) *Handler {
					return NewHandler(svc, guard, log)
				},
			),
			// Provide middleware
			fx.Annotate(
				func(config *config.AppConfig) *Middleware {
					return NewMiddleware(&config.Auth)
				},
			),
		),
	)
}
