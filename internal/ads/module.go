package ads

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/faridz/amlak/internal/auth"
	"github.com/faridz/amlak/internal/storage"
)

// NewModule returns the ads module options
func NewModule() fx.Option {
	return fx.Options(
		fx.Provide(
			// Provide repository
			fx.Annotate(
				func(db *gorm.DB) Repository {
					return NewRepository(db)
				},
			),
			// The guard's view of the ad store
			fx.Annotate(
				func(repo Repository) auth.AdFinder {
					return repo
				},
			),
			// Provide service
			fx.Annotate(
				func(log *zap.Logger, repo Repository, guard *auth.Guard) *Service {
					return NewService(log, repo, guard)
				},
			),
			// Provide handler
			fx.Annotate(
				func(svc *Service, images storage.ImageStore, log *zap.Logger) *Handler {
					return NewHandler(svc, images, log)
				},
			),
		),
	)
}
