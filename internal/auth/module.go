package auth

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/npek/portal/internal/api"
	"github.com/npek/portal/internal/config"
	"github.com/npek/portal/internal/delivery"
	"github.com/npek/portal/internal/user"
	"github.com/npek/portal/internal/web"
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
			NewMetricsCollector,
			// Provide service
			fx.Annotate(
				func(
					config *config.AppConfig,
					log *zap.Logger,
					repo Repository,
					users *user.Service,
					sender delivery.Sender,
					metrics *MetricsCollector,
				) *Service {
					return NewService(&config.Auth, log, repo, users, sender, metrics)
				},
			),
			fx.Annotate(
				func(config *config.AppConfig) *SessionStore {
					return NewSessionStore(&config.Auth)
				},
			),
			// Provide middleware
			fx.Annotate(
				func(sessions *SessionStore, users *user.Service, log *zap.Logger) *SessionMiddleware {
					return NewSessionMiddleware(sessions, users, log)
				},
			),
			// Provide handler
			fx.Annotate(
				func(svc *Service, users *user.Service, sessions *SessionStore, render *web.Renderer, log *zap.Logger) *Handler {
					return NewHandler(svc, users, sessions, render, log)
				},
				fx.As(new(api.Routes)),
				fx.ResultTags(`group:"routes"`),
			),
			fx.Annotate(
				func(config *config.AppConfig, repo Repository, log *zap.Logger) *CleanupManager {
					return NewCleanupManager(&config.Auth, repo, log)
				},
			),
		),
		fx.Invoke(registerCleanup),
	)
}

func registerCleanup(lifecycle fx.Lifecycle, cm *CleanupManager) {
	ctx, cancel := context.WithCancel(context.Background())

	lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			return cm.Start(ctx)
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-cm.Stop().Done():
			case <-stopCtx.Done():
			}
			return nil
		},
	})
}
