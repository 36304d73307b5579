package app

import (
	"context"
	"os"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/npek/portal/internal/access"
	"github.com/npek/portal/internal/auth"
	"github.com/npek/portal/internal/bot"
	"github.com/npek/portal/internal/database"
	"github.com/npek/portal/internal/delivery"
	"github.com/npek/portal/internal/migration"
	"github.com/npek/portal/internal/server"
	"github.com/npek/portal/internal/user"
	"github.com/npek/portal/internal/web"
)

// Module combines all application modules
func Module() fx.Option {
	return fx.Options(
		// Logger
		fx.Provide(newLogger),

		// Configuration
		fx.Provide(server.LoadConfig),

		// Storage
		database.Module(),
		migration.Module(),

		// Domain
		user.NewModule(),
		delivery.Module(),
		web.Module(),
		auth.NewModule(),
		access.Module(),

		// Telegram
		bot.Module(),

		// Server
		fx.Provide(server.NewServer),

		// Start the server
		fx.Invoke(registerHooks),
	)
}

func newLogger() (*zap.Logger, error) {
	env := os.Getenv("APP_ENV")
	return server.NewLogger(env)
}

func registerHooks(
	lifecycle fx.Lifecycle,
	srv *server.Server,
	log *zap.Logger,
) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return srv.Start()
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down server...")
			return srv.Stop(ctx)
		},
	})
}
