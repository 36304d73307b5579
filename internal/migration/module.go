package migration

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/npek/portal/internal/config"
	"github.com/npek/portal/internal/database"
)

// Module provides migration-related dependencies
func Module() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				func(config *config.AppConfig, manager *database.Manager) (*Migrator, error) {
					sqlDB, err := manager.DB().DB()
					if err != nil {
						return nil, err
					}
					return NewMigrator(sqlDB, config.Database.Driver), nil
				},
			),
		),
		fx.Invoke(registerHooks),
	)
}

func registerHooks(
	lifecycle fx.Lifecycle,
	migrator *Migrator,
	logger *zap.Logger,
) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			// Get current version before migration
			currentVersion, err := migrator.GetCurrentVersion()
			if err != nil {
				return fmt.Errorf("failed to get current migration version: %w", err)
			}

			// Get latest available version
			latestVersion, err := migrator.GetLatestVersion()
			if err != nil {
				return fmt.Errorf("failed to get latest migration version: %w", err)
			}

			logger.Info("database migration status",
				zap.Int64("current_version", currentVersion),
				zap.Int64("latest_version", latestVersion))

			if currentVersion == latestVersion {
				return nil
			}

			if currentVersion > latestVersion {
				logger.Info("downgrading database schema",
					zap.Int64("from_version", currentVersion),
					zap.Int64("to_version", latestVersion))

				if err := migrator.DownTo(latestVersion); err != nil {
					return fmt.Errorf("failed to downgrade database: %w", err)
				}
				return nil
			}

			logger.Info("upgrading database schema",
				zap.Int64("from_version", currentVersion),
				zap.Int64("to_version", latestVersion))

			if err := migrator.Up(); err != nil {
				return fmt.Errorf("failed to upgrade database: %w", err)
			}

			return nil
		},
	})
}
