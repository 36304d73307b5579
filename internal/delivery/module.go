package delivery

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/npek/portal/internal/config"
)

func Module() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				func(config *config.AppConfig, log *zap.Logger) (*TelegramSender, error) {
					return NewTelegramSender(&config.Bot, log)
				},
				fx.As(new(Sender)),
			),
		),
	)
}
