package access

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/npek/portal/internal/api"
	"github.com/npek/portal/internal/auth"
	"github.com/npek/portal/internal/config"
	"github.com/npek/portal/internal/web"
)

func Module() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				func(config *config.AppConfig) *Policy {
					return NewPolicy(&config.Content)
				},
			),
			func(p *Policy) web.Navigator {
				return p
			},
			fx.Annotate(
				func(policy *Policy, sessions *auth.SessionStore, render *web.Renderer, log *zap.Logger) *Handler {
					return NewHandler(policy, sessions, render, log)
				},
				fx.As(new(api.Routes)),
				fx.ResultTags(`group:"routes"`),
			),
		),
	)
}
