package web

import (
	"go.uber.org/fx"

	"github.com/npek/portal/internal/api"
)

func Module() fx.Option {
	return fx.Options(
		fx.Provide(
			NewRenderer,
			fx.Annotate(
				NewPages,
				fx.As(new(api.Routes)),
				fx.ResultTags(`group:"routes"`),
			),
		),
	)
}
