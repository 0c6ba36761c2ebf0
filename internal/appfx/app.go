package appfx

import "go.uber.org/fx"

// Module combines configuration and the question answering pipeline.
var Module = fx.Options(
	ConfigModule,
	CoreModule,
)

// NewApp builds an app from the config at path plus any extra options.
func NewApp(path string, opts ...fx.Option) *fx.App {
	return fx.New(
		Module,
		ConfigPath(path),
		Logging,
		fx.Options(opts...),
	)
}
