package appfx

import (
	"log/slog"
	"os"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"jamesfarrell.me/youtube-rag/internal/config"
	"jamesfarrell.me/youtube-rag/internal/logging"
)

// ConfigParams represents the parameters needed to load configuration
type ConfigParams struct {
	fx.In

	Path string `name:"configPath" optional:"true"`
}

func NewConfig(params ConfigParams) (*config.AppConfig, error) {
	return config.Load(params.Path)
}

func NewLogger(cfg *config.AppConfig) (*slog.Logger, error) {
	logger, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return logger, nil
}

// ConfigModule provides the application config and logger
var ConfigModule = fx.Module("config",
	fx.Provide(NewConfig, NewLogger),
)

// ConfigPath supplies the YAML config path read by ConfigModule.
func ConfigPath(path string) fx.Option {
	return fx.Supply(fx.Annotate(path, fx.ResultTags(`name:"configPath"`)))
}

// Logging routes fx's own events through the application logger.
var Logging = fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
	l := &fxevent.SlogLogger{Logger: logger}
	l.UseLogLevel(slog.LevelDebug)
	return l
})
