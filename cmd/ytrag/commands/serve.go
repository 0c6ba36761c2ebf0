package commands

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"jamesfarrell.me/youtube-rag/internal/appfx"
	"jamesfarrell.me/youtube-rag/internal/config"
)

// NewServeCommand runs the HTTP API until interrupted.
func NewServeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				cfg    *config.AppConfig
				logger *slog.Logger
			)
			app := appfx.NewApp(*configPath,
				appfx.HTTPModule,
				fx.Populate(&cfg, &logger),
			)

			ctx := cmd.Context()
			if err := app.Start(ctx); err != nil {
				return err
			}

			select {
			case <-ctx.Done():
			case sig := <-app.Wait():
				logger.Info("shutdown requested", slog.Any("signal", sig.Signal))
			}

			stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout())
			defer cancel()
			return app.Stop(stopCtx)
		},
	}
}
