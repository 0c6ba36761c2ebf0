package commands

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"jamesfarrell.me/youtube-rag/internal/appfx"
)

func NewRootCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:          "ytrag",
		Short:        "Answer questions about YouTube videos from their transcripts",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "YAML config file (optional)")

	cmd.AddCommand(
		NewServeCommand(&configPath),
		NewAskCommand(&configPath),
		NewTranscriptCommand(&configPath),
		NewMCPCommand(&configPath),
	)
	return cmd
}

// runApp starts an app built from the config, runs fn and stops the app
// again whatever fn returns.
func runApp(ctx context.Context, configPath string, fn func(context.Context) error, opts ...fx.Option) (err error) {
	app := appfx.NewApp(configPath, opts...)
	if err := app.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), app.StopTimeout())
		defer cancel()
		if stopErr := app.Stop(stopCtx); stopErr != nil && err == nil {
			err = stopErr
		}
	}()
	return fn(ctx)
}
