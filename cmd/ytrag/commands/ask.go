package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"jamesfarrell.me/youtube-rag/internal/rag"
	"jamesfarrell.me/youtube-rag/internal/storage/models"
)

// NewAskCommand answers one question from the command line.
func NewAskCommand(configPath *string) *cobra.Command {
	var (
		video    string
		question string
	)

	cmd := &cobra.Command{
		Use:   "ask",
		Short: "Ask a question about a video",
		RunE: func(cmd *cobra.Command, args []string) error {
			videoID := models.ExtractVideoID(video)
			if videoID == "" {
				return fmt.Errorf("--video must be a YouTube video id or URL")
			}
			if question == "" {
				return fmt.Errorf("--question is required")
			}

			var svc *rag.Service
			return runApp(cmd.Context(), *configPath, func(ctx context.Context) error {
				ans := svc.Answer(ctx, videoID, question, nil)
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, ans.Text)
				fmt.Fprintf(out, "\nconfidence: %.2f  chunks: %d\n", ans.Confidence, ans.ChunksRetrieved)
				return nil
			}, fx.Populate(&svc))
		},
	}

	cmd.Flags().StringVar(&video, "video", "", "video id or YouTube URL")
	cmd.Flags().StringVar(&question, "question", "What is this video about?", "question to ask")
	return cmd
}
