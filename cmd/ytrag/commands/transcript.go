package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"jamesfarrell.me/youtube-rag/internal/storage/models"
	"jamesfarrell.me/youtube-rag/internal/transcription"
)

func NewTranscriptCommand(configPath *string) *cobra.Command {
	var cues bool

	cmd := &cobra.Command{
		Use:   "transcript [video]",
		Short: "Print the transcript of a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			videoID := models.ExtractVideoID(args[0])
			if videoID == "" {
				return fmt.Errorf("%q is not a YouTube video id or URL", args[0])
			}

			var svc *transcription.Service
			return runApp(cmd.Context(), *configPath, func(ctx context.Context) error {
				out := cmd.OutOrStdout()
				if !cues {
					text, err := svc.Fetch(ctx, videoID)
					if err != nil {
						return err
					}
					fmt.Fprintln(out, text)
					return nil
				}

				list, err := svc.Cues(ctx, videoID)
				if err != nil {
					return err
				}
				for _, c := range list {
					fmt.Fprintf(out, "%s --> %s  %s\n", formatCueTime(c.Start), formatCueTime(c.End), c.Text())
				}
				return nil
			}, fx.Populate(&svc))
		},
	}

	cmd.Flags().BoolVar(&cues, "cues", false, "print timed cues instead of plain text")
	return cmd
}

func formatCueTime(d time.Duration) string {
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	d -= s * time.Second
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, d/time.Millisecond)
}
