package commands

import (
	"context"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"jamesfarrell.me/youtube-rag/internal/appfx"
)

// NewMCPCommand serves the MCP tools over stdio.
func NewMCPCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run MCP server",
		Long:  "Run an MCP stdio server exposing ask_video and get_transcript.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var s *server.MCPServer
			return runApp(cmd.Context(), *configPath, func(context.Context) error {
				return server.ServeStdio(s)
			}, appfx.MCPModule, fx.Populate(&s))
		},
	}
}
