package appfx

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/fx"
	appmcp "jamesfarrell.me/youtube-rag/internal/mcp"
	"jamesfarrell.me/youtube-rag/internal/rag"
)

func NewMCPServer(svc *rag.Service, logger *slog.Logger) *server.MCPServer {
	return appmcp.New(svc, logger.With(slog.String("component", "mcp")))
}

// MCPModule provides the MCP tool server
var MCPModule = fx.Module("mcp",
	fx.Provide(NewMCPServer),
)
