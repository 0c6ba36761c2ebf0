package mcp

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"jamesfarrell.me/youtube-rag/internal/storage/models"
)

const (
	ServerName    = "youtube-rag/mcp"
	ServerVersion = "1.0.0"
)

// Service is the subset of the question-answering core exposed as tools.
type Service interface {
	Answer(ctx context.Context, videoID, question string, history []models.Turn) models.Answer
	Transcript(ctx context.Context, videoID string) (string, error)
}

type Server struct {
	service Service
	logger  *slog.Logger
}

// New returns an MCP server exposing ask_video and get_transcript.
func New(service Service, logger *slog.Logger) *server.MCPServer {
	srv := &Server{service: service, logger: logger}

	s := server.NewMCPServer(ServerName, ServerVersion, server.WithToolCapabilities(true))
	s.AddTool(newAskVideoTool(), srv.handleAskVideo)
	s.AddTool(newGetTranscriptTool(), srv.handleGetTranscript)
	return s
}

func newAskVideoTool() mcp.Tool {
	return mcp.NewTool(
		"ask_video",
		mcp.WithDescription("Answer a question about a YouTube video from its transcript"),
		mcp.WithString("video", mcp.Description("Video id or YouTube URL"), mcp.Required()),
		mcp.WithString("question", mcp.Description("Question about the video"), mcp.Required()),
	)
}

func newGetTranscriptTool() mcp.Tool {
	return mcp.NewTool(
		"get_transcript",
		mcp.WithDescription("Fetch the plain-text transcript of a YouTube video"),
		mcp.WithString("video", mcp.Description("Video id or YouTube URL"), mcp.Required()),
	)
}

func (srv *Server) handleAskVideo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	videoID, err := videoArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	question, err := req.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if srv.service == nil {
		return mcp.NewToolResultError("question answering service not initialized"), nil
	}

	ans := srv.service.Answer(ctx, videoID, question, nil)
	srv.logger.Debug("mcp ask_video", slog.String("video_id", videoID), slog.Float64("confidence", ans.Confidence))

	return mcp.NewToolResultStructuredOnly(map[string]any{
		"video_id":         videoID,
		"answer":           ans.Text,
		"confidence":       ans.Confidence,
		"chunks_retrieved": ans.ChunksRetrieved,
	}), nil
}

func (srv *Server) handleGetTranscript(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	videoID, err := videoArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if srv.service == nil {
		return mcp.NewToolResultError("question answering service not initialized"), nil
	}

	text, err := srv.service.Transcript(ctx, videoID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultStructuredOnly(map[string]any{
		"video_id":   videoID,
		"transcript": text,
	}), nil
}

func videoArg(req mcp.CallToolRequest) (string, error) {
	raw, err := req.RequireString("video")
	if err != nil {
		return "", err
	}
	id := models.ExtractVideoID(raw)
	if id == "" {
		return "", fmt.Errorf("not a YouTube video id or URL: %q", raw)
	}
	return id, nil
}
