package appfx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"go.uber.org/fx"
	"jamesfarrell.me/youtube-rag/internal/chunker"
	"jamesfarrell.me/youtube-rag/internal/config"
	"jamesfarrell.me/youtube-rag/internal/embeddings"
	"jamesfarrell.me/youtube-rag/internal/index"
	"jamesfarrell.me/youtube-rag/internal/llm"
	"jamesfarrell.me/youtube-rag/internal/rag"
	"jamesfarrell.me/youtube-rag/internal/storage/db"
	"jamesfarrell.me/youtube-rag/internal/storage/postgres"
	"jamesfarrell.me/youtube-rag/internal/transcription"
)

const connectTimeout = 10 * time.Second

func NewTranscriptService(cfg *config.AppConfig, logger *slog.Logger) *transcription.Service {
	client := &http.Client{Timeout: cfg.Transcript.Timeout()}
	return transcription.NewService(transcription.Config{
		BaseURL:   cfg.Transcript.BaseURL,
		Languages: cfg.Transcript.Languages,
	}, client, logger.With(slog.String("component", "transcription")))
}

func NewSplitter(cfg *config.AppConfig) (*chunker.Splitter, error) {
	return chunker.New(cfg.Chunker.Size, cfg.Chunker.Overlap)
}

// NewEmbedder picks OpenAI or the local hashing embedder from config.
func NewEmbedder(cfg *config.AppConfig, logger *slog.Logger) (embeddings.Embedder, error) {
	switch kind := cfg.ResolvedEmbedderType(); kind {
	case config.EmbedderOpenAI:
		key := cfg.Embedder.APIKey()
		if key == "" {
			return nil, fmt.Errorf("embedder type openai requires %s", cfg.Embedder.APIKeyEnv)
		}
		e := embeddings.NewOpenAI(embeddings.OpenAIConfig{
			APIKey:     key,
			BaseURL:    cfg.Embedder.BaseURL,
			Model:      cfg.Embedder.Model,
			BatchSize:  cfg.Embedder.BatchSize,
			HTTPClient: &http.Client{Timeout: cfg.Embedder.Timeout()},
		})
		logger.Info("using OpenAI embeddings", slog.String("model", e.ModelName()))
		return e, nil
	case config.EmbedderLocal:
		logger.Info("using local hashing embeddings", slog.Int("dim", cfg.Embedder.Dimension))
		return embeddings.NewLocal(cfg.Embedder.Dimension), nil
	default:
		return nil, fmt.Errorf("unknown embedder type %q", kind)
	}
}

// BackendParams represents dependencies for the index backend
type BackendParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.AppConfig
	Logger    *slog.Logger
}

// NewBackend opens the configured index backend. The pgvector backend
// deletes its rows and closes the database when the app stops.
func NewBackend(params BackendParams) (index.Backend, error) {
	cfg := params.Config
	switch cfg.Index.Backend {
	case config.BackendMemory:
		return index.NewMemoryBackend(), nil
	case config.BackendPGVector:
	default:
		return nil, fmt.Errorf("unknown index backend %q", cfg.Index.Backend)
	}

	url, err := cfg.Index.DatabaseURL(os.Getenv)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	conn, err := db.NewConnection(ctx, db.Config{URL: url}, params.Logger)
	if err != nil {
		return nil, err
	}
	repo := postgres.NewChunkRepository(conn)
	if err := repo.EnsureSchema(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	backend := index.NewPGVectorBackend(repo, params.Logger)
	params.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return errors.Join(backend.Close(ctx), conn.Close())
		},
	})
	return backend, nil
}

func NewEngine(embedder embeddings.Embedder, backend index.Backend, logger *slog.Logger) *index.Engine {
	return index.NewEngine(embedder, backend, logger)
}

func NewGenerator(cfg *config.AppConfig, logger *slog.Logger) *llm.Generator {
	return llm.NewGenerator(llm.Config{
		APIKey:      cfg.Generator.APIKey(),
		BaseURL:     cfg.Generator.BaseURL,
		Model:       cfg.Generator.Model,
		Temperature: cfg.Generator.Temperature,
		MaxTokens:   cfg.Generator.MaxTokens,
		HTTPClient:  &http.Client{Timeout: cfg.Generator.Timeout()},
	}, logger.With(slog.String("component", "llm")))
}

// RAGParams represents dependencies for the question answering service
type RAGParams struct {
	fx.In

	Lifecycle   fx.Lifecycle
	Config      *config.AppConfig
	Logger      *slog.Logger
	Transcripts *transcription.Service
	Splitter    *chunker.Splitter
	Engine      *index.Engine
	Generator   *llm.Generator
}

func NewRAGService(params RAGParams) (*rag.Service, error) {
	svc, err := rag.NewService(
		params.Transcripts,
		params.Splitter,
		params.Engine,
		params.Generator,
		rag.Options{
			TopK:         params.Config.Index.TopK,
			HistoryTurns: params.Config.Index.HistoryTurns,
			CacheSize:    params.Config.Index.CacheSize,
		},
		params.Logger.With(slog.String("component", "rag")),
	)
	if err != nil {
		return nil, err
	}
	params.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error { return svc.Close() },
	})
	return svc, nil
}

// CoreModule provides the question answering pipeline
var CoreModule = fx.Module("core",
	fx.Provide(
		NewTranscriptService,
		NewSplitter,
		NewEmbedder,
		NewBackend,
		NewEngine,
		NewGenerator,
		NewRAGService,
	),
)
