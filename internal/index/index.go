// Package index builds per-video similarity indexes over transcript chunks
// and answers top-k queries against them.
package index

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"jamesfarrell.me/youtube-rag/internal/embeddings"
	"jamesfarrell.me/youtube-rag/internal/storage/models"
)

const DefaultTopK = 4

// Index is a searchable set of embedded chunks for one video.
type Index interface {
	VideoID() string
	Len() int
	Search(ctx context.Context, query []float32, k int) ([]models.SearchResult, error)
	// Close releases whatever the backend holds for this index.
	Close() error
}

// Backend stores embedded chunks and hands back an Index over them.
type Backend interface {
	Name() string
	Create(ctx context.Context, videoID string, chunks []models.Chunk, vectors [][]float32) (Index, error)
}

type Engine struct {
	embedder embeddings.Embedder
	backend  Backend
	logger   *slog.Logger
}

func NewEngine(embedder embeddings.Embedder, backend Backend, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{embedder: embedder, backend: backend, logger: logger}
}

// Build embeds chunks and stores them in the backend. Zero chunks produce an
// empty index without calling the embedder.
func (e *Engine) Build(ctx context.Context, videoID string, chunks []models.Chunk) (Index, error) {
	started := time.Now()

	var vectors [][]float32
	if len(chunks) > 0 {
		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Text
		}
		var err error
		vectors, err = e.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed chunks: %w", err)
		}
		if len(vectors) != len(chunks) {
			return nil, fmt.Errorf("embed chunks: got %d vectors for %d chunks", len(vectors), len(chunks))
		}
	}

	idx, err := e.backend.Create(ctx, videoID, chunks, vectors)
	if err != nil {
		return nil, fmt.Errorf("create %s index: %w", e.backend.Name(), err)
	}

	e.logger.Info("index built",
		slog.String("video_id", videoID),
		slog.String("backend", e.backend.Name()),
		slog.String("model", e.embedder.ModelName()),
		slog.Int("chunks", len(chunks)),
		slog.Duration("took", time.Since(started)))
	return idx, nil
}

// Search returns up to k chunks of idx ordered by descending similarity to
// question. An empty index or k < 1 yields an empty result.
func (e *Engine) Search(ctx context.Context, idx Index, question string, k int) ([]models.SearchResult, error) {
	if idx == nil || idx.Len() == 0 || k < 1 {
		return []models.SearchResult{}, nil
	}

	query, err := e.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	hits, err := idx.Search(ctx, query, k)
	if err != nil {
		return nil, fmt.Errorf("search %s index: %w", e.backend.Name(), err)
	}
	return hits, nil
}
