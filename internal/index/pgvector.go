package index

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"jamesfarrell.me/youtube-rag/internal/storage/models"
)

const releaseTimeout = 5 * time.Second

// ChunkStore is the persistence the pgvector backend needs;
// *postgres.ChunkRepository satisfies it.
type ChunkStore interface {
	SaveChunks(ctx context.Context, indexID uuid.UUID, videoID string, chunks []models.Chunk, vectors [][]float32) error
	Search(ctx context.Context, indexID uuid.UUID, query []float32, k int) ([]models.SearchResult, error)
	DeleteIndexes(ctx context.Context, indexIDs ...uuid.UUID) error
}

// PGVectorBackend keeps index rows in PostgreSQL. Rows live only as long as
// the index that wrote them: closing an index deletes its rows and Close
// deletes whatever is left when the process stops.
type PGVectorBackend struct {
	store  ChunkStore
	logger *slog.Logger

	mu   sync.Mutex
	live map[uuid.UUID]struct{}
}

func NewPGVectorBackend(store ChunkStore, logger *slog.Logger) *PGVectorBackend {
	if logger == nil {
		logger = slog.Default()
	}
	return &PGVectorBackend{
		store:  store,
		logger: logger,
		live:   make(map[uuid.UUID]struct{}),
	}
}

func (b *PGVectorBackend) Name() string { return "pgvector" }

func (b *PGVectorBackend) Create(ctx context.Context, videoID string, chunks []models.Chunk, vectors [][]float32) (Index, error) {
	id := uuid.New()
	if len(chunks) > 0 {
		if err := b.store.SaveChunks(ctx, id, videoID, chunks, vectors); err != nil {
			return nil, err
		}
	}

	b.mu.Lock()
	b.live[id] = struct{}{}
	b.mu.Unlock()

	return &pgIndex{backend: b, id: id, videoID: videoID, n: len(chunks)}, nil
}

// Close deletes the rows of every index that has not been closed yet.
func (b *PGVectorBackend) Close(ctx context.Context) error {
	b.mu.Lock()
	ids := make([]uuid.UUID, 0, len(b.live))
	for id := range b.live {
		ids = append(ids, id)
	}
	b.live = make(map[uuid.UUID]struct{})
	b.mu.Unlock()

	if err := b.store.DeleteIndexes(ctx, ids...); err != nil {
		return fmt.Errorf("release %d indexes: %w", len(ids), err)
	}
	return nil
}

func (b *PGVectorBackend) release(id uuid.UUID) error {
	b.mu.Lock()
	_, ok := b.live[id]
	delete(b.live, id)
	b.mu.Unlock()
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()
	return b.store.DeleteIndexes(ctx, id)
}

type pgIndex struct {
	backend *PGVectorBackend
	id      uuid.UUID
	videoID string
	n       int
}

func (p *pgIndex) VideoID() string { return p.videoID }

func (p *pgIndex) Len() int { return p.n }

func (p *pgIndex) Search(ctx context.Context, query []float32, k int) ([]models.SearchResult, error) {
	return p.backend.store.Search(ctx, p.id, query, k)
}

func (p *pgIndex) Close() error {
	if err := p.backend.release(p.id); err != nil {
		p.backend.logger.Warn("failed to release index rows",
			slog.String("video_id", p.videoID),
			slog.String("index_id", p.id.String()),
			slog.Any("err", err))
		return err
	}
	return nil
}
