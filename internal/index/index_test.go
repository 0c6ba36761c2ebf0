package index

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jamesfarrell.me/youtube-rag/internal/embeddings"
	"jamesfarrell.me/youtube-rag/internal/storage/models"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// axisEmbedder maps known words onto fixed axes so similarities are exact.
type axisEmbedder struct {
	axes  map[string][]float32
	calls int
	err   error
}

func (e *axisEmbedder) ModelName() string { return "axis" }

func (e *axisEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.axes[t]
	}
	return out, nil
}

func (e *axisEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func chunksOf(texts ...string) []models.Chunk {
	out := make([]models.Chunk, len(texts))
	for i, t := range texts {
		out[i] = models.Chunk{Ordinal: i, Text: t}
	}
	return out
}

func newAxisEmbedder() *axisEmbedder {
	return &axisEmbedder{axes: map[string][]float32{
		"cats":     {1, 0, 0},
		"dogs":     {0, 1, 0},
		"birds":    {0, 0, 1},
		"catdog":   {1, 1, 0},
		"cats too": {1, 0, 0},
		"q:cats":   {1, 0.1, 0},
	}}
}

func TestEngineSearchOrdersBySimilarity(t *testing.T) {
	emb := newAxisEmbedder()
	engine := NewEngine(emb, NewMemoryBackend(), quietLogger)
	ctx := context.Background()

	idx, err := engine.Build(ctx, "video-1", chunksOf("birds", "dogs", "catdog", "cats"))
	require.NoError(t, err)
	assert.Equal(t, 4, idx.Len())
	assert.Equal(t, "video-1", idx.VideoID())

	hits, err := engine.Search(ctx, idx, "q:cats", 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "cats", hits[0].Chunk.Text)
	assert.Equal(t, "catdog", hits[1].Chunk.Text)
	assert.Greater(t, hits[0].Similarity, hits[1].Similarity)
	assert.Equal(t, "video-1", hits[0].VideoID)
}

func TestEngineSearchReturnsAtMostK(t *testing.T) {
	engine := NewEngine(newAxisEmbedder(), NewMemoryBackend(), quietLogger)
	ctx := context.Background()

	idx, err := engine.Build(ctx, "v", chunksOf("cats", "dogs"))
	require.NoError(t, err)

	hits, err := engine.Search(ctx, idx, "q:cats", DefaultTopK)
	require.NoError(t, err)
	assert.Len(t, hits, 2)

	hits, err = engine.Search(ctx, idx, "q:cats", 0)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestEngineSearchTiesKeepChunkOrder(t *testing.T) {
	engine := NewEngine(newAxisEmbedder(), NewMemoryBackend(), quietLogger)
	ctx := context.Background()

	idx, err := engine.Build(ctx, "v", chunksOf("dogs", "cats", "cats too"))
	require.NoError(t, err)

	hits, err := engine.Search(ctx, idx, "cats", 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, 1, hits[0].Chunk.Ordinal)
	assert.Equal(t, 2, hits[1].Chunk.Ordinal)
}

func TestEngineEmptyIndex(t *testing.T) {
	emb := newAxisEmbedder()
	engine := NewEngine(emb, NewMemoryBackend(), quietLogger)
	ctx := context.Background()

	idx, err := engine.Build(ctx, "v", nil)
	require.NoError(t, err)
	assert.Zero(t, idx.Len())

	hits, err := engine.Search(ctx, idx, "anything", DefaultTopK)
	require.NoError(t, err)
	assert.NotNil(t, hits)
	assert.Empty(t, hits)
	assert.Zero(t, emb.calls)
}

func TestEngineBuildEmbedError(t *testing.T) {
	emb := newAxisEmbedder()
	emb.err = errors.New("quota exceeded")
	engine := NewEngine(emb, NewMemoryBackend(), quietLogger)

	_, err := engine.Build(context.Background(), "v", chunksOf("cats"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestEngineWithLocalEmbedder(t *testing.T) {
	engine := NewEngine(embeddings.NewLocal(256), NewMemoryBackend(), quietLogger)
	ctx := context.Background()

	idx, err := engine.Build(ctx, "v", chunksOf(
		"today we bake sourdough bread with a long cold ferment",
		"the goroutine scheduler multiplexes goroutines onto threads",
		"our guest talks about mountain biking in the alps",
	))
	require.NoError(t, err)

	hits, err := engine.Search(ctx, idx, "how does the goroutine scheduler work", 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, 1, hits[0].Chunk.Ordinal)
}

type fakeChunkStore struct {
	mu      sync.Mutex
	rows    map[uuid.UUID][]models.Chunk
	deleted []uuid.UUID
}

func newFakeChunkStore() *fakeChunkStore {
	return &fakeChunkStore{rows: make(map[uuid.UUID][]models.Chunk)}
}

func (f *fakeChunkStore) SaveChunks(_ context.Context, id uuid.UUID, _ string, chunks []models.Chunk, _ [][]float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[id] = chunks
	return nil
}

func (f *fakeChunkStore) Search(_ context.Context, id uuid.UUID, _ []float32, k int) ([]models.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.SearchResult
	for _, c := range f.rows[id] {
		if len(out) == k {
			break
		}
		out = append(out, models.SearchResult{Chunk: c})
	}
	return out, nil
}

func (f *fakeChunkStore) DeleteIndexes(_ context.Context, ids ...uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		delete(f.rows, id)
		f.deleted = append(f.deleted, id)
	}
	return nil
}

func TestPGVectorBackendLifecycle(t *testing.T) {
	store := newFakeChunkStore()
	backend := NewPGVectorBackend(store, quietLogger)
	engine := NewEngine(newAxisEmbedder(), backend, quietLogger)
	ctx := context.Background()

	first, err := engine.Build(ctx, "v1", chunksOf("cats", "dogs"))
	require.NoError(t, err)
	second, err := engine.Build(ctx, "v2", chunksOf("birds"))
	require.NoError(t, err)
	assert.Len(t, store.rows, 2)

	hits, err := engine.Search(ctx, first, "q:cats", 4)
	require.NoError(t, err)
	assert.Len(t, hits, 2)

	require.NoError(t, first.Close())
	require.NoError(t, first.Close())
	assert.Len(t, store.rows, 1)
	assert.Len(t, store.deleted, 1)

	require.NoError(t, backend.Close(ctx))
	assert.Empty(t, store.rows)
	assert.Len(t, store.deleted, 2)

	// Already released by the backend.
	require.NoError(t, second.Close())
	assert.Len(t, store.deleted, 2)
}
