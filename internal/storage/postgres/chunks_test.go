package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jamesfarrell.me/youtube-rag/internal/storage/db"
	"jamesfarrell.me/youtube-rag/internal/storage/models"
)

func newTestRepository(t *testing.T) *ChunkRepository {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	conn, err := db.NewConnection(ctx, db.Config{URL: url}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	repo := NewChunkRepository(conn)
	require.NoError(t, repo.EnsureSchema(ctx))
	return repo
}

func TestChunkRepositoryRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	id := uuid.New()
	t.Cleanup(func() { _ = repo.DeleteIndexes(context.Background(), id) })

	chunks := []models.Chunk{
		{Ordinal: 0, Text: "about cats", StartPosition: 0, EndPosition: 10},
		{Ordinal: 1, Text: "about dogs", StartPosition: 8, EndPosition: 18},
		{Ordinal: 2, Text: "about birds", StartPosition: 16, EndPosition: 27},
	}
	vectors := [][]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	require.NoError(t, repo.SaveChunks(ctx, id, "video-1", chunks, vectors))

	n, err := repo.CountChunks(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	hits, err := repo.Search(ctx, id, []float32{0.1, 1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "about dogs", hits[0].Chunk.Text)
	assert.Equal(t, "video-1", hits[0].VideoID)
	assert.Equal(t, 8, hits[0].Chunk.StartPosition)
	assert.Greater(t, hits[0].Similarity, hits[1].Similarity)

	require.NoError(t, repo.DeleteIndexes(ctx, id))
	n, err = repo.CountChunks(ctx, id)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestChunkRepositoryIsolatesIndexes(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	a, b := uuid.New(), uuid.New()
	t.Cleanup(func() { _ = repo.DeleteIndexes(context.Background(), a, b) })

	require.NoError(t, repo.SaveChunks(ctx, a, "same-video", []models.Chunk{{Text: "old"}}, [][]float32{{1, 0}}))
	require.NoError(t, repo.SaveChunks(ctx, b, "same-video", []models.Chunk{{Text: "new"}}, [][]float32{{1, 0}}))

	hits, err := repo.Search(ctx, b, []float32{1, 0}, 4)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "new", hits[0].Chunk.Text)
}

func TestSaveChunksRejectsMismatchedVectors(t *testing.T) {
	repo := NewChunkRepository(nil)
	err := repo.SaveChunks(context.Background(), uuid.New(), "v", []models.Chunk{{Text: "x"}}, nil)
	assert.Error(t, err)
}
