package index

import (
	"cmp"
	"context"
	"math"
	"slices"

	"jamesfarrell.me/youtube-rag/internal/storage/models"
)

type item struct {
	chunk models.Chunk
	vec   []float32
}

// MemoryBackend keeps every index in process memory.
type MemoryBackend struct{}

func NewMemoryBackend() *MemoryBackend { return &MemoryBackend{} }

func (b *MemoryBackend) Name() string { return "memory" }

func (b *MemoryBackend) Create(_ context.Context, videoID string, chunks []models.Chunk, vectors [][]float32) (Index, error) {
	items := make([]item, len(chunks))
	for i, c := range chunks {
		items[i] = item{chunk: c, vec: vectors[i]}
	}
	return &memoryIndex{videoID: videoID, items: items}, nil
}

// memoryIndex is immutable after creation, so concurrent searches need no lock.
type memoryIndex struct {
	videoID string
	items   []item
}

func (m *memoryIndex) VideoID() string { return m.videoID }

func (m *memoryIndex) Len() int { return len(m.items) }

func (m *memoryIndex) Close() error { return nil }

func (m *memoryIndex) Search(_ context.Context, query []float32, k int) ([]models.SearchResult, error) {
	scored := make([]models.SearchResult, len(m.items))
	for i, it := range m.items {
		scored[i] = models.SearchResult{
			VideoID:    m.videoID,
			Chunk:      it.chunk,
			Similarity: cosine(it.vec, query),
		}
	}
	// Ties keep chunk order.
	slices.SortStableFunc(scored, func(a, b models.SearchResult) int {
		return cmp.Compare(b.Similarity, a.Similarity)
	})
	if k < len(scored) {
		scored = scored[:k]
	}
	return scored, nil
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := 0; i < len(a) && i < len(b); i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	den := math.Sqrt(na) * math.Sqrt(nb)
	if den == 0 {
		return 0
	}
	return dot / den
}
