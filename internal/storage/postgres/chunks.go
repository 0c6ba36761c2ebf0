package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"jamesfarrell.me/youtube-rag/internal/storage/models"
)

const schemaSQL = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS transcript_chunks (
	index_id    uuid    NOT NULL,
	video_id    text    NOT NULL,
	ordinal     integer NOT NULL,
	chunk_text  text    NOT NULL,
	chunk_start integer NOT NULL,
	chunk_end   integer NOT NULL,
	embedding   vector  NOT NULL,
	PRIMARY KEY (index_id, ordinal)
);
`

// ChunkRepository stores embedded transcript chunks in a pgvector table.
// Rows are grouped by index id so a rebuilt index never sees rows of the
// one it replaced.
type ChunkRepository struct {
	db *sql.DB
}

func NewChunkRepository(db *sql.DB) *ChunkRepository {
	return &ChunkRepository{db: db}
}

func (r *ChunkRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (r *ChunkRepository) SaveChunks(ctx context.Context, indexID uuid.UUID, videoID string, chunks []models.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("got %d vectors for %d chunks", len(vectors), len(chunks))
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transcript_chunks (index_id, video_id, ordinal, chunk_text, chunk_start, chunk_end, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`)
	if err != nil {
		return fmt.Errorf("prepare statement failed: %w", err)
	}
	defer stmt.Close()

	for i, chunk := range chunks {
		_, err = stmt.ExecContext(ctx,
			indexID,
			videoID,
			chunk.Ordinal,
			chunk.Text,
			chunk.StartPosition,
			chunk.EndPosition,
			pgvector.NewVector(vectors[i]),
		)
		if err != nil {
			return fmt.Errorf("chunk insert failed: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit chunks: %w", err)
	}
	return nil
}

// Search orders by cosine distance; ties fall back to chunk order.
func (r *ChunkRepository) Search(ctx context.Context, indexID uuid.UUID, query []float32, k int) ([]models.SearchResult, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT video_id, ordinal, chunk_text, chunk_start, chunk_end, 1 - (embedding <=> $2) AS similarity
		FROM transcript_chunks
		WHERE index_id = $1
		ORDER BY embedding <=> $2, ordinal
		LIMIT $3
	`, indexID, pgvector.NewVector(query), k)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}
	defer rows.Close()

	results := []models.SearchResult{}
	for rows.Next() {
		var res models.SearchResult
		if err := rows.Scan(
			&res.VideoID,
			&res.Chunk.Ordinal,
			&res.Chunk.Text,
			&res.Chunk.StartPosition,
			&res.Chunk.EndPosition,
			&res.Similarity,
		); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}
	return results, nil
}

func (r *ChunkRepository) CountChunks(ctx context.Context, indexID uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM transcript_chunks WHERE index_id = $1`, indexID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return n, nil
}

func (r *ChunkRepository) DeleteIndexes(ctx context.Context, indexIDs ...uuid.UUID) error {
	if len(indexIDs) == 0 {
		return nil
	}
	ids := make([]string, len(indexIDs))
	for i, id := range indexIDs {
		ids[i] = id.String()
	}
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM transcript_chunks WHERE index_id = ANY($1::uuid[])`, pq.Array(ids)); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	return nil
}
