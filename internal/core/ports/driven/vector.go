package driven

import (
	"context"

	"github.com/strata-labs/skimmer/internal/core/domain"
)

// ChunkVectorStore persists chunks and their embedding vectors,
// filterable by the metadata mirrored from the parent document.
//
// The store is a derived projection of the DocumentStore: chunk sets
// are always replaced whole, never patched, and can be rebuilt from
// document content alone after a partial failure.
type ChunkVectorStore interface {
	// ReplaceChunks atomically deletes all chunks for the document and
	// inserts the given set. Chunk indices must be contiguous from 0.
	ReplaceChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error

	// GetChunks returns all chunks for a document ordered by index.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// SetVectors stores embedding vectors for chunks and clears their
	// retry flag. vectors is keyed by chunk ID.
	SetVectors(ctx context.Context, vectors map[string][]float32) error

	// FlagForRetry marks chunks for a later embedding sweep after the
	// bounded retry budget was exhausted.
	FlagForRetry(ctx context.Context, chunkIDs []string) error

	// ListNeedingEmbedding returns chunks without vectors (pending or
	// flagged), grouped by document, up to limit chunks.
	ListNeedingEmbedding(ctx context.Context, limit int) ([]domain.Chunk, error)

	// DeleteChunks removes all chunks for a document.
	DeleteChunks(ctx context.Context, documentID string) error
}
