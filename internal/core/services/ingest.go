package services

import (
	"context"
	"fmt"

	"github.com/strata-labs/skimmer/internal/core/domain"
	"github.com/strata-labs/skimmer/internal/core/ports/driven"
	"github.com/strata-labs/skimmer/internal/core/ports/driving"
	"github.com/strata-labs/skimmer/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.Ingestor = (*IngestService)(nil)

// embedQueue is the slice of the Embedder the ingestor needs.
type embedQueue interface {
	Submit(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error
	Flush()
}

// IngestService turns extracted candidates into stored, chunked,
// embeddable documents.
type IngestService struct {
	docs     driven.DocumentStore
	vectors  driven.ChunkVectorStore
	pipeline driven.PostProcessorPipeline
	embedder embedQueue
}

// NewIngestService creates an ingest service. embedder may be nil, in
// which case chunks are stored unembedded and picked up by the reembed
// sweep.
func NewIngestService(
	docs driven.DocumentStore,
	vectors driven.ChunkVectorStore,
	pipeline driven.PostProcessorPipeline,
	embedder embedQueue,
) *IngestService {
	return &IngestService{
		docs:     docs,
		vectors:  vectors,
		pipeline: pipeline,
		embedder: embedder,
	}
}

// Ingest processes one candidate: normalise, upsert under its identity
// key, and on created or updated regenerate and persist the chunk set
// and queue it for embedding. A skipped upsert leaves storage
// untouched. Failures are scoped to this candidate.
func (s *IngestService) Ingest(ctx context.Context, candidate domain.Candidate) (domain.UpsertOutcome, error) {
	if err := candidate.Normalize(); err != nil {
		return domain.OutcomeFailed, err
	}

	outcome, stored, err := s.docs.Upsert(ctx, candidate.Document())
	if err != nil {
		return domain.OutcomeFailed,
			fmt.Errorf("%w: upsert %s: %v", domain.ErrStorage, candidate.IdentityKey(), err)
	}
	if outcome == domain.OutcomeSkipped {
		return outcome, nil
	}

	chunks, err := s.pipeline.Process(ctx, stored)
	if err != nil {
		return domain.OutcomeFailed, fmt.Errorf("chunk document %s: %w", stored.ID, err)
	}

	if err := s.vectors.ReplaceChunks(ctx, stored.ID, chunks); err != nil {
		return domain.OutcomeFailed,
			fmt.Errorf("%w: replace chunks for %s: %v", domain.ErrStorage, stored.ID, err)
	}

	// An enqueue failure is not a candidate failure: document and
	// chunks are persisted and the sweep will embed them later.
	if s.embedder != nil && len(chunks) > 0 {
		if err := s.embedder.Submit(ctx, stored, chunks); err != nil {
			logger.Warn("queue embedding for document %s: %v", stored.ID, err)
		}
	}

	logger.Debug("ingested %s: %s (%d chunks)", stored.Key, outcome, len(chunks))
	return outcome, nil
}

// Flush blocks until queued embedding work has drained.
func (s *IngestService) Flush() {
	if s.embedder != nil {
		s.embedder.Flush()
	}
}
