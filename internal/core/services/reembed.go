package services

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/strata-labs/skimmer/internal/core/domain"
	"github.com/strata-labs/skimmer/internal/core/ports/driven"
	"github.com/strata-labs/skimmer/internal/core/ports/driving"
	"github.com/strata-labs/skimmer/internal/logger"
)

// Reembed sweep defaults.
const (
	DefaultSweepLimit       = 512
	DefaultSweepConcurrency = 4
)

// Ensure ReembedService implements the interface.
var _ driving.Reembedder = (*ReembedService)(nil)

// ReembedService retries embedding for chunks left without vectors,
// either because their batch failed earlier or because the process
// died between chunking and embedding.
type ReembedService struct {
	docs        driven.DocumentStore
	vectors     driven.ChunkVectorStore
	service     driven.EmbeddingService
	batchSize   int
	sweepLimit  int
	concurrency int
}

// NewReembedService creates a reembed service. Non-positive limits
// fall back to defaults.
func NewReembedService(
	docs driven.DocumentStore,
	vectors driven.ChunkVectorStore,
	service driven.EmbeddingService,
	batchSize, sweepLimit, concurrency int,
) *ReembedService {
	if batchSize <= 0 {
		batchSize = DefaultEmbedBatchSize
	}
	if sweepLimit <= 0 {
		sweepLimit = DefaultSweepLimit
	}
	if concurrency <= 0 {
		concurrency = DefaultSweepConcurrency
	}
	return &ReembedService{
		docs:        docs,
		vectors:     vectors,
		service:     service,
		batchSize:   batchSize,
		sweepLimit:  sweepLimit,
		concurrency: concurrency,
	}
}

// Sweep finds chunks without vectors and embeds them, grouped by
// document with bounded concurrency across documents. A document whose
// batches all succeed and whose chunk set holds no further gaps is
// marked embedded. Per-document failures are logged and skipped; only
// context cancellation aborts the sweep.
func (s *ReembedService) Sweep(ctx context.Context) (int, error) {
	pending, err := s.vectors.ListNeedingEmbedding(ctx, s.sweepLimit)
	if err != nil {
		return 0, fmt.Errorf("list pending chunks: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	byDoc := make(map[string][]domain.Chunk)
	var order []string
	for _, chunk := range pending {
		if _, ok := byDoc[chunk.DocumentID]; !ok {
			order = append(order, chunk.DocumentID)
		}
		byDoc[chunk.DocumentID] = append(byDoc[chunk.DocumentID], chunk)
	}

	var embedded atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, docID := range order {
		docID := docID
		chunks := byDoc[docID]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			n := s.sweepDocument(gctx, docID, chunks)
			embedded.Add(int64(n))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return int(embedded.Load()), err
	}

	logger.Info("reembed sweep: %d/%d chunks embedded", embedded.Load(), len(pending))
	return int(embedded.Load()), nil
}

// sweepDocument embeds one document's pending chunks and marks the
// document embedded once no unembedded chunks remain.
func (s *ReembedService) sweepDocument(ctx context.Context, docID string, chunks []domain.Chunk) int {
	doc, err := s.docs.Get(ctx, docID)
	if err != nil {
		logger.Warn("reembed: load document %s: %v", docID, err)
		return 0
	}

	embedded, complete := embedAndStore(ctx, s.service, s.vectors, doc, chunks, s.batchSize)
	if !complete {
		return embedded
	}

	// The sweep batch may have covered only part of the document.
	all, err := s.vectors.GetChunks(ctx, docID)
	if err != nil {
		logger.Warn("reembed: load chunks for %s: %v", docID, err)
		return embedded
	}
	for _, chunk := range all {
		if chunk.Embedding == nil || chunk.NeedsEmbedding {
			return embedded
		}
	}

	if err := s.docs.MarkEmbedded(ctx, docID); err != nil {
		logger.Error("reembed: mark document %s embedded: %v", docID, err)
	}
	return embedded
}
