package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/strata-labs/skimmer/internal/core/domain"
	"github.com/strata-labs/skimmer/internal/core/ports/driven"
	"github.com/strata-labs/skimmer/internal/logger"
)

// Embedding worker defaults.
const (
	DefaultEmbedWorkers   = 4
	DefaultEmbedBatchSize = 32
)

// Embedder generates vectors for freshly ingested chunks on a bounded
// worker pool, off the ingestion path. A batch that fails embedding is
// flagged for the reembed sweep rather than blocking the scrape; the
// parent document only gets its embedded_at timestamp once every chunk
// holds a vector.
type Embedder struct {
	docs      driven.DocumentStore
	vectors   driven.ChunkVectorStore
	service   driven.EmbeddingService
	batchSize int

	pool *ants.Pool
	wg   sync.WaitGroup
}

// NewEmbedder creates an embedder backed by a pool of workers.
// workers and batchSize fall back to defaults when non-positive.
func NewEmbedder(
	docs driven.DocumentStore,
	vectors driven.ChunkVectorStore,
	service driven.EmbeddingService,
	workers, batchSize int,
) (*Embedder, error) {
	if workers <= 0 {
		workers = DefaultEmbedWorkers
	}
	if batchSize <= 0 {
		batchSize = DefaultEmbedBatchSize
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("create embed pool: %w", err)
	}

	return &Embedder{
		docs:      docs,
		vectors:   vectors,
		service:   service,
		batchSize: batchSize,
		pool:      pool,
	}, nil
}

// Submit queues the document's chunks for embedding. The chunks must
// already be persisted; failures inside the job are flagged on the
// chunks, never returned to the caller.
func (e *Embedder) Submit(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	// The job outlives the submitting scrape iteration, whose context
	// is cancelled as soon as the iteration returns. Values (deadline
	// excluded) still flow through.
	jobCtx := context.WithoutCancel(ctx)

	e.wg.Add(1)
	err := e.pool.Submit(func() {
		defer e.wg.Done()
		e.embedDocument(jobCtx, doc, chunks)
	})
	if err != nil {
		e.wg.Done()
		return fmt.Errorf("submit embed job: %w", err)
	}
	return nil
}

// Flush blocks until all queued embedding work has drained.
func (e *Embedder) Flush() {
	e.wg.Wait()
}

// Close drains queued work and releases the pool.
func (e *Embedder) Close() {
	e.wg.Wait()
	e.pool.Release()
}

func (e *Embedder) embedDocument(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) {
	embedded, complete := embedAndStore(ctx, e.service, e.vectors, doc, chunks, e.batchSize)
	logger.Debug("embedded %d/%d chunks for document %s", embedded, len(chunks), doc.ID)

	if !complete {
		return
	}
	if err := e.docs.MarkEmbedded(ctx, doc.ID); err != nil {
		logger.Error("mark document %s embedded: %v", doc.ID, err)
	}
}

// embedAndStore embeds the chunks in bounded batches and stores the
// resulting vectors. Batches that fail, whether rejected client-side
// or after exhausted retries, are flagged for the reembed sweep.
// Returns the number of chunks that received vectors and whether every
// batch succeeded.
func embedAndStore(
	ctx context.Context,
	service driven.EmbeddingService,
	vectors driven.ChunkVectorStore,
	doc *domain.Document,
	chunks []domain.Chunk,
	batchSize int,
) (embedded int, complete bool) {
	complete = true

	for start := 0; start < len(chunks); start += batchSize {
		batch := chunks[start:min(start+batchSize, len(chunks))]

		inputs := make([]driven.EmbedInput, len(batch))
		ids := make([]string, len(batch))
		for i, chunk := range batch {
			inputs[i] = buildEmbedInput(doc, chunk)
			ids[i] = chunk.ID
		}

		vecs, err := service.EmbedBatch(ctx, inputs)
		if err != nil {
			logger.Warn("embed batch for document %s: %v", doc.ID, err)
			if flagErr := vectors.FlagForRetry(ctx, ids); flagErr != nil {
				logger.Error("flag chunks for retry: %v", flagErr)
			}
			complete = false
			continue
		}

		byID := make(map[string][]float32, len(batch))
		for i := range batch {
			byID[ids[i]] = vecs[i]
		}
		if err := vectors.SetVectors(ctx, byID); err != nil {
			logger.Error("store vectors for document %s: %v", doc.ID, err)
			complete = false
			continue
		}
		embedded += len(batch)
	}

	return embedded, complete
}
