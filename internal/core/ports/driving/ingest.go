package driving

import (
	"context"

	"github.com/strata-labs/skimmer/internal/core/domain"
)

// Ingestor turns extracted candidates into stored, chunked, embeddable
// documents.
type Ingestor interface {
	// Ingest processes one candidate: normalise, upsert, re-chunk on
	// created/updated, persist chunks, and queue embedding. Failures
	// are scoped to the candidate; the returned outcome is
	// OutcomeFailed with a non-nil error describing the step that
	// failed.
	Ingest(ctx context.Context, candidate domain.Candidate) (domain.UpsertOutcome, error)

	// Flush blocks until queued embedding work has drained.
	Flush()
}

// Reembedder retries embedding for chunks left without vectors.
type Reembedder interface {
	// Sweep finds chunks flagged for re-embedding and submits them
	// again. Returns the number of chunks that received vectors.
	Sweep(ctx context.Context) (int, error)
}
