package driven

import (
	"context"

	"github.com/strata-labs/skimmer/internal/core/domain"
)

// DocumentStore persists canonical documents. It owns document identity
// and enforces the update policy: a stored document is only replaced by
// a candidate whose content strictly contains the stored content.
// Backed by SQLite.
type DocumentStore interface {
	// Upsert stores a document candidate under its identity key.
	//
	// Absent key: the document is inserted and OutcomeCreated returned.
	// Present key: the candidate content is compared against the stored
	// content. If it strictly contains the stored content, the document
	// is replaced, its chunks deleted, embedded_at cleared, and
	// OutcomeUpdated returned. Otherwise OutcomeSkipped is returned and
	// storage is untouched.
	//
	// On created/updated the stored document (with its assigned ID) is
	// returned so the caller can regenerate chunks.
	Upsert(ctx context.Context, doc *domain.Document) (domain.UpsertOutcome, *domain.Document, error)

	// GetByKey retrieves a document by identity key.
	GetByKey(ctx context.Context, key string) (*domain.Document, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, id string) (*domain.Document, error)

	// List returns documents filtered by source and location. Empty
	// filters match everything. Results are ordered by ingestion time,
	// newest first.
	List(ctx context.Context, source, location string, limit, offset int) ([]domain.Document, error)

	// KnownKeys returns the identity keys already stored for a source,
	// letting the orchestrator skip re-extracted items early.
	KnownKeys(ctx context.Context, source string) (map[string]struct{}, error)

	// MarkEmbedded sets the document's embedded_at timestamp.
	MarkEmbedded(ctx context.Context, id string) error
}
