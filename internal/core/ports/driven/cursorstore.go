package driven

import (
	"context"

	"github.com/strata-labs/skimmer/internal/core/domain"
)

// CursorStore persists scrape pagination state per (source, location).
// Each cursor is owned by the single run scraping its location; cursors
// for different locations are independent.
type CursorStore interface {
	// Save stores or updates a cursor.
	Save(ctx context.Context, cursor domain.ScrapeCursor) error

	// Get retrieves the cursor for a (source, location) pair.
	// Returns domain.ErrNotFound on first scrape of a location.
	Get(ctx context.Context, source, location string) (*domain.ScrapeCursor, error)

	// List returns all cursors for a source.
	List(ctx context.Context, source string) ([]domain.ScrapeCursor, error)

	// Delete removes the cursor for a (source, location) pair.
	Delete(ctx context.Context, source, location string) error
}
