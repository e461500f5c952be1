package driven

import (
	"context"

	"github.com/strata-labs/skimmer/internal/core/domain"
)

// SourceParser extracts document candidates from a DOM snapshot.
// One implementation exists per supported source; each is independently
// testable against a captured fixture page. The orchestrator depends
// only on this contract and never on per-site selector details.
type SourceParser interface {
	// Source returns the source identifier this parser handles.
	Source() string

	// Extract parses candidates out of an HTML snapshot. cursor is the
	// opaque pagination marker from the previous page ("" on the first
	// page). It returns the extracted candidates, the cursor for the
	// next page, and whether the source reports more content.
	//
	// Extraction failures are reported by wrapping domain.ErrParse.
	Extract(ctx context.Context, snapshot string, cursor string) (ExtractResult, error)
}

// ExtractResult is the outcome of one parser invocation.
type ExtractResult struct {
	// Candidates are the extracted documents, in page order.
	Candidates []domain.Candidate

	// NextCursor is the pagination marker for the next page.
	NextCursor string

	// HasMore indicates the source reports further content.
	HasMore bool
}

// ParserRegistry resolves parsers by source name.
// Adding a source means registering a parser, never modifying the
// orchestrator or the pipeline.
type ParserRegistry interface {
	// Parser returns the parser for a source, or
	// domain.ErrUnsupportedSource.
	Parser(source string) (SourceParser, error)

	// Sources lists registered source names.
	Sources() []string
}
