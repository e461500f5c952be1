package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidCandidate indicates an extracted candidate is missing
	// required attributes and cannot be ingested.
	ErrInvalidCandidate = errors.New("invalid candidate")

	// ErrInvalidInput indicates missing or malformed input to a store
	// operation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrParse indicates a source parser could not extract valid
	// candidates from a DOM snapshot. The run logs it and continues to
	// its next iteration.
	ErrParse = errors.New("parse failed")

	// ErrStorage indicates a document or chunk write failed. Scoped to
	// a single candidate; sibling candidates are unaffected.
	ErrStorage = errors.New("storage failed")

	// ErrEmbedding indicates an embedding call failed transiently.
	// Retried with bounded backoff.
	ErrEmbedding = errors.New("embedding failed")

	// ErrEmbeddingValidation indicates an embedding batch violated a
	// client-side limit. Never retried; the request is not sent.
	ErrEmbeddingValidation = errors.New("embedding batch invalid")

	// ErrScrapeTimeout indicates a scroll/extract/persist iteration
	// exceeded its execution budget. Only that iteration aborts; the
	// last persisted cursor remains valid for resumption.
	ErrScrapeTimeout = errors.New("scrape iteration timed out")

	// ErrRunInProgress indicates a scrape run for the same
	// (source, location) is already active.
	ErrRunInProgress = errors.New("scrape run in progress")

	// ErrUnsupportedSource indicates no parser is registered for the
	// requested source.
	ErrUnsupportedSource = errors.New("unsupported source")

	// ErrBrowserUnavailable indicates the browser control endpoint
	// could not be reached.
	ErrBrowserUnavailable = errors.New("browser unavailable")
)
