package domain

import "time"

// Document is the canonical persisted record of one logical piece of
// ingested content: a post, a profile, a message thread.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Key is the identity key. At most one stored document exists per key.
	// It is the URL when the content has one, or a composite key derived
	// from source, location and participants for URL-less content.
	Key string

	// URL is the original location of the content, when it has one.
	URL string

	// Title is the human-readable title.
	Title string

	// Description is a short summary when the source provides one.
	Description string

	// Content is the full markdown body. It is the single source of
	// truth from which chunks are derived.
	Content string

	// AuthorName is the display name of the content's author.
	AuthorName string

	// AuthorID is the author's stable identifier (handle, email).
	AuthorID string

	// Participants are identifiers of conversation participants.
	Participants []string

	// Source is the originating platform (e.g. "twitter").
	Source string

	// Location is the concrete context within the source that produced
	// this document (a feed URL, a profile URL).
	Location string

	// Metadata contains source-specific key-value pairs.
	Metadata map[string]any

	// CreatedAt is the content's own timestamp, when known.
	CreatedAt time.Time

	// IngestedAt is when the document was first stored.
	IngestedAt time.Time

	// EmbeddedAt is when all of the document's chunks last received
	// vectors. Nil means embedding is pending or stale.
	EmbeddedAt *time.Time
}

// Chunk is an ordered, bounded-size fragment of a Document's markdown
// body. It is the unit of embedding and retrieval. The full chunk set
// for a document is replaced atomically whenever the parent's content
// changes.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Index is the 0-based position within the document. Indices are
	// contiguous with no gaps.
	Index int

	// Content is the text of this chunk.
	Content string

	// Embedding is the vector representation. Nil until embedded.
	Embedding []float32

	// NeedsEmbedding flags the chunk for a later embedding sweep after
	// the bounded retry budget was exhausted.
	NeedsEmbedding bool

	// Source, Location and AuthorID mirror the parent document so the
	// vector store can filter without joining.
	Source   string
	Location string
	AuthorID string
}

// UpsertOutcome is the result of submitting a candidate to the
// document store.
type UpsertOutcome int

const (
	// OutcomeCreated indicates a new document row was inserted.
	OutcomeCreated UpsertOutcome = iota

	// OutcomeUpdated indicates the stored document was replaced because
	// the candidate content strictly contains the stored content.
	OutcomeUpdated

	// OutcomeSkipped indicates the store was left untouched: the
	// candidate content was equal to, a subset of, or simply different
	// from the stored content.
	OutcomeSkipped

	// OutcomeFailed indicates the candidate could not be processed.
	// Only the ingestion pipeline reports this; the store itself
	// returns an error instead.
	OutcomeFailed
)

// String returns the outcome name for logging and reports.
func (o UpsertOutcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeUpdated:
		return "updated"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}
