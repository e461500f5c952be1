package driven

import "context"

// SegmentKind distinguishes multimodal embedding input segments.
type SegmentKind string

const (
	// SegmentText is a plain text segment.
	SegmentText SegmentKind = "text"

	// SegmentImage is a reference to an image (URL or absolute path).
	SegmentImage SegmentKind = "image_url"
)

// Segment is one part of a multimodal embedding input.
type Segment struct {
	Kind SegmentKind

	// Text is set for SegmentText.
	Text string

	// ImageURL is set for SegmentImage.
	ImageURL string
}

// EmbedInput is one embeddable item: an ordered list of text and image
// segments sent to the model as a single multimodal input.
type EmbedInput struct {
	Segments []Segment
}

// EmbeddingService generates vector embeddings for batches of
// multimodal inputs via a remote call.
//
// Implementations validate batches client-side before sending (per-item
// size ceiling, per-request item count, total token budget) and fail
// fast with domain.ErrEmbeddingValidation rather than making a doomed
// request. Transient failures are retried internally with bounded
// exponential backoff; exhausted retries surface domain.ErrEmbedding.
type EmbeddingService interface {
	// EmbedBatch generates one vector per input, in input order.
	EmbedBatch(ctx context.Context, inputs []EmbedInput) ([][]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}
