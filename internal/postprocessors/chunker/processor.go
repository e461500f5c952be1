package chunker

import (
	"context"

	"github.com/google/uuid"

	"github.com/strata-labs/skimmer/internal/core/domain"
)

// metadataBasePathKey is the document metadata key carrying the
// directory that relative media references resolve against.
const metadataBasePathKey = "media_dir"

// Processor turns a document's markdown body into chunks.
// It implements the PostProcessor interface.
type Processor struct {
	maxChars     int
	combineUnder int
	basePath     string
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithMaxChars sets the hard chunk size ceiling in characters.
func WithMaxChars(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.maxChars = n
		}
	}
}

// WithCombineUnder sets the size below which adjacent sections are
// merged into one chunk.
func WithCombineUnder(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.combineUnder = n
		}
	}
}

// WithBasePath sets the default directory for resolving relative media
// references. A document's "media_dir" metadata overrides it.
func WithBasePath(path string) Option {
	return func(p *Processor) {
		p.basePath = path
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		maxChars:     DefaultMaxChars,
		combineUnder: DefaultCombineUnder,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.combineUnder > p.maxChars {
		p.combineUnder = p.maxChars / 2
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits the document content into chunks.
// Input chunks are ignored; this processor creates new chunks, copying
// the parent's filter metadata onto each one.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	basePath := p.basePath
	if v, ok := doc.Metadata[metadataBasePathKey].(string); ok && v != "" {
		basePath = v
	}

	texts := chunkWith(doc.Content, basePath, p.maxChars, p.combineUnder)
	if len(texts) == 0 {
		return nil, nil
	}

	chunks := make([]domain.Chunk, 0, len(texts))
	for i, text := range texts {
		chunks = append(chunks, domain.Chunk{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			Index:      i,
			Content:    text,
			Source:     doc.Source,
			Location:   doc.Location,
			AuthorID:   doc.AuthorID,
		})
	}

	return chunks, nil
}
