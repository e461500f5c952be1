package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/strata-labs/skimmer/internal/core/domain"
	"github.com/strata-labs/skimmer/internal/core/ports/driven"
)

// --- Fake implementations of the driven ports ---

// fakeDocStore implements driven.DocumentStore in memory with the same
// upsert policy as the sqlite store.
type fakeDocStore struct {
	mu       sync.Mutex
	byKey    map[string]*domain.Document
	byID     map[string]*domain.Document
	nextID   int
	embedded []string

	upsertErr error
	getErr    error
	knownErr  error
	markErr   error
}

func newFakeDocStore() *fakeDocStore {
	return &fakeDocStore{
		byKey: make(map[string]*domain.Document),
		byID:  make(map[string]*domain.Document),
	}
}

func (f *fakeDocStore) Upsert(_ context.Context, doc *domain.Document) (domain.UpsertOutcome, *domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return domain.OutcomeFailed, nil, f.upsertErr
	}

	if stored, ok := f.byKey[doc.Key]; ok {
		if !domain.StrictlyContains(doc.Content, stored.Content) {
			return domain.OutcomeSkipped, nil, nil
		}
		updated := *doc
		updated.ID = stored.ID
		updated.IngestedAt = stored.IngestedAt
		updated.EmbeddedAt = nil
		f.byKey[doc.Key] = &updated
		f.byID[updated.ID] = &updated
		out := updated
		return domain.OutcomeUpdated, &out, nil
	}

	f.nextID++
	created := *doc
	created.ID = fmt.Sprintf("doc-%d", f.nextID)
	created.IngestedAt = time.Now().UTC()
	f.byKey[doc.Key] = &created
	f.byID[created.ID] = &created
	out := created
	return domain.OutcomeCreated, &out, nil
}

func (f *fakeDocStore) GetByKey(_ context.Context, key string) (*domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.byKey[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *doc
	return &out, nil
}

func (f *fakeDocStore) Get(_ context.Context, id string) (*domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	doc, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *doc
	return &out, nil
}

func (f *fakeDocStore) List(_ context.Context, source, location string, _, _ int) ([]domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var docs []domain.Document
	for _, doc := range f.byKey {
		if source != "" && doc.Source != source {
			continue
		}
		if location != "" && doc.Location != location {
			continue
		}
		docs = append(docs, *doc)
	}
	return docs, nil
}

func (f *fakeDocStore) KnownKeys(_ context.Context, source string) (map[string]struct{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.knownErr != nil {
		return nil, f.knownErr
	}
	keys := make(map[string]struct{})
	for key, doc := range f.byKey {
		if doc.Source == source {
			keys[key] = struct{}{}
		}
	}
	return keys, nil
}

func (f *fakeDocStore) MarkEmbedded(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return f.markErr
	}
	if _, ok := f.byID[id]; !ok {
		return domain.ErrNotFound
	}
	f.embedded = append(f.embedded, id)
	return nil
}

func (f *fakeDocStore) embeddedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.embedded...)
}

// seed stores a document directly, bypassing the upsert policy.
func (f *fakeDocStore) seed(doc domain.Document) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := doc
	f.byKey[doc.Key] = &stored
	f.byID[doc.ID] = &stored
}

// fakeVectorStore implements driven.ChunkVectorStore in memory.
type fakeVectorStore struct {
	mu      sync.Mutex
	chunks  map[string][]domain.Chunk
	flagged []string

	replaceErr error
	setErr     error
	listErr    error
}

func newFakeVectorStore() *fakeVectorStore {
	return &fakeVectorStore{chunks: make(map[string][]domain.Chunk)}
}

func (f *fakeVectorStore) ReplaceChunks(_ context.Context, documentID string, chunks []domain.Chunk) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.replaceErr != nil {
		return f.replaceErr
	}
	f.chunks[documentID] = append([]domain.Chunk(nil), chunks...)
	return nil
}

func (f *fakeVectorStore) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Chunk(nil), f.chunks[documentID]...), nil
}

func (f *fakeVectorStore) SetVectors(_ context.Context, vectors map[string][]float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	for docID, chunks := range f.chunks {
		for i := range chunks {
			if vec, ok := vectors[chunks[i].ID]; ok {
				chunks[i].Embedding = vec
				chunks[i].NeedsEmbedding = false
			}
		}
		f.chunks[docID] = chunks
	}
	return nil
}

func (f *fakeVectorStore) FlagForRetry(_ context.Context, chunkIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flagged = append(f.flagged, chunkIDs...)
	for docID, chunks := range f.chunks {
		for i := range chunks {
			for _, id := range chunkIDs {
				if chunks[i].ID == id {
					chunks[i].NeedsEmbedding = true
				}
			}
		}
		f.chunks[docID] = chunks
	}
	return nil
}

func (f *fakeVectorStore) ListNeedingEmbedding(_ context.Context, limit int) ([]domain.Chunk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var pending []domain.Chunk
	for _, chunks := range f.chunks {
		for _, chunk := range chunks {
			if chunk.Embedding == nil || chunk.NeedsEmbedding {
				pending = append(pending, chunk)
			}
			if len(pending) >= limit {
				return pending, nil
			}
		}
	}
	return pending, nil
}

func (f *fakeVectorStore) DeleteChunks(_ context.Context, documentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.chunks, documentID)
	return nil
}

func (f *fakeVectorStore) flaggedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.flagged...)
}

// fakeEmbedService implements driven.EmbeddingService. It returns a
// fixed-size vector per input and can fail the first N calls. A
// non-nil block channel holds every call until it is closed.
type fakeEmbedService struct {
	mu       sync.Mutex
	batches  [][]driven.EmbedInput
	failures int
	err      error
	block    chan struct{}
}

func (f *fakeEmbedService) EmbedBatch(ctx context.Context, inputs []driven.EmbedInput) ([][]float32, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, inputs)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.failures > 0 {
		f.failures--
		err := f.err
		if err == nil {
			err = domain.ErrEmbedding
		}
		return nil, err
	}
	vectors := make([][]float32, len(inputs))
	for i := range inputs {
		vectors[i] = []float32{1, 2, 3}
	}
	return vectors, nil
}

func (f *fakeEmbedService) Dimensions() int { return 3 }

func (f *fakeEmbedService) ModelName() string { return "fake-model" }

func (f *fakeEmbedService) Close() error { return nil }

func (f *fakeEmbedService) batchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batches)
}

// fakePipeline implements driven.PostProcessorPipeline, emitting one
// chunk per document.
type fakePipeline struct {
	err    error
	nextID int
}

func (f *fakePipeline) Process(_ context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.nextID++
	return []domain.Chunk{{
		ID:         fmt.Sprintf("chunk-%d", f.nextID),
		DocumentID: doc.ID,
		Index:      0,
		Content:    doc.Content,
		Source:     doc.Source,
		Location:   doc.Location,
		AuthorID:   doc.AuthorID,
	}}, nil
}

// fakeEmbedQueue records embedder submissions.
type fakeEmbedQueue struct {
	mu        sync.Mutex
	submitted map[string][]domain.Chunk
	flushed   bool
	err       error
}

func newFakeEmbedQueue() *fakeEmbedQueue {
	return &fakeEmbedQueue{submitted: make(map[string][]domain.Chunk)}
}

func (f *fakeEmbedQueue) Submit(_ context.Context, doc *domain.Document, chunks []domain.Chunk) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.submitted[doc.ID] = append([]domain.Chunk(nil), chunks...)
	return nil
}

func (f *fakeEmbedQueue) Flush() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushed = true
}

// fakeBrowser implements driven.BrowserController with scripted tabs
// and snapshots.
type fakeBrowser struct {
	mu        sync.Mutex
	tabs      []driven.Tab
	snapshots []string
	scrolls   int
	calls     int

	listErr     error
	scrollErr   error
	snapshotErr error
}

func (f *fakeBrowser) ListTabs(_ context.Context) ([]driven.Tab, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.tabs, nil
}

func (f *fakeBrowser) ScrollTab(_ context.Context, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.scrollErr != nil {
		return f.scrollErr
	}
	f.scrolls++
	return nil
}

func (f *fakeBrowser) SnapshotDOM(_ context.Context, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.snapshotErr != nil {
		return "", f.snapshotErr
	}
	snapshot := "<html></html>"
	if f.calls < len(f.snapshots) {
		snapshot = f.snapshots[f.calls]
	}
	f.calls++
	return snapshot, nil
}

func (f *fakeBrowser) Evaluate(_ context.Context, _, _ string, _ time.Duration) (string, error) {
	return "", nil
}

func (f *fakeBrowser) Close() error { return nil }

// fakeParser implements driven.SourceParser with scripted pages keyed
// by invocation order.
type fakeParser struct {
	mu      sync.Mutex
	source  string
	pages   []driven.ExtractResult
	errs    []error
	cursors []string
	calls   int
}

func (f *fakeParser) Source() string { return f.source }

func (f *fakeParser) Extract(_ context.Context, _ string, cursor string) (driven.ExtractResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	call := f.calls
	f.calls++
	f.cursors = append(f.cursors, cursor)

	if call < len(f.errs) && f.errs[call] != nil {
		return driven.ExtractResult{}, f.errs[call]
	}
	if call < len(f.pages) {
		return f.pages[call], nil
	}
	// Past the script: empty end-of-feed page.
	return driven.ExtractResult{NextCursor: cursor, HasMore: false}, nil
}

func (f *fakeParser) seenCursors() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.cursors...)
}

// fakeRegistry implements driven.ParserRegistry.
type fakeRegistry struct {
	parsers map[string]driven.SourceParser
}

func (f *fakeRegistry) Parser(source string) (driven.SourceParser, error) {
	parser, ok := f.parsers[source]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedSource, source)
	}
	return parser, nil
}

func (f *fakeRegistry) Sources() []string {
	var sources []string
	for source := range f.parsers {
		sources = append(sources, source)
	}
	return sources
}

// fakeCursorStore implements driven.CursorStore in memory.
type fakeCursorStore struct {
	mu      sync.Mutex
	cursors map[string]domain.ScrapeCursor
	saveErr error
}

func newFakeCursorStore() *fakeCursorStore {
	return &fakeCursorStore{cursors: make(map[string]domain.ScrapeCursor)}
}

func (f *fakeCursorStore) Save(_ context.Context, cursor domain.ScrapeCursor) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.cursors[cursor.Source+"/"+cursor.Location] = cursor
	return nil
}

func (f *fakeCursorStore) Get(_ context.Context, source, location string) (*domain.ScrapeCursor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cursor, ok := f.cursors[source+"/"+location]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := cursor
	return &out, nil
}

func (f *fakeCursorStore) List(_ context.Context, source string) ([]domain.ScrapeCursor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.ScrapeCursor
	for _, cursor := range f.cursors {
		if cursor.Source == source {
			out = append(out, cursor)
		}
	}
	return out, nil
}

func (f *fakeCursorStore) Delete(_ context.Context, source, location string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.cursors, source+"/"+location)
	return nil
}

// fakeIngestor records ingested candidates and returns scripted
// outcomes per identity key. With blockUntilCtx set, every call waits
// for the caller's context to expire and fails with its error.
type fakeIngestor struct {
	mu            sync.Mutex
	candidates    []domain.Candidate
	outcomes      map[string]domain.UpsertOutcome
	seen          map[string]struct{}
	blockUntilCtx bool
}

func newFakeIngestor() *fakeIngestor {
	return &fakeIngestor{
		outcomes: make(map[string]domain.UpsertOutcome),
		seen:     make(map[string]struct{}),
	}
}

func (f *fakeIngestor) Ingest(ctx context.Context, candidate domain.Candidate) (domain.UpsertOutcome, error) {
	if f.blockUntilCtx {
		<-ctx.Done()
		return domain.OutcomeFailed, fmt.Errorf("%w: %v", domain.ErrStorage, ctx.Err())
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.candidates = append(f.candidates, candidate)

	key := candidate.IdentityKey()
	if outcome, ok := f.outcomes[key]; ok {
		return outcome, nil
	}
	// Default behaviour: first sighting creates, repeats skip.
	if _, ok := f.seen[key]; ok {
		return domain.OutcomeSkipped, nil
	}
	f.seen[key] = struct{}{}
	return domain.OutcomeCreated, nil
}

func (f *fakeIngestor) Flush() {}

func (f *fakeIngestor) ingested() []domain.Candidate {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Candidate(nil), f.candidates...)
}
