package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/strata-labs/skimmer/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/strata-labs/skimmer/internal/core/domain"
	"github.com/strata-labs/skimmer/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to
// all metadata store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.skimmer/data/skimmer.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".skimmer", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "skimmer.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// DocumentStore returns a DocumentStore interface backed by this store.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{store: s}
}

// ChunkVectorStore returns a ChunkVectorStore interface backed by this store.
func (s *Store) ChunkVectorStore() driven.ChunkVectorStore {
	return &chunkVectorStore{store: s}
}

// CursorStore returns a CursorStore interface backed by this store.
func (s *Store) CursorStore() driven.CursorStore {
	return &cursorStore{store: s}
}

// SchedulerStore returns a SchedulerStore interface backed by this store.
func (s *Store) SchedulerStore() driven.SchedulerStore {
	return &schedulerStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(
			"INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Document Store ====================

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

const documentColumns = `id, key, url, title, description, content, author_name, author_id,
	participants, source, location, metadata, created_at, ingested_at, embedded_at`

// Upsert stores a candidate document under its identity key, enforcing
// the superset update policy. A stored document is replaced only when
// the candidate content strictly contains the stored content; the
// replacement wipes the document's chunks and clears embedded_at so
// chunking and embedding start over from the new body.
func (s *documentStore) Upsert(
	ctx context.Context,
	doc *domain.Document,
) (domain.UpsertOutcome, *domain.Document, error) {
	if doc == nil || doc.Key == "" {
		return domain.OutcomeSkipped, nil, domain.ErrInvalidInput
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.OutcomeSkipped, nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var storedID, storedContent string
	var storedIngestedAt time.Time
	err = tx.QueryRowContext(ctx,
		"SELECT id, content, ingested_at FROM documents WHERE key = ?", doc.Key).
		Scan(&storedID, &storedContent, &storedIngestedAt)

	switch {
	case err == sql.ErrNoRows:
		stored, err := insertDocument(ctx, tx, doc)
		if err != nil {
			return domain.OutcomeSkipped, nil, err
		}
		if err := tx.Commit(); err != nil {
			return domain.OutcomeSkipped, nil, fmt.Errorf("committing transaction: %w", err)
		}
		return domain.OutcomeCreated, stored, nil

	case err != nil:
		return domain.OutcomeSkipped, nil, fmt.Errorf("looking up document: %w", err)
	}

	if !domain.StrictlyContains(doc.Content, storedContent) {
		// Equal, subset or unrelated content leaves storage untouched.
		return domain.OutcomeSkipped, nil, nil
	}

	stored, err := updateDocument(ctx, tx, storedID, storedIngestedAt, doc)
	if err != nil {
		return domain.OutcomeSkipped, nil, err
	}

	// The old chunk set described the old content.
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM chunks WHERE document_id = ?", storedID); err != nil {
		return domain.OutcomeSkipped, nil, fmt.Errorf("deleting stale chunks: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.OutcomeSkipped, nil, fmt.Errorf("committing transaction: %w", err)
	}
	return domain.OutcomeUpdated, stored, nil
}

// insertDocument writes a new document row inside tx.
func insertDocument(ctx context.Context, tx *sql.Tx, doc *domain.Document) (*domain.Document, error) {
	stored := *doc
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	if stored.IngestedAt.IsZero() {
		stored.IngestedAt = time.Now().UTC()
	}
	stored.EmbeddedAt = nil

	participantsJSON, metadataJSON, err := marshalDocumentJSON(&stored)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)
	`, stored.ID, stored.Key, stored.URL, stored.Title, stored.Description, stored.Content,
		stored.AuthorName, stored.AuthorID, participantsJSON, stored.Source, stored.Location,
		metadataJSON, nullableTime(stored.CreatedAt), stored.IngestedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting document: %w", err)
	}

	return &stored, nil
}

// updateDocument replaces a stored document's mutable fields inside tx,
// preserving its ID and original ingestion time and resetting the
// embedding mark.
func updateDocument(
	ctx context.Context,
	tx *sql.Tx,
	id string,
	ingestedAt time.Time,
	doc *domain.Document,
) (*domain.Document, error) {
	stored := *doc
	stored.ID = id
	stored.IngestedAt = ingestedAt
	stored.EmbeddedAt = nil

	participantsJSON, metadataJSON, err := marshalDocumentJSON(&stored)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE documents SET
			url = ?, title = ?, description = ?, content = ?,
			author_name = ?, author_id = ?, participants = ?,
			source = ?, location = ?, metadata = ?, created_at = ?,
			embedded_at = NULL
		WHERE id = ?
	`, stored.URL, stored.Title, stored.Description, stored.Content,
		stored.AuthorName, stored.AuthorID, participantsJSON,
		stored.Source, stored.Location, metadataJSON, nullableTime(stored.CreatedAt), id)
	if err != nil {
		return nil, fmt.Errorf("updating document: %w", err)
	}

	return &stored, nil
}

// GetByKey retrieves a document by identity key.
func (s *documentStore) GetByKey(ctx context.Context, key string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE key = ?", key)
	return scanDocument(row)
}

// Get retrieves a document by ID.
func (s *documentStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE id = ?", id)
	return scanDocument(row)
}

// List returns documents filtered by source and location, newest first.
func (s *documentStore) List(
	ctx context.Context,
	source, location string,
	limit, offset int,
) ([]domain.Document, error) {
	query := "SELECT " + documentColumns + " FROM documents"
	var conds []string
	var args []any
	if source != "" {
		conds = append(conds, "source = ?")
		args = append(args, source)
	}
	if location != "" {
		conds = append(conds, "location = ?")
		args = append(args, location)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY ingested_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
		if offset > 0 {
			query += " OFFSET ?"
			args = append(args, offset)
		}
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDocumentRows(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return docs, nil
}

// KnownKeys returns the identity keys already stored for a source.
func (s *documentStore) KnownKeys(ctx context.Context, source string) (map[string]struct{}, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT key FROM documents WHERE source = ?", source)
	if err != nil {
		return nil, fmt.Errorf("querying document keys: %w", err)
	}
	defer rows.Close()

	keys := make(map[string]struct{})
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scanning document key: %w", err)
		}
		keys[key] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating document keys: %w", err)
	}

	return keys, nil
}

// MarkEmbedded sets the document's embedded_at timestamp.
func (s *documentStore) MarkEmbedded(ctx context.Context, id string) error {
	res, err := s.store.db.ExecContext(ctx,
		"UPDATE documents SET embedded_at = ? WHERE id = ?", time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("marking document embedded: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ==================== Chunk Vector Store ====================

// chunkVectorStore implements driven.ChunkVectorStore.
type chunkVectorStore struct {
	store *Store
}

var _ driven.ChunkVectorStore = (*chunkVectorStore)(nil)

const chunkColumns = `id, document_id, chunk_index, content, embedding, needs_embedding,
	source, location, author_id`

// ReplaceChunks atomically swaps the full chunk set for a document.
func (s *chunkVectorStore) ReplaceChunks(
	ctx context.Context,
	documentID string,
	chunks []domain.Chunk,
) error {
	if documentID == "" {
		return domain.ErrInvalidInput
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM chunks WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (`+chunkColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i, chunk := range chunks {
		if chunk.Index != i {
			return fmt.Errorf("%w: chunk indices not contiguous at %d", domain.ErrInvalidInput, i)
		}
		embeddingBlob := float32SliceToBytes(chunk.Embedding)
		if _, err := stmt.ExecContext(ctx, chunk.ID, documentID, chunk.Index, chunk.Content,
			embeddingBlob, boolToInt(chunk.NeedsEmbedding),
			chunk.Source, chunk.Location, chunk.AuthorID); err != nil {
			return fmt.Errorf("inserting chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetChunks returns all chunks for a document ordered by index.
func (s *chunkVectorStore) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+chunkColumns+` FROM chunks
		WHERE document_id = ?
		ORDER BY chunk_index
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	return scanChunks(rows)
}

// SetVectors stores embedding vectors and clears the retry flag for the
// given chunks.
func (s *chunkVectorStore) SetVectors(ctx context.Context, vectors map[string][]float32) error {
	if len(vectors) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		UPDATE chunks SET embedding = ?, needs_embedding = 0 WHERE id = ?
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for chunkID, vector := range vectors {
		if _, err := stmt.ExecContext(ctx, float32SliceToBytes(vector), chunkID); err != nil {
			return fmt.Errorf("setting vector for chunk %s: %w", chunkID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// FlagForRetry marks chunks for a later embedding sweep.
func (s *chunkVectorStore) FlagForRetry(ctx context.Context, chunkIDs []string) error {
	if len(chunkIDs) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		"UPDATE chunks SET needs_embedding = 1 WHERE id = ?")
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, id := range chunkIDs {
		if _, err := stmt.ExecContext(ctx, id); err != nil {
			return fmt.Errorf("flagging chunk %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ListNeedingEmbedding returns chunks without vectors, grouped by
// document, up to limit chunks.
func (s *chunkVectorStore) ListNeedingEmbedding(ctx context.Context, limit int) ([]domain.Chunk, error) {
	query := `
		SELECT ` + chunkColumns + ` FROM chunks
		WHERE embedding IS NULL OR needs_embedding = 1
		ORDER BY document_id, chunk_index
	`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying unembedded chunks: %w", err)
	}
	defer rows.Close()

	return scanChunks(rows)
}

// DeleteChunks removes all chunks for a document.
func (s *chunkVectorStore) DeleteChunks(ctx context.Context, documentID string) error {
	_, err := s.store.db.ExecContext(ctx,
		"DELETE FROM chunks WHERE document_id = ?", documentID)
	if err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	return nil
}

// ==================== Cursor Store ====================

// cursorStore implements driven.CursorStore.
type cursorStore struct {
	store *Store
}

var _ driven.CursorStore = (*cursorStore)(nil)

// Save stores or updates a scrape cursor.
func (s *cursorStore) Save(ctx context.Context, cursor domain.ScrapeCursor) error {
	if cursor.Source == "" || cursor.Location == "" {
		return domain.ErrInvalidInput
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO scrape_cursors (source, location, cursor, last_success)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(source, location) DO UPDATE SET
			cursor = excluded.cursor,
			last_success = excluded.last_success
	`, cursor.Source, cursor.Location, cursor.Cursor, nullableTime(cursor.LastSuccess))

	if err != nil {
		return fmt.Errorf("saving cursor: %w", err)
	}
	return nil
}

// Get retrieves the cursor for a (source, location) pair.
func (s *cursorStore) Get(ctx context.Context, source, location string) (*domain.ScrapeCursor, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT source, location, cursor, last_success
		FROM scrape_cursors WHERE source = ? AND location = ?
	`, source, location)

	var cursor domain.ScrapeCursor
	var lastSuccess sql.NullTime
	if err := row.Scan(&cursor.Source, &cursor.Location, &cursor.Cursor, &lastSuccess); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning cursor: %w", err)
	}

	if lastSuccess.Valid {
		cursor.LastSuccess = lastSuccess.Time
	}

	return &cursor, nil
}

// List returns all cursors for a source.
func (s *cursorStore) List(ctx context.Context, source string) ([]domain.ScrapeCursor, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT source, location, cursor, last_success
		FROM scrape_cursors WHERE source = ?
	`, source)
	if err != nil {
		return nil, fmt.Errorf("querying cursors: %w", err)
	}
	defer rows.Close()

	var cursors []domain.ScrapeCursor //nolint:prealloc // size unknown from query
	for rows.Next() {
		var cursor domain.ScrapeCursor
		var lastSuccess sql.NullTime
		if err := rows.Scan(&cursor.Source, &cursor.Location, &cursor.Cursor, &lastSuccess); err != nil {
			return nil, fmt.Errorf("scanning cursor: %w", err)
		}
		if lastSuccess.Valid {
			cursor.LastSuccess = lastSuccess.Time
		}
		cursors = append(cursors, cursor)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cursors: %w", err)
	}

	return cursors, nil
}

// Delete removes the cursor for a (source, location) pair.
func (s *cursorStore) Delete(ctx context.Context, source, location string) error {
	_, err := s.store.db.ExecContext(ctx,
		"DELETE FROM scrape_cursors WHERE source = ? AND location = ?", source, location)
	if err != nil {
		return fmt.Errorf("deleting cursor: %w", err)
	}
	return nil
}

// ==================== Helper Functions ====================

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// marshalDocumentJSON serialises the document's JSON-encoded columns.
func marshalDocumentJSON(doc *domain.Document) (participants, metadata string, err error) {
	participantsJSON, err := json.Marshal(doc.Participants)
	if err != nil {
		return "", "", fmt.Errorf("marshalling participants: %w", err)
	}
	metadataJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return "", "", fmt.Errorf("marshalling metadata: %w", err)
	}
	return string(participantsJSON), string(metadataJSON), nil
}

// scanDocument scans a single document row.
func scanDocument(row *sql.Row) (*domain.Document, error) {
	var doc domain.Document
	var participantsJSON, metadataJSON string
	var createdAt, embeddedAt sql.NullTime

	if err := row.Scan(&doc.ID, &doc.Key, &doc.URL, &doc.Title, &doc.Description, &doc.Content,
		&doc.AuthorName, &doc.AuthorID, &participantsJSON, &doc.Source, &doc.Location,
		&metadataJSON, &createdAt, &doc.IngestedAt, &embeddedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	if err := unmarshalDocumentJSON(&doc, participantsJSON, metadataJSON); err != nil {
		return nil, err
	}
	if createdAt.Valid {
		doc.CreatedAt = createdAt.Time
	}
	if embeddedAt.Valid {
		t := embeddedAt.Time
		doc.EmbeddedAt = &t
	}

	return &doc, nil
}

// scanDocumentRows scans a document from *sql.Rows.
func scanDocumentRows(rows *sql.Rows) (*domain.Document, error) {
	var doc domain.Document
	var participantsJSON, metadataJSON string
	var createdAt, embeddedAt sql.NullTime

	if err := rows.Scan(&doc.ID, &doc.Key, &doc.URL, &doc.Title, &doc.Description, &doc.Content,
		&doc.AuthorName, &doc.AuthorID, &participantsJSON, &doc.Source, &doc.Location,
		&metadataJSON, &createdAt, &doc.IngestedAt, &embeddedAt); err != nil {
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	if err := unmarshalDocumentJSON(&doc, participantsJSON, metadataJSON); err != nil {
		return nil, err
	}
	if createdAt.Valid {
		doc.CreatedAt = createdAt.Time
	}
	if embeddedAt.Valid {
		t := embeddedAt.Time
		doc.EmbeddedAt = &t
	}

	return &doc, nil
}

// unmarshalDocumentJSON restores the document's JSON-encoded columns.
func unmarshalDocumentJSON(doc *domain.Document, participantsJSON, metadataJSON string) error {
	if participantsJSON != "" {
		if err := json.Unmarshal([]byte(participantsJSON), &doc.Participants); err != nil {
			return fmt.Errorf("unmarshaling participants: %w", err)
		}
	}
	if metadataJSON != "" {
		if err := json.Unmarshal([]byte(metadataJSON), &doc.Metadata); err != nil {
			return fmt.Errorf("unmarshaling metadata: %w", err)
		}
	}
	return nil
}

// scanChunks scans multiple chunk rows.
func scanChunks(rows *sql.Rows) ([]domain.Chunk, error) {
	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		var chunk domain.Chunk
		var embeddingBlob []byte
		var needsEmbedding int

		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Index, &chunk.Content,
			&embeddingBlob, &needsEmbedding,
			&chunk.Source, &chunk.Location, &chunk.AuthorID); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}

		chunk.Embedding = bytesToFloat32Slice(embeddingBlob)
		chunk.NeedsEmbedding = needsEmbedding == 1
		chunks = append(chunks, chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return chunks, nil
}

// nullableTime returns nil for zero times so the column stays NULL.
func nullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}
