package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/strata-labs/skimmer/internal/core/domain"
)

func setupDocumentsTest(docs []domain.Document) func() {
	old := documentStore
	documentStore = &mockDocumentLister{docs: docs}
	return func() {
		documentStore = old
		documentsSource = ""
		documentsLocation = ""
		documentsLimit = 20
		documentsOffset = 0
	}
}

func TestDocumentsCmd_Use(t *testing.T) {
	assert.Equal(t, "documents", documentsCmd.Use)
}

func TestDocumentsCmd_ListsDocuments(t *testing.T) {
	embeddedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cleanup := setupDocumentsTest([]domain.Document{
		{
			Key:        "https://x.com/a/status/1",
			Title:      "Release day",
			Source:     "twitter",
			IngestedAt: time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC),
			EmbeddedAt: &embeddedAt,
		},
		{
			Key:        "https://example.substack.com/p/one",
			Title:      "The First Post",
			Source:     "substack",
			IngestedAt: time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC),
		},
	})
	defer cleanup()

	out, err := execute("documents")
	assert.NoError(t, err)
	assert.Contains(t, out, "Release day")
	assert.Contains(t, out, "https://x.com/a/status/1")
	assert.Contains(t, out, "yes")
	assert.Contains(t, out, "pending")
}

func TestDocumentsCmd_SourceFilter(t *testing.T) {
	cleanup := setupDocumentsTest([]domain.Document{
		{Key: "k1", Title: "tweet", Source: "twitter"},
		{Key: "k2", Title: "letter", Source: "substack"},
	})
	defer cleanup()

	out, err := execute("documents", "--source", "substack")
	assert.NoError(t, err)
	assert.Contains(t, out, "letter")
	assert.NotContains(t, out, "tweet")
}

func TestDocumentsCmd_Empty(t *testing.T) {
	cleanup := setupDocumentsTest(nil)
	defer cleanup()

	out, err := execute("documents")
	assert.NoError(t, err)
	assert.Contains(t, out, "No documents stored.")
}

func TestDocumentsCmd_NotConfigured(t *testing.T) {
	old := documentStore
	documentStore = nil
	defer func() { documentStore = old }()

	_, err := execute("documents")
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "exactlyten", truncate("exactlyten", 10))
	assert.Equal(t, "a long ti…", truncate("a long title here", 10))
}
