package chunker

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strata-labs/skimmer/internal/core/domain"
)

func TestChunk_Empty(t *testing.T) {
	assert.Nil(t, Chunk("", ""))
	assert.Nil(t, Chunk("   \n\n  ", ""))
}

func TestChunk_SingleShortText(t *testing.T) {
	chunks := Chunk("Hello", "")
	require.Len(t, chunks, 1)
	assert.Equal(t, "Hello", chunks[0])
}

func TestChunk_Deterministic(t *testing.T) {
	md := "# Title\n\nFirst paragraph with some text.\n\n## Section\n\n" +
		strings.Repeat("A sentence that repeats. ", 300)

	first := Chunk(md, "/media")
	second := Chunk(md, "/media")
	assert.Equal(t, first, second)

	// And again with a fresh string of the same bytes.
	third := Chunk(strings.Clone(md), "/media")
	assert.Equal(t, first, third)
}

func TestChunk_SplitsOnHeadings(t *testing.T) {
	big := strings.Repeat("word ", 500) // ~2500 chars, close to the ceiling
	md := "# One\n\n" + big + "\n\n# Two\n\n" + big

	chunks := Chunk(md, "")
	require.Len(t, chunks, 2)
	assert.True(t, strings.HasPrefix(chunks[0], "# One"))
	assert.True(t, strings.HasPrefix(chunks[1], "# Two"))
}

func TestChunk_CombinesSmallSections(t *testing.T) {
	md := "# A\n\nshort a\n\n# B\n\nshort b\n\n# C\n\nshort c"
	chunks := Chunk(md, "")
	require.Len(t, chunks, 1)
	for _, h := range []string{"# A", "# B", "# C"} {
		assert.Contains(t, chunks[0], h)
	}
}

func TestChunk_RespectsCeiling(t *testing.T) {
	md := strings.Repeat("This is a sentence of reasonable length for testing purposes. ", 400)
	chunks := Chunk(md, "")
	require.NotEmpty(t, chunks)
	for i, c := range chunks {
		assert.LessOrEqual(t, len(c), DefaultMaxChars, "chunk %d exceeds ceiling", i)
		assert.NotEmpty(t, strings.TrimSpace(c))
	}
}

func TestChunk_NeverSplitsMidSentence(t *testing.T) {
	md := strings.Repeat("Alpha beta gamma delta epsilon zeta eta theta. ", 200)
	chunks := Chunk(md, "")
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.True(t, strings.HasSuffix(c, "."), "chunk should end at a sentence boundary: %q", c[len(c)-20:])
	}
}

func TestChunk_HardCutWithoutBoundaries(t *testing.T) {
	// A single "sentence" with no terminators, forcing a cut at spaces.
	md := strings.Repeat("longword ", 800)
	chunks := Chunk(md, "")
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), DefaultMaxChars)
		assert.NotEmpty(t, strings.TrimSpace(c))
	}
}

func TestChunk_RewritesRelativeMedia(t *testing.T) {
	md := "Intro ![pic](./img/a.png) and ![b](/img/b.png) and ![c](img/c.png)"
	chunks := Chunk(md, "/data/media")
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0], "("+filepath.Join("/data/media", "img/a.png")+")")
	assert.Contains(t, chunks[0], "("+filepath.Join("/data/media", "img/b.png")+")")
	assert.Contains(t, chunks[0], "("+filepath.Join("/data/media", "img/c.png")+")")
}

func TestChunk_LeavesRemoteMediaAlone(t *testing.T) {
	md := "![pic](https://cdn.example.com/a.png) and ![d](data:image/png;base64,AAA=)"
	chunks := Chunk(md, "/data/media")
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0], "(https://cdn.example.com/a.png)")
	assert.Contains(t, chunks[0], "(data:image/png;base64,AAA=)")
}

func TestChunk_NoBasePathKeepsLocalRefs(t *testing.T) {
	md := "![pic](./img/a.png)"
	chunks := Chunk(md, "")
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0], "(./img/a.png)")
}

func TestProcessor_Process(t *testing.T) {
	p := New()
	doc := &domain.Document{
		ID:       "doc-1",
		Content:  "# Title\n\nHello world.",
		Source:   "twitter",
		Location: "https://twitter.test/home",
		AuthorID: "alice",
	}

	chunks, err := p.Process(context.Background(), doc, nil)
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	c := chunks[0]
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "doc-1", c.DocumentID)
	assert.Equal(t, 0, c.Index)
	assert.Equal(t, "twitter", c.Source)
	assert.Equal(t, "https://twitter.test/home", c.Location)
	assert.Equal(t, "alice", c.AuthorID)
}

func TestProcessor_ContiguousIndices(t *testing.T) {
	p := New(WithMaxChars(100), WithCombineUnder(40))
	doc := &domain.Document{
		ID:      "doc-2",
		Content: strings.Repeat("A short sentence here. ", 50),
	}

	chunks, err := p.Process(context.Background(), doc, nil)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
	}
}

func TestProcessor_EmptyContent(t *testing.T) {
	p := New()
	chunks, err := p.Process(context.Background(), &domain.Document{ID: "x"}, nil)
	require.NoError(t, err)
	assert.Nil(t, chunks)
}

func TestProcessor_MetadataBasePathOverride(t *testing.T) {
	p := New(WithBasePath("/default"))
	doc := &domain.Document{
		ID:       "doc-3",
		Content:  "![pic](./a.png)",
		Metadata: map[string]any{"media_dir": "/override"},
	}

	chunks, err := p.Process(context.Background(), doc, nil)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0].Content, filepath.Join("/override", "a.png"))
}
