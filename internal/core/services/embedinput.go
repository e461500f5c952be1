package services

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/strata-labs/skimmer/internal/core/domain"
	"github.com/strata-labs/skimmer/internal/core/ports/driven"
)

// imageRefRe matches markdown image references so chunk text can be
// split into text and image segments for multimodal embedding.
var imageRefRe = regexp.MustCompile(`!\[[^\]]*\]\(([^)\s]+)\)`)

// buildEmbedInput turns one chunk into a multimodal embedding input.
// The chunk text is prefixed with a deterministic metadata header so
// the vector carries document context, then split on markdown image
// references. Remote image targets become image segments; local paths
// stay in the text since the model cannot fetch them.
func buildEmbedInput(doc *domain.Document, chunk domain.Chunk) driven.EmbedInput {
	text := embedHeader(doc) + "\n" + chunk.Content

	matches := imageRefRe.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return driven.EmbedInput{Segments: []driven.Segment{
			{Kind: driven.SegmentText, Text: text},
		}}
	}

	var segments []driven.Segment
	pos := 0
	pending := ""
	for _, m := range matches {
		target := text[m[2]:m[3]]
		if !embeddableImage(target) {
			continue
		}
		if before := pending + text[pos:m[0]]; strings.TrimSpace(before) != "" {
			segments = append(segments, driven.Segment{Kind: driven.SegmentText, Text: before})
		}
		pending = ""
		segments = append(segments, driven.Segment{Kind: driven.SegmentImage, ImageURL: target})
		pos = m[1]
	}
	if rest := pending + text[pos:]; strings.TrimSpace(rest) != "" {
		segments = append(segments, driven.Segment{Kind: driven.SegmentText, Text: rest})
	}

	if len(segments) == 0 {
		segments = []driven.Segment{{Kind: driven.SegmentText, Text: text}}
	}
	return driven.EmbedInput{Segments: segments}
}

// embeddableImage reports whether an image reference can be sent to
// the embedding API as-is.
func embeddableImage(target string) bool {
	return strings.HasPrefix(target, "http://") ||
		strings.HasPrefix(target, "https://") ||
		strings.HasPrefix(target, "data:")
}

// embedHeader renders the document's metadata as stable "Key: value"
// lines. Unset fields are omitted; metadata keys are sorted so the
// header is deterministic for a given document.
func embedHeader(doc *domain.Document) string {
	var b strings.Builder
	writeLine := func(key, value string) {
		if value == "" {
			return
		}
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteString("\n")
	}

	writeLine("Title", doc.Title)
	writeLine("Description", doc.Description)
	writeLine("Source", doc.Source)
	writeLine("URL", doc.URL)

	author := doc.AuthorName
	if doc.AuthorID != "" {
		if author != "" {
			author += " (" + doc.AuthorID + ")"
		} else {
			author = doc.AuthorID
		}
	}
	writeLine("Author", author)
	writeLine("Participants", strings.Join(doc.Participants, ", "))

	if len(doc.Metadata) > 0 {
		keys := make([]string, 0, len(doc.Metadata))
		for k := range doc.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, fmt.Sprintf("%s=%v", k, doc.Metadata[k]))
		}
		writeLine("Metadata", strings.Join(pairs, ", "))
	}

	return b.String()
}
