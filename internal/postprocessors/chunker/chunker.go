// Package chunker splits canonical markdown into ordered, bounded-size
// chunks for embedding and retrieval.
package chunker

import (
	"path/filepath"
	"regexp"
	"strings"
)

// DefaultMaxChars is the hard ceiling per chunk, approximating one page
// of single-spaced text (~600 words).
const DefaultMaxChars = 3000

// DefaultCombineUnder merges adjacent small sections until a chunk
// reaches this size (~half a page).
const DefaultCombineUnder = 1500

var (
	headingRe = regexp.MustCompile(`^#{1,6}\s`)
	imageRe   = regexp.MustCompile(`!\[[^\]]*\]\(([^)\s]+)\)`)
)

// Chunk splits markdown into an ordered sequence of text chunks.
//
// Sections are cut at heading boundaries first. A section larger than
// maxChars is split again at paragraph boundaries, then at sentence
// boundaries; text is only ever cut mid-sentence when a single sentence
// exceeds the ceiling on its own. Adjacent small sections are combined
// so chunks stay near the ceiling without crossing it. No chunk is
// empty.
//
// When basePath is non-empty, relative local media references in the
// markdown are rewritten to absolute paths before splitting, so chunks
// embed independently of the originating file's location.
//
// The function is deterministic: identical markdown and basePath always
// produce byte-identical chunk sequences.
func Chunk(markdown, basePath string) []string {
	return chunkWith(markdown, basePath, DefaultMaxChars, DefaultCombineUnder)
}

func chunkWith(markdown, basePath string, maxChars, combineUnder int) []string {
	if basePath != "" {
		markdown = rewriteMediaPaths(markdown, basePath)
	}

	if strings.TrimSpace(markdown) == "" {
		return nil
	}

	var blocks []string
	for _, section := range splitSections(markdown) {
		if len(section) <= maxChars {
			blocks = append(blocks, section)
			continue
		}
		blocks = append(blocks, splitOversized(section, maxChars)...)
	}

	return combine(blocks, maxChars, combineUnder)
}

// splitSections cuts markdown at heading lines. The heading stays with
// the text that follows it.
func splitSections(markdown string) []string {
	lines := strings.Split(markdown, "\n")

	var sections []string
	var current []string
	flush := func() {
		section := strings.TrimSpace(strings.Join(current, "\n"))
		if section != "" {
			sections = append(sections, section)
		}
		current = current[:0]
	}

	for _, line := range lines {
		if headingRe.MatchString(line) && len(current) > 0 {
			flush()
		}
		current = append(current, line)
	}
	flush()

	return sections
}

// splitOversized breaks a section that exceeds maxChars, preferring
// paragraph boundaries, then sentence boundaries, and only then a hard
// cut.
func splitOversized(section string, maxChars int) []string {
	var pieces []string
	for _, para := range splitParagraphs(section) {
		if len(para) <= maxChars {
			pieces = append(pieces, para)
			continue
		}
		pieces = append(pieces, packSentences(splitSentences(para), maxChars)...)
	}
	return pieces
}

// splitParagraphs cuts text at blank lines.
func splitParagraphs(text string) []string {
	var paras []string
	for _, p := range regexp.MustCompile(`\n\s*\n`).Split(text, -1) {
		p = strings.TrimSpace(p)
		if p != "" {
			paras = append(paras, p)
		}
	}
	return paras
}

// splitSentences cuts text after sentence-terminating punctuation
// followed by whitespace, and at line breaks.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		atTerminator := (r == '.' || r == '!' || r == '?') &&
			i+1 < len(runes) && (runes[i+1] == ' ' || runes[i+1] == '\n')
		if atTerminator || r == '\n' {
			s := strings.TrimSpace(string(runes[start : i+1]))
			if s != "" {
				sentences = append(sentences, s)
			}
			start = i + 1
		}
	}
	if start < len(runes) {
		s := strings.TrimSpace(string(runes[start:]))
		if s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// packSentences greedily fills pieces up to maxChars without breaking
// a sentence. A lone sentence above the ceiling is hard-cut at the last
// space before the limit; mid-word only when there is no space at all.
func packSentences(sentences []string, maxChars int) []string {
	var pieces []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			pieces = append(pieces, current.String())
			current.Reset()
		}
	}

	for _, sentence := range sentences {
		if len(sentence) > maxChars {
			flush()
			pieces = append(pieces, hardCut(sentence, maxChars)...)
			continue
		}
		if current.Len() > 0 && current.Len()+1+len(sentence) > maxChars {
			flush()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(sentence)
	}
	flush()

	return pieces
}

// hardCut splits text that has no usable boundary.
func hardCut(text string, maxChars int) []string {
	var pieces []string
	for len(text) > maxChars {
		cut := strings.LastIndexByte(text[:maxChars], ' ')
		if cut <= 0 {
			cut = maxChars
		}
		piece := strings.TrimSpace(text[:cut])
		if piece != "" {
			pieces = append(pieces, piece)
		}
		text = strings.TrimSpace(text[cut:])
	}
	if text != "" {
		pieces = append(pieces, text)
	}
	return pieces
}

// combine merges adjacent blocks so small sections do not become tiny
// chunks, without crossing the hard ceiling.
func combine(blocks []string, maxChars, combineUnder int) []string {
	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}

	for _, block := range blocks {
		switch {
		case current.Len() == 0:
			current.WriteString(block)
		case current.Len() < combineUnder && current.Len()+2+len(block) <= maxChars:
			current.WriteString("\n\n")
			current.WriteString(block)
		default:
			flush()
			current.WriteString(block)
		}
	}
	flush()

	return chunks
}

// rewriteMediaPaths resolves relative local media references against
// basePath. Remote and data URLs pass through unchanged.
func rewriteMediaPaths(markdown, basePath string) string {
	return imageRe.ReplaceAllStringFunc(markdown, func(match string) string {
		sub := imageRe.FindStringSubmatch(match)
		ref := sub[1]

		if strings.Contains(ref, "://") || strings.HasPrefix(ref, "data:") {
			return match
		}

		var resolved string
		switch {
		case strings.HasPrefix(ref, "./"):
			resolved = filepath.Join(basePath, ref[2:])
		case strings.HasPrefix(ref, "/"):
			resolved = filepath.Join(basePath, strings.TrimPrefix(ref, "/"))
		default:
			resolved = filepath.Join(basePath, ref)
		}

		return strings.Replace(match, "("+ref+")", "("+resolved+")", 1)
	})
}
