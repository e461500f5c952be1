// Package substack parses newsletter post listings out of rendered
// Substack inbox and archive pages.
package substack

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/strata-labs/skimmer/internal/core/domain"
	"github.com/strata-labs/skimmer/internal/core/ports/driven"
)

// SourceName identifies this parser in the registry.
const SourceName = "substack"

// Ensure Parser implements the interface.
var _ driven.SourceParser = (*Parser)(nil)

// Parser extracts candidates from Substack DOM snapshots. Each post
// preview in the reader inbox or a publication archive becomes one
// candidate carrying the preview text; the post URL is the identity.
// Candidates carry no location; the orchestrator stamps the location
// of the run that produced them.
type Parser struct{}

// New creates a substack parser.
func New() *Parser {
	return &Parser{}
}

// Source returns the source identifier this parser handles.
func (p *Parser) Source() string {
	return SourceName
}

// Extract parses candidates out of an HTML snapshot.
func (p *Parser) Extract(
	_ context.Context,
	snapshot string,
	cursor string,
) (driven.ExtractResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(snapshot))
	if err != nil {
		return driven.ExtractResult{}, fmt.Errorf("%w: %v", domain.ErrParse, err)
	}

	cur, err := DecodeCursor(cursor)
	if err != nil {
		return driven.ExtractResult{}, fmt.Errorf("%w: %v", domain.ErrParse, err)
	}

	previews := doc.Find(`div[class*="post-preview"], div[class*="reader2-post"]`)
	if previews.Length() == 0 {
		if doc.Find("main").Length() == 0 {
			return driven.ExtractResult{}, fmt.Errorf("%w: no reader structure found", domain.ErrParse)
		}
		return driven.ExtractResult{NextCursor: cur.Encode(), HasMore: false}, nil
	}

	var all []domain.Candidate
	markIdx := -1
	previews.Each(func(_ int, preview *goquery.Selection) {
		candidate, ok := p.parsePreview(preview)
		if !ok {
			return
		}
		if cur.LastSeenURL != "" && candidate.URL == cur.LastSeenURL {
			markIdx = len(all)
		}
		all = append(all, candidate)
	})

	if len(all) == 0 {
		return driven.ExtractResult{}, fmt.Errorf("%w: %d previews yielded no candidates",
			domain.ErrParse, previews.Length())
	}

	// Resume below the high-water mark when it is still on the page; a
	// fresh page load without it starts from the top.
	candidates := all
	if markIdx >= 0 {
		candidates = all[markIdx+1:]
	}

	cur.Pages++
	cur.LastSeenURL = all[len(all)-1].URL

	return driven.ExtractResult{
		Candidates: candidates,
		NextCursor: cur.Encode(),
		HasMore:    true,
	}, nil
}

// parsePreview extracts a single candidate from a post preview block.
func (p *Parser) parsePreview(preview *goquery.Selection) (domain.Candidate, bool) {
	titleLink := preview.Find(`a[data-testid="post-preview-title"]`).First()
	if titleLink.Length() == 0 {
		titleLink = preview.Find(`a[href*="/p/"]`).First()
	}

	url, _ := titleLink.Attr("href")
	title := strings.TrimSpace(titleLink.Text())
	if url == "" || title == "" {
		return domain.Candidate{}, false
	}

	description := strings.TrimSpace(
		preview.Find(`div[class*="description"], div[class*="subtitle"]`).First().Text())

	author := strings.TrimSpace(
		preview.Find(`div[class*="pub-name"], a[class*="pub-name"]`).First().Text())
	if author == "" {
		author = strings.TrimSpace(preview.Find(`div[class*="meta"] a`).First().Text())
	}

	var content strings.Builder
	content.WriteString("# " + title)
	if description != "" {
		content.WriteString("\n\n" + description)
	}
	if img, ok := preview.Find("img[src]").First().Attr("src"); ok && !strings.Contains(img, "avatar") {
		content.WriteString(fmt.Sprintf("\n\n![cover](%s)", img))
	}

	candidate := domain.Candidate{
		URL:         url,
		Title:       title,
		Description: description,
		Content:     content.String(),
		AuthorName:  author,
		Source:      SourceName,
	}

	if ts, ok := preview.Find("time").First().Attr("datetime"); ok {
		if created, err := time.Parse(time.RFC3339, ts); err == nil {
			candidate.CreatedAt = created
		}
	}

	return candidate, true
}
