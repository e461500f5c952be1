// Package twitter parses tweet timelines and message threads out of
// rendered twitter.com / x.com pages.
package twitter

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
const SourceName = "twitter"

const baseURL = "https://x.com"

// Ensure Parser implements the interface.
var _ driven.SourceParser = (*Parser)(nil)

// Parser extracts candidates from twitter DOM snapshots. It handles
// timeline views (home, profile, bookmarks) and direct message
// conversation views. Candidates carry no location; the orchestrator
// stamps the location of the run that produced them.
type Parser struct{}

// New creates a twitter parser.
func New() *Parser {
	return &Parser{}
}

// Source returns the source identifier this parser handles.
func (p *Parser) Source() string {
	return SourceName
}

// Extract parses candidates out of an HTML snapshot.
// Timelines yield one candidate per tweet not yet covered by the
// cursor's high-water mark; message views yield a single candidate for
// the whole conversation transcript, identified by its participants.
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

	if doc.Find(`[data-testid="DmActivityContainer"]`).Length() > 0 {
		return p.extractConversation(doc, cur)
	}
	return p.extractTimeline(doc, cur)
}

// extractTimeline yields one candidate per tweet article.
func (p *Parser) extractTimeline(doc *goquery.Document, cur *Cursor) (driven.ExtractResult, error) {
	articles := doc.Find(`article[data-testid="tweet"]`)
	if articles.Length() == 0 {
		// An empty timeline is the end of the feed, not a parse failure,
		// unless the page structure is unrecognisable.
		if doc.Find(`main, div[data-testid="primaryColumn"]`).Length() == 0 {
			return driven.ExtractResult{}, fmt.Errorf("%w: no timeline structure found", domain.ErrParse)
		}
		return driven.ExtractResult{NextCursor: cur.Encode(), HasMore: false}, nil
	}

	var all []domain.Candidate
	markIdx := -1
	articles.Each(func(_ int, article *goquery.Selection) {
		candidate, ok := p.parseTweet(article)
		if !ok {
			return
		}
		if cur.LastSeenURL != "" && candidate.URL == cur.LastSeenURL {
			markIdx = len(all)
		}
		all = append(all, candidate)
	})

	if len(all) == 0 {
		return driven.ExtractResult{}, fmt.Errorf("%w: %d articles yielded no candidates",
			domain.ErrParse, articles.Length())
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
		HasMore:    true, // timelines load indefinitely as long as tweets render
	}, nil
}

// parseTweet extracts a single candidate from a tweet article.
func (p *Parser) parseTweet(article *goquery.Selection) (domain.Candidate, bool) {
	url := tweetURL(article)
	text := article.Find(`div[data-testid="tweetText"]`).First().Text()
	if url == "" || strings.TrimSpace(text) == "" {
		return domain.Candidate{}, false
	}

	name, handle := userInfo(article)

	var content strings.Builder
	content.WriteString(strings.TrimSpace(text))
	article.Find(`img[src*="/media/"]`).Each(func(_ int, img *goquery.Selection) {
		src, ok := img.Attr("src")
		if !ok {
			return
		}
		alt := img.AttrOr("alt", "image")
		content.WriteString(fmt.Sprintf("\n\n![%s](%s)", alt, src))
	})

	candidate := domain.Candidate{
		URL:        url,
		Title:      tweetTitle(name, handle, text),
		Content:    content.String(),
		AuthorName: name,
		AuthorID:   handle,
		Source:     SourceName,
	}

	if ts, ok := article.Find("time").First().Attr("datetime"); ok {
		if created, err := time.Parse(time.RFC3339, ts); err == nil {
			candidate.CreatedAt = created
		}
	}

	return candidate, true
}

// extractConversation yields one candidate for a DM thread. The thread
// has no URL of its own; identity derives from its participants.
func (p *Parser) extractConversation(doc *goquery.Document, cur *Cursor) (driven.ExtractResult, error) {
	entries := doc.Find(`div[data-testid="messageEntry"]`)
	if entries.Length() == 0 {
		return driven.ExtractResult{}, fmt.Errorf("%w: conversation has no messages", domain.ErrParse)
	}

	participantSet := make(map[string]struct{})
	var transcript strings.Builder
	entries.Each(func(_ int, entry *goquery.Selection) {
		sender := strings.TrimSpace(entry.Find(`[data-testid="messageSender"]`).First().Text())
		body := strings.TrimSpace(entry.Find(`[data-testid="messageText"]`).First().Text())
		if body == "" {
			return
		}
		if sender != "" {
			participantSet[sender] = struct{}{}
			transcript.WriteString("**" + sender + "**: ")
		}
		transcript.WriteString(body)
		transcript.WriteString("\n\n")
	})

	if transcript.Len() == 0 {
		return driven.ExtractResult{}, fmt.Errorf("%w: conversation has no message text", domain.ErrParse)
	}

	participants := make([]string, 0, len(participantSet))
	for name := range participantSet {
		participants = append(participants, name)
	}

	title := strings.TrimSpace(doc.Find(`[data-testid="DmScrollerHeader"]`).First().Text())
	if title == "" {
		title = "Conversation with " + strings.Join(participants, ", ")
	}

	cur.Pages++

	return driven.ExtractResult{
		Candidates: []domain.Candidate{{
			Title:        title,
			Content:      strings.TrimSpace(transcript.String()),
			Participants: participants,
			Source:       SourceName,
		}},
		NextCursor: cur.Encode(),
		// A conversation view scrolls back through history; older
		// messages may still load above.
		HasMore: true,
	}, nil
}

// tweetURL finds the tweet's canonical status link.
func tweetURL(article *goquery.Selection) string {
	url := ""
	article.Find(`a[href*="/status/"]`).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, ok := a.Attr("href")
		if !ok {
			return true
		}
		// Permalinks wrap the timestamp; photo/analytics links don't.
		if a.Find("time").Length() == 0 {
			return true
		}
		if strings.HasPrefix(href, "/") {
			href = baseURL + href
		}
		url = href
		return false
	})
	return url
}

// userInfo pulls the author's display name and handle.
func userInfo(article *goquery.Selection) (name, handle string) {
	section := article.Find(`div[data-testid="User-Name"]`).First()
	section.Find("span").Each(func(_ int, span *goquery.Selection) {
		text := strings.TrimSpace(span.Text())
		switch {
		case strings.HasPrefix(text, "@") && handle == "":
			handle = text
		case text != "" && name == "" && !strings.HasPrefix(text, "@") && !strings.Contains(text, "·"):
			name = text
		}
	})
	return name, handle
}

// tweetTitle builds a short title from the author and opening text.
func tweetTitle(name, handle, text string) string {
	author := name
	if author == "" {
		author = handle
	}
	summary := strings.Join(strings.Fields(text), " ")
	if len(summary) > 80 {
		summary = summary[:80] + "…"
	}
	if author == "" {
		return summary
	}
	return author + ": " + summary
}
