package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"
)

// Candidate is a single piece of content extracted by a source parser
// from a DOM snapshot, before normalisation and storage.
type Candidate struct {
	URL          string
	Title        string
	Description  string
	Content      string
	AuthorName   string
	AuthorID     string
	Participants []string
	Source       string
	Location     string
	Metadata     map[string]any
	CreatedAt    time.Time
}

// Normalize trims whitespace from the candidate's textual fields and
// validates that the required attributes are present. It mutates the
// candidate in place and returns ErrInvalidCandidate when the candidate
// cannot identify itself or carries no content.
func (c *Candidate) Normalize() error {
	c.URL = strings.TrimSpace(c.URL)
	c.Title = strings.TrimSpace(c.Title)
	c.Description = strings.TrimSpace(c.Description)
	c.Content = strings.TrimSpace(c.Content)
	c.AuthorName = strings.TrimSpace(c.AuthorName)
	c.AuthorID = strings.TrimSpace(c.AuthorID)
	for i := range c.Participants {
		c.Participants[i] = strings.TrimSpace(c.Participants[i])
	}

	if c.Source == "" {
		return ErrInvalidCandidate
	}
	if c.Content == "" {
		return ErrInvalidCandidate
	}
	if c.URL == "" && c.Title == "" && len(c.Participants) == 0 {
		// Nothing to derive an identity key from.
		return ErrInvalidCandidate
	}
	return nil
}

// IdentityKey returns the key under which the candidate's document is
// stored. URLs are used directly. URL-less content (message threads)
// gets a composite key derived from source, location and a digest of
// the participants and title, so the same thread re-extracted later
// maps to the same document.
func (c *Candidate) IdentityKey() string {
	if c.URL != "" {
		return c.URL
	}

	parts := make([]string, len(c.Participants))
	copy(parts, c.Participants)
	sort.Strings(parts)

	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	h.Write([]byte(c.Title))
	digest := hex.EncodeToString(h.Sum(nil))[:16]

	return c.Source + "/" + c.Location + "/" + digest
}

// Document converts the candidate into a Document ready for storage.
// The ID is left empty; the store assigns one on insert.
func (c *Candidate) Document() *Document {
	return &Document{
		Key:          c.IdentityKey(),
		URL:          c.URL,
		Title:        c.Title,
		Description:  c.Description,
		Content:      c.Content,
		AuthorName:   c.AuthorName,
		AuthorID:     c.AuthorID,
		Participants: c.Participants,
		Source:       c.Source,
		Location:     c.Location,
		Metadata:     c.Metadata,
		CreatedAt:    c.CreatedAt,
	}
}
