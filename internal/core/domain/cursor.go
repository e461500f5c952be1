package domain

import "time"

// ScrapeCursor is the persisted pagination state for one
// (source, location) pair. It is created on the first scrape of a
// location, updated after every successfully persisted page, and owned
// exclusively by the run scraping that location.
type ScrapeCursor struct {
	// Source is the originating platform.
	Source string

	// Location is the scraped context within the source.
	Location string

	// Cursor is the opaque pagination marker returned by the source
	// parser. The orchestrator never interprets it.
	Cursor string

	// LastSuccess is when a page for this location last persisted.
	LastSuccess time.Time
}
