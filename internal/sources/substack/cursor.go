package substack

import (
	"encoding/base64"
	"encoding/json"
	"errors"
)

// CursorVersion is the current cursor schema version.
const CursorVersion = 1

// ErrInvalidCursor indicates a cursor string could not be decoded.
var ErrInvalidCursor = errors.New("substack: invalid cursor")

// Cursor tracks pagination state across scroll snapshots of one
// location.
type Cursor struct {
	// Version is the schema version for future migrations.
	Version int `json:"v"`

	// LastSeenURL is the bottom-most post URL extracted so far. While
	// it stays on the page, extraction resumes below it.
	LastSeenURL string `json:"last_seen,omitempty"`

	// Pages counts snapshots extracted for this location.
	Pages int `json:"pages,omitempty"`
}

// NewCursor creates a new empty cursor.
func NewCursor() *Cursor {
	return &Cursor{Version: CursorVersion}
}

// Encode serializes the cursor to a base64-encoded JSON string.
func (c *Cursor) Encode() string {
	if c == nil {
		return ""
	}
	data, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeCursor deserializes a cursor from a base64-encoded JSON string.
// Returns a new empty cursor if the input is empty.
func DecodeCursor(s string) (*Cursor, error) {
	if s == "" {
		return NewCursor(), nil
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	var cursor Cursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return nil, ErrInvalidCursor
	}

	return &cursor, nil
}
