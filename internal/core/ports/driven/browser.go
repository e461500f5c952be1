package driven

import (
	"context"
	"time"
)

// Tab describes one open browser tab.
type Tab struct {
	// ID is the tab identifier used by the other calls.
	ID string

	// URL is the tab's current location.
	URL string

	// Title is the tab's current title.
	Title string
}

// BrowserController drives a running browser. The orchestrator is
// agnostic to the underlying automation transport; this interface is
// all it sees.
type BrowserController interface {
	// ListTabs returns the currently open tabs.
	ListTabs(ctx context.Context) ([]Tab, error)

	// ScrollTab scrolls the tab towards the bottom of the page to load
	// more content.
	ScrollTab(ctx context.Context, tabID string) error

	// SnapshotDOM returns the tab's rendered HTML.
	SnapshotDOM(ctx context.Context, tabID string) (string, error)

	// Evaluate runs a script in the tab and returns its string result.
	// The call is abandoned after timeout.
	Evaluate(ctx context.Context, tabID, script string, timeout time.Duration) (string, error)

	// Close releases the browser connection.
	Close() error
}
