package domain

import "strings"

// NormalizeContent collapses every run of whitespace to a single space
// and trims the result. Containment comparisons operate on normalised
// content so that formatting-only differences (re-wrapped lines, extra
// blank lines between feed items) do not defeat the superset check.
func NormalizeContent(content string) string {
	return strings.Join(strings.Fields(content), " ")
}

// ContentEqual reports whether two markdown bodies are the same content
// after normalisation.
func ContentEqual(a, b string) bool {
	return NormalizeContent(a) == NormalizeContent(b)
}

// StrictlyContains reports whether candidate content strictly contains
// stored content: the normalised stored text must appear as a substring
// of the normalised candidate text, and the two must not be equal.
//
// This is the store's update law. An expanded thread or a profile with
// more fields contains its earlier scrape verbatim; a truncated
// re-scrape, a reordering, or a partially overlapping edit does not,
// and leaves the stored document untouched.
func StrictlyContains(candidate, stored string) bool {
	nc := NormalizeContent(candidate)
	ns := NormalizeContent(stored)
	if nc == ns {
		return false
	}
	return strings.Contains(nc, ns)
}
