package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandidateNormalize(t *testing.T) {
	c := Candidate{
		URL:     "  https://example.com/post/1 ",
		Title:   " A title\n",
		Content: "  Hello world  ",
		Source:  "twitter",
	}
	require.NoError(t, c.Normalize())
	assert.Equal(t, "https://example.com/post/1", c.URL)
	assert.Equal(t, "A title", c.Title)
	assert.Equal(t, "Hello world", c.Content)
}

func TestCandidateNormalize_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		candidate Candidate
	}{
		{
			name:      "missing source",
			candidate: Candidate{URL: "https://x.test/1", Content: "hi"},
		},
		{
			name:      "missing content",
			candidate: Candidate{URL: "https://x.test/1", Source: "twitter"},
		},
		{
			name:      "no identity at all",
			candidate: Candidate{Source: "twitter", Content: "hi"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.candidate.Normalize()
			assert.ErrorIs(t, err, ErrInvalidCandidate)
		})
	}
}

func TestIdentityKey_URL(t *testing.T) {
	c := Candidate{URL: "https://example.com/post/1", Source: "twitter"}
	assert.Equal(t, "https://example.com/post/1", c.IdentityKey())
}

func TestIdentityKey_Composite(t *testing.T) {
	c1 := Candidate{
		Source:       "linkedin",
		Location:     "https://linkedin.test/messaging",
		Title:        "Chat",
		Participants: []string{"alice", "bob"},
	}
	c2 := Candidate{
		Source:       "linkedin",
		Location:     "https://linkedin.test/messaging",
		Title:        "Chat",
		Participants: []string{"bob", "alice"}, // order must not matter
	}
	c3 := Candidate{
		Source:       "linkedin",
		Location:     "https://linkedin.test/messaging",
		Title:        "Chat",
		Participants: []string{"alice", "carol"},
	}

	assert.Equal(t, c1.IdentityKey(), c2.IdentityKey())
	assert.NotEqual(t, c1.IdentityKey(), c3.IdentityKey())
	assert.Contains(t, c1.IdentityKey(), "linkedin/https://linkedin.test/messaging/")
}

func TestCandidateDocument(t *testing.T) {
	c := Candidate{
		URL:      "https://example.com/p/9",
		Title:    "T",
		Content:  "body",
		Source:   "substack",
		Location: "https://example.substack.com/inbox",
	}
	doc := c.Document()
	assert.Empty(t, doc.ID)
	assert.Equal(t, c.URL, doc.Key)
	assert.Equal(t, "body", doc.Content)
	assert.Nil(t, doc.EmbeddedAt)
}
