package sources

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strata-labs/skimmer/internal/core/domain"
	"github.com/strata-labs/skimmer/internal/core/ports/driven"
)

type stubParser struct{ source string }

func (s *stubParser) Source() string { return s.source }

func (s *stubParser) Extract(context.Context, string, string) (driven.ExtractResult, error) {
	return driven.ExtractResult{}, nil
}

func TestRegistry_RegisterAndResolve(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubParser{source: "twitter"})
	r.Register(&stubParser{source: "substack"})

	parser, err := r.Parser("twitter")
	require.NoError(t, err)
	assert.Equal(t, "twitter", parser.Source())

	assert.Equal(t, []string{"substack", "twitter"}, r.Sources())
}

func TestRegistry_UnknownSource(t *testing.T) {
	r := NewRegistry()

	_, err := r.Parser("myspace")
	assert.ErrorIs(t, err, domain.ErrUnsupportedSource)
}

func TestRegistry_ReplacesParser(t *testing.T) {
	r := NewRegistry()
	first := &stubParser{source: "twitter"}
	second := &stubParser{source: "twitter"}
	r.Register(first)
	r.Register(second)

	parser, err := r.Parser("twitter")
	require.NoError(t, err)
	assert.Same(t, driven.SourceParser(second), parser)
	assert.Len(t, r.Sources(), 1)
}
