// Package sources wires per-site parsers into a registry the scrape
// orchestrator resolves by source name.
package sources

import (
	"fmt"
	"sort"
	"sync"

	"github.com/strata-labs/skimmer/internal/core/domain"
	"github.com/strata-labs/skimmer/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.ParserRegistry = (*Registry)(nil)

// Registry maps source names to their parsers.
type Registry struct {
	mu      sync.RWMutex
	parsers map[string]driven.SourceParser
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{
		parsers: make(map[string]driven.SourceParser),
	}
}

// Register adds a parser under its own source name. Registering the
// same source twice replaces the earlier parser.
func (r *Registry) Register(parser driven.SourceParser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parsers[parser.Source()] = parser
}

// Parser returns the parser for a source.
func (r *Registry) Parser(source string) (driven.SourceParser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	parser, ok := r.parsers[source]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedSource, source)
	}
	return parser, nil
}

// Sources lists registered source names, sorted for stable output.
func (r *Registry) Sources() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.parsers))
	for name := range r.parsers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
