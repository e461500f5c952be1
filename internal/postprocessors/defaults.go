package postprocessors

import (
	"github.com/strata-labs/skimmer/internal/core/ports/driven"
	"github.com/strata-labs/skimmer/internal/postprocessors/chunker"
)

// RegisterDefaults registers all built-in processors with the registry.
// Call this during application initialisation to enable standard processors.
func RegisterDefaults(r *Registry) {
	r.Register("chunker", buildChunker)
}

// buildChunker creates a chunker processor from generic config.
// Supported config keys:
//   - max_chars (int): Hard chunk size ceiling in characters (default: 3000)
//   - combine_under (int): Merge adjacent sections below this size (default: 1500)
//   - media_dir (string): Directory for resolving relative media references
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option

	if cfg != nil {
		if max := getIntFromConfig(cfg, "max_chars"); max > 0 {
			opts = append(opts, chunker.WithMaxChars(max))
		}
		if under := getIntFromConfig(cfg, "combine_under"); under > 0 {
			opts = append(opts, chunker.WithCombineUnder(under))
		}
		if dir, ok := cfg["media_dir"].(string); ok && dir != "" {
			opts = append(opts, chunker.WithBasePath(dir))
		}
	}

	return chunker.New(opts...), nil
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) int {
	val, ok := cfg[key]
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
