// Package voyage provides an embedding service adapter for a
// Voyage-compatible multimodal embedding endpoint.
package voyage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/strata-labs/skimmer/internal/core/domain"
	"github.com/strata-labs/skimmer/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultModel   = "voyage-multimodal-3"
	DefaultTimeout = 60 * time.Second

	// DefaultMaxBatchItems is the per-request input ceiling.
	DefaultMaxBatchItems = 32

	// DefaultMaxItemChars is the per-item content ceiling in characters.
	DefaultMaxItemChars = 16000
)

// Model dimensions for supported embedding models.
var modelDimensions = map[string]int{
	"voyage-multimodal-3": 1024,
}

// Config holds configuration for the voyage embedding service.
type Config struct {
	// APIURL is the embedding endpoint base URL (required). The /embed
	// path is appended if missing.
	APIURL string

	// APIKey authenticates requests when TokenSource is not set.
	APIKey string

	// TokenSource supplies bearer tokens, taking precedence over APIKey.
	// Used when the endpoint sits behind an OAuth-protected gateway.
	TokenSource oauth2.TokenSource

	// Model is the embedding model to use (default: voyage-multimodal-3).
	Model string

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration

	// MaxBatchItems caps inputs per request (default: 32).
	MaxBatchItems int

	// MaxItemChars caps the total text per input (default: 16000).
	MaxItemChars int

	// Retry is the backoff schedule for transient failures.
	Retry Policy
}

// EmbeddingService generates embeddings via a Voyage-compatible API.
type EmbeddingService struct {
	client        *http.Client
	apiURL        string
	apiKey        string
	tokens        oauth2.TokenSource
	model         string
	dimensions    int
	maxBatchItems int
	maxItemChars  int
	retry         Policy

	// sleep is replaceable in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// contentPart is one segment of a multimodal input on the wire.
type contentPart struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// embedInput is one embeddable item on the wire.
type embedInput struct {
	Content []contentPart `json:"content"`
}

// embeddingRequest is the API request format.
type embeddingRequest struct {
	Inputs    []embedInput `json:"inputs"`
	Model     string       `json:"model"`
	InputType string       `json:"input_type"`
}

// embeddingResponse is the API response format.
type embeddingResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Error      string      `json:"error,omitempty"`
}

// NewEmbeddingService creates a new voyage embedding service.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("voyage: API URL is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxBatchItems == 0 {
		cfg.MaxBatchItems = DefaultMaxBatchItems
	}
	if cfg.MaxItemChars == 0 {
		cfg.MaxItemChars = DefaultMaxItemChars
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = DefaultPolicy()
	}

	dimensions, ok := modelDimensions[cfg.Model]
	if !ok {
		return nil, fmt.Errorf("voyage: unsupported model %q", cfg.Model)
	}

	apiURL := strings.TrimRight(cfg.APIURL, "/")
	if !strings.HasSuffix(apiURL, "/embed") {
		apiURL += "/embed"
	}

	return &EmbeddingService{
		client:        &http.Client{Timeout: cfg.Timeout},
		apiURL:        apiURL,
		apiKey:        cfg.APIKey,
		tokens:        cfg.TokenSource,
		model:         cfg.Model,
		dimensions:    dimensions,
		maxBatchItems: cfg.MaxBatchItems,
		maxItemChars:  cfg.MaxItemChars,
		retry:         cfg.Retry,
		sleep: func(ctx context.Context, d time.Duration) error {
			timer := time.NewTimer(d)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
				return nil
			}
		},
	}, nil
}

// EmbedBatch generates one vector per input, in input order.
// The batch is validated client-side before any request is made;
// validation failures surface domain.ErrEmbeddingValidation and are
// never retried. Transient failures are retried per the configured
// backoff schedule and surface domain.ErrEmbedding once exhausted.
func (s *EmbeddingService) EmbedBatch(
	ctx context.Context,
	inputs []driven.EmbedInput,
) ([][]float32, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	if err := s.validate(inputs); err != nil {
		return nil, err
	}

	reqBody := embeddingRequest{
		Inputs:    make([]embedInput, 0, len(inputs)),
		Model:     s.model,
		InputType: "document",
	}
	for _, input := range inputs {
		wire := embedInput{Content: make([]contentPart, 0, len(input.Segments))}
		for _, seg := range input.Segments {
			switch seg.Kind {
			case driven.SegmentText:
				wire.Content = append(wire.Content, contentPart{Type: "text", Text: seg.Text})
			case driven.SegmentImage:
				wire.Content = append(wire.Content, contentPart{Type: "image_url", ImageURL: seg.ImageURL})
			}
		}
		reqBody.Inputs = append(reqBody.Inputs, wire)
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < s.retry.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay, ok := s.retry.Next(attempt - 1)
			if !ok {
				break
			}
			if err := s.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		vectors, err := s.send(ctx, jsonBody, len(inputs))
		if err == nil {
			return vectors, nil
		}
		if !isTransient(err) {
			return nil, fmt.Errorf("%w: %v", domain.ErrEmbedding, err)
		}
		lastErr = err
	}

	return nil, fmt.Errorf("%w: retries exhausted: %v", domain.ErrEmbedding, lastErr)
}

// validate enforces client-side batch limits so doomed requests are
// never sent.
func (s *EmbeddingService) validate(inputs []driven.EmbedInput) error {
	if len(inputs) > s.maxBatchItems {
		return fmt.Errorf("%w: %d inputs exceeds batch limit %d",
			domain.ErrEmbeddingValidation, len(inputs), s.maxBatchItems)
	}

	for i, input := range inputs {
		if len(input.Segments) == 0 {
			return fmt.Errorf("%w: input %d has no segments", domain.ErrEmbeddingValidation, i)
		}
		chars := 0
		for _, seg := range input.Segments {
			switch seg.Kind {
			case driven.SegmentText:
				if seg.Text == "" {
					return fmt.Errorf("%w: input %d has an empty text segment",
						domain.ErrEmbeddingValidation, i)
				}
				chars += len(seg.Text)
			case driven.SegmentImage:
				if seg.ImageURL == "" {
					return fmt.Errorf("%w: input %d has an empty image reference",
						domain.ErrEmbeddingValidation, i)
				}
			default:
				return fmt.Errorf("%w: input %d has unknown segment kind %q",
					domain.ErrEmbeddingValidation, i, seg.Kind)
			}
		}
		if chars > s.maxItemChars {
			return fmt.Errorf("%w: input %d has %d chars, limit %d",
				domain.ErrEmbeddingValidation, i, chars, s.maxItemChars)
		}
	}

	return nil
}

// transientError marks failures worth retrying.
type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func isTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}

// send performs one API call.
func (s *EmbeddingService) send(ctx context.Context, body []byte, want int) ([][]float32, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if err := s.authorize(req); err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		// Network-level failures are worth retrying.
		return nil, &transientError{fmt.Errorf("send request: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &transientError{fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, &transientError{
			fmt.Errorf("voyage error (status %d): %s", resp.StatusCode, string(respBody)),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("voyage error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var embedResp embeddingResponse
	if err := json.Unmarshal(respBody, &embedResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if embedResp.Error != "" {
		return nil, fmt.Errorf("voyage error: %s", embedResp.Error)
	}
	if len(embedResp.Embeddings) != want {
		return nil, fmt.Errorf("voyage returned %d embeddings for %d inputs",
			len(embedResp.Embeddings), want)
	}

	return embedResp.Embeddings, nil
}

// authorize attaches bearer credentials when configured.
func (s *EmbeddingService) authorize(req *http.Request) error {
	if s.tokens != nil {
		token, err := s.tokens.Token()
		if err != nil {
			return fmt.Errorf("fetching token: %w", err)
		}
		token.SetAuthHeader(req)
		return nil
	}
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}
	return nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// MaxBatchItems returns the per-request input ceiling, letting callers
// size their batches without guessing.
func (s *EmbeddingService) MaxBatchItems() int {
	return s.maxBatchItems
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}
