package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/strata-labs/skimmer/internal/core/domain"
	"github.com/strata-labs/skimmer/internal/core/ports/driven"
	"github.com/strata-labs/skimmer/internal/core/ports/driving"
	"github.com/strata-labs/skimmer/internal/logger"
)

// Scrape run defaults.
const (
	DefaultMaxIterations    = 50
	DefaultIterationTimeout = 30 * time.Second
	DefaultQuietLimit       = 3
	DefaultScrollInterval   = 2 * time.Second
)

// ScrapeConfig bounds a scrape run.
type ScrapeConfig struct {
	// MaxIterations caps scroll/extract/persist cycles per run.
	MaxIterations int

	// IterationTimeout is the execution budget of one cycle. A cycle
	// exceeding it is abandoned; the run continues from the last
	// persisted cursor.
	IterationTimeout time.Duration

	// QuietLimit stops the run after this many consecutive cycles that
	// produced no new or updated documents.
	QuietLimit int

	// ScrollInterval paces scrolling so pages get time to render.
	ScrollInterval time.Duration

	// Hosts maps a source name to the hostnames whose tabs it scrapes.
	Hosts map[string][]string
}

// DefaultScrapeConfig returns the built-in run bounds and tab mapping.
func DefaultScrapeConfig() ScrapeConfig {
	return ScrapeConfig{
		MaxIterations:    DefaultMaxIterations,
		IterationTimeout: DefaultIterationTimeout,
		QuietLimit:       DefaultQuietLimit,
		ScrollInterval:   DefaultScrollInterval,
		Hosts: map[string][]string{
			"twitter":  {"x.com", "twitter.com"},
			"substack": {"substack.com"},
		},
	}
}

// Ensure Orchestrator implements the interface.
var _ driving.ScrapeOrchestrator = (*Orchestrator)(nil)

// Orchestrator drives scroll/extract/persist runs against browser
// tabs. Each (source, location) pair has at most one active run; the
// run owns that pair's cursor exclusively and persists it after every
// completed cycle, so an interrupted run resumes where it stopped.
type Orchestrator struct {
	browser  driven.BrowserController
	parsers  driven.ParserRegistry
	cursors  driven.CursorStore
	docs     driven.DocumentStore
	ingestor driving.Ingestor
	limiter  *rate.Limiter
	cfg      ScrapeConfig

	mu     sync.Mutex
	active map[string]struct{}
}

// NewOrchestrator creates a scrape orchestrator. Zero config fields
// fall back to defaults.
func NewOrchestrator(
	browser driven.BrowserController,
	parsers driven.ParserRegistry,
	cursors driven.CursorStore,
	docs driven.DocumentStore,
	ingestor driving.Ingestor,
	cfg ScrapeConfig,
) *Orchestrator {
	defaults := DefaultScrapeConfig()
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = defaults.MaxIterations
	}
	if cfg.IterationTimeout <= 0 {
		cfg.IterationTimeout = defaults.IterationTimeout
	}
	if cfg.QuietLimit <= 0 {
		cfg.QuietLimit = defaults.QuietLimit
	}
	if cfg.ScrollInterval <= 0 {
		cfg.ScrollInterval = defaults.ScrollInterval
	}
	if cfg.Hosts == nil {
		cfg.Hosts = defaults.Hosts
	}

	return &Orchestrator{
		browser:  browser,
		parsers:  parsers,
		cursors:  cursors,
		docs:     docs,
		ingestor: ingestor,
		limiter:  rate.NewLimiter(rate.Every(cfg.ScrollInterval), 1),
		cfg:      cfg,
		active:   make(map[string]struct{}),
	}
}

// Run executes one scrape run for a (source, location) pair against
// the given browser tab, resuming from the persisted cursor.
func (o *Orchestrator) Run(ctx context.Context, source, location, tabID string) driving.Report {
	start := time.Now()
	report := driving.Report{Source: source, Location: location, FinalState: driving.StateIdle}
	fail := func(err error) driving.Report {
		report.FinalState = driving.StateFailed
		report.Err = err
		report.Duration = time.Since(start)
		return report
	}

	runKey := source + "/" + location
	if !o.acquire(runKey) {
		return fail(fmt.Errorf("%w: %s", domain.ErrRunInProgress, runKey))
	}
	defer o.release(runKey)

	parser, err := o.parsers.Parser(source)
	if err != nil {
		return fail(err)
	}

	cursor := ""
	if saved, err := o.cursors.Get(ctx, source, location); err == nil {
		cursor = saved.Cursor
	} else if !errors.Is(err, domain.ErrNotFound) {
		return fail(fmt.Errorf("load cursor: %w", err))
	}

	known, err := o.docs.KnownKeys(ctx, source)
	if err != nil {
		return fail(fmt.Errorf("load known keys: %w", err))
	}

	logger.Info("scrape %s: starting (cursor %q, %d known keys)", runKey, cursor, len(known))

	quiet := 0
	for report.Iterations < o.cfg.MaxIterations {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		report.Iterations++

		result, fresh, err := o.iterate(ctx, parser, tabID, location, cursor, known, &report)
		if err != nil {
			// Timeouts and parse failures abort this cycle only; the
			// last persisted cursor remains valid.
			if errors.Is(err, domain.ErrScrapeTimeout) || errors.Is(err, domain.ErrParse) {
				logger.Warn("scrape %s: iteration %d: %v", runKey, report.Iterations, err)
				quiet++
				if quiet >= o.cfg.QuietLimit {
					break
				}
				continue
			}
			return fail(err)
		}

		cursor = result.NextCursor
		if err := o.cursors.Save(ctx, domain.ScrapeCursor{
			Source:      source,
			Location:    location,
			Cursor:      cursor,
			LastSuccess: time.Now().UTC(),
		}); err != nil {
			return fail(fmt.Errorf("save cursor: %w", err))
		}

		if !result.HasMore {
			break
		}
		if fresh == 0 {
			quiet++
			if quiet >= o.cfg.QuietLimit {
				break
			}
		} else {
			quiet = 0
		}
	}

	report.Duration = time.Since(start)
	logger.Info("scrape %s: done after %d iterations (%d created, %d updated, %d skipped, %d failed)",
		runKey, report.Iterations, report.Created, report.Updated, report.Skipped, report.Failed)
	return report
}

// iterate runs one scroll/extract/persist cycle under the iteration
// budget. It returns the extract result and the number of candidates
// that created or updated a document.
func (o *Orchestrator) iterate(
	ctx context.Context,
	parser driven.SourceParser,
	tabID, location, cursor string,
	known map[string]struct{},
	report *driving.Report,
) (driven.ExtractResult, int, error) {
	itCtx, cancel := context.WithTimeout(ctx, o.cfg.IterationTimeout)
	defer cancel()

	// Scrolling.
	if err := o.limiter.Wait(itCtx); err != nil {
		return driven.ExtractResult{}, 0, o.iterationErr(ctx, driving.StateScrolling, err)
	}
	if err := o.browser.ScrollTab(itCtx, tabID); err != nil {
		return driven.ExtractResult{}, 0, o.iterationErr(ctx, driving.StateScrolling, err)
	}

	// Extracting.
	snapshot, err := o.browser.SnapshotDOM(itCtx, tabID)
	if err != nil {
		return driven.ExtractResult{}, 0, o.iterationErr(ctx, driving.StateExtracting, err)
	}
	result, err := parser.Extract(itCtx, snapshot, cursor)
	if err != nil {
		return driven.ExtractResult{}, 0, err
	}

	// Persisting. Failures are scoped to a single candidate.
	fresh := 0
	for _, candidate := range result.Candidates {
		candidate.Location = location

		// URL-identified items already stored skip ingestion work.
		// URL-less items (message threads) always go through the
		// store, where grown content takes the superset update path.
		key := candidate.IdentityKey()
		if candidate.URL != "" {
			if _, seen := known[key]; seen {
				report.Skipped++
				continue
			}
		}

		outcome, err := o.ingestor.Ingest(itCtx, candidate)
		switch outcome {
		case domain.OutcomeCreated:
			report.Created++
			fresh++
		case domain.OutcomeUpdated:
			report.Updated++
			fresh++
		case domain.OutcomeSkipped:
			report.Skipped++
		case domain.OutcomeFailed:
			// A failure under an expired iteration budget abandons the
			// whole cycle: the cursor must not advance past candidates
			// that were never stored.
			if itErr := itCtx.Err(); itErr != nil {
				return driven.ExtractResult{}, fresh,
					o.iterationErr(ctx, driving.StatePersisting, itErr)
			}
			report.Failed++
			logger.Warn("scrape: ingest %s: %v", key, err)
			continue
		}
		known[key] = struct{}{}
	}

	return result, fresh, nil
}

// iterationErr classifies a failed cycle: budget exhaustion maps to
// the scrape timeout error, everything else keeps its cause.
func (o *Orchestrator) iterationErr(ctx context.Context, state driving.RunState, err error) error {
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return fmt.Errorf("%w: %s", domain.ErrScrapeTimeout, state)
	}
	return fmt.Errorf("%s: %w", state, err)
}

// RunAll discovers scrapeable open tabs and runs them concurrently,
// one run per (source, location). Failures in one run never abort the
// others.
func (o *Orchestrator) RunAll(ctx context.Context) []driving.Report {
	tabs, err := o.browser.ListTabs(ctx)
	if err != nil {
		return []driving.Report{{
			FinalState: driving.StateFailed,
			Err:        fmt.Errorf("list tabs: %w", err),
		}}
	}

	type target struct {
		source, location, tabID string
	}
	var targets []target
	seen := make(map[string]struct{})
	for _, tab := range tabs {
		source := o.matchSource(tab.URL)
		if source == "" {
			continue
		}
		runKey := source + "/" + tab.URL
		if _, dup := seen[runKey]; dup {
			continue
		}
		seen[runKey] = struct{}{}
		targets = append(targets, target{source: source, location: tab.URL, tabID: tab.ID})
	}

	reports := make([]driving.Report, len(targets))
	var wg sync.WaitGroup
	for i, tgt := range targets {
		i, tgt := i, tgt
		wg.Add(1)
		go func() {
			defer wg.Done()
			reports[i] = o.Run(ctx, tgt.source, tgt.location, tgt.tabID)
		}()
	}
	wg.Wait()

	return reports
}

// matchSource maps a tab URL to a registered source via the host
// table, or "" when no source scrapes it.
func (o *Orchestrator) matchSource(tabURL string) string {
	u, err := url.Parse(tabURL)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	host := strings.ToLower(u.Hostname())

	for source, hosts := range o.cfg.Hosts {
		for _, h := range hosts {
			if host == h || strings.HasSuffix(host, "."+h) {
				return source
			}
		}
	}
	return ""
}

func (o *Orchestrator) acquire(runKey string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, busy := o.active[runKey]; busy {
		return false
	}
	o.active[runKey] = struct{}{}
	return true
}

func (o *Orchestrator) release(runKey string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.active, runKey)
}
