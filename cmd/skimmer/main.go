// Command skimmer ingests content from open browser tabs into a local
// document and vector store.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/strata-labs/skimmer/internal/adapters/driven/browser/devtools"
	"github.com/strata-labs/skimmer/internal/adapters/driven/config/file"
	"github.com/strata-labs/skimmer/internal/adapters/driven/embedding/voyage"
	"github.com/strata-labs/skimmer/internal/adapters/driven/storage/sqlite"
	"github.com/strata-labs/skimmer/internal/adapters/driving/cli"
	"github.com/strata-labs/skimmer/internal/core/domain"
	"github.com/strata-labs/skimmer/internal/core/ports/driven"
	"github.com/strata-labs/skimmer/internal/core/ports/driving"
	"github.com/strata-labs/skimmer/internal/core/services"
	"github.com/strata-labs/skimmer/internal/logger"
	"github.com/strata-labs/skimmer/internal/postprocessors"
	"github.com/strata-labs/skimmer/internal/postprocessors/chunker"
	"github.com/strata-labs/skimmer/internal/sources"
	"github.com/strata-labs/skimmer/internal/sources/substack"
	"github.com/strata-labs/skimmer/internal/sources/twitter"
)

// version is overridden at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "skimmer:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	stopWatch, err := cfg.Watch(func() {
		logger.Info("configuration reloaded from %s", cfg.Path())
	})
	if err == nil {
		defer stopWatch()
	}

	store, err := sqlite.NewStore("")
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	docs := store.DocumentStore()
	vectors := store.ChunkVectorStore()
	cursors := store.CursorStore()
	tasks := store.SchedulerStore()

	// Embedding is optional: without an API endpoint, documents are
	// stored and chunked, and embedding waits for configuration.
	var embedService driven.EmbeddingService
	if apiURL := cfg.GetString("embedding.api_url"); apiURL != "" {
		embedService, err = voyage.NewEmbeddingService(voyage.Config{
			APIURL: apiURL,
			APIKey: cfg.GetString("embedding.api_key"),
			Model:  cfg.GetString("embedding.model"),
		})
		if err != nil {
			return fmt.Errorf("embedding service: %w", err)
		}
		defer embedService.Close()
	} else {
		logger.Warn("embedding.api_url not configured; chunks will stay unembedded")
	}

	var embedder *services.Embedder
	var reembedder *services.ReembedService
	if embedService != nil {
		embedder, err = services.NewEmbedder(docs, vectors, embedService,
			cfg.GetInt("embedding.workers"), cfg.GetInt("embedding.batch_size"))
		if err != nil {
			return fmt.Errorf("embedder: %w", err)
		}
		defer embedder.Close()
		reembedder = services.NewReembedService(docs, vectors, embedService,
			cfg.GetInt("embedding.batch_size"), 0, 0)
	}

	pipeline := buildPipeline(cfg)

	var ingestor *services.IngestService
	if embedder != nil {
		ingestor = services.NewIngestService(docs, vectors, pipeline, embedder)
	} else {
		ingestor = services.NewIngestService(docs, vectors, pipeline, nil)
	}

	registry := sources.NewRegistry()
	registry.Register(twitter.New())
	registry.Register(substack.New())

	browser := devtools.NewController(devtools.Config{
		Endpoint: cfg.GetString("browser.endpoint"),
	})
	defer browser.Close()

	orchestrator := services.NewOrchestrator(browser, registry, cursors, docs,
		ingestor, scrapeConfig(cfg))

	// A nil *ReembedService must stay a nil interface inside the
	// scheduler and the CLI.
	var sweeper driving.Reembedder
	if reembedder != nil {
		sweeper = reembedder
	}

	var scheduler *services.Scheduler
	schedulerCfg := schedulerConfig(cfg)
	if schedulerCfg.Enabled {
		scheduler = services.NewScheduler(schedulerCfg, tasks, orchestrator, sweeper)
	}

	deps := cli.Deps{
		Scraper:    orchestrator,
		Ingestor:   ingestor,
		Reembedder: sweeper,
		Documents:  docs,
		Tasks:      tasks,
		Version:    version,
	}
	if scheduler != nil {
		deps.Scheduler = scheduler
	}
	cli.Wire(deps)

	return cli.Execute()
}

// buildPipeline assembles the post-processor chain from configuration.
func buildPipeline(cfg driven.ConfigStore) driven.PostProcessorPipeline {
	var opts []chunker.Option
	if n := cfg.GetInt("chunker.max_chars"); n > 0 {
		opts = append(opts, chunker.WithMaxChars(n))
	}
	if n := cfg.GetInt("chunker.combine_under"); n > 0 {
		opts = append(opts, chunker.WithCombineUnder(n))
	}
	if dir := cfg.GetString("chunker.media_dir"); dir != "" {
		opts = append(opts, chunker.WithBasePath(dir))
	}
	return postprocessors.NewPipeline(chunker.New(opts...))
}

// scrapeConfig reads the scrape run bounds from configuration, leaving
// compiled-in defaults for unset keys.
func scrapeConfig(cfg driven.ConfigStore) services.ScrapeConfig {
	sc := services.ScrapeConfig{
		MaxIterations: cfg.GetInt("scrape.max_iterations"),
		QuietLimit:    cfg.GetInt("scrape.quiet_limit"),
	}
	if secs := cfg.GetInt("scrape.iteration_timeout_seconds"); secs > 0 {
		sc.IterationTimeout = time.Duration(secs) * time.Second
	}
	if ms := cfg.GetInt("scrape.scroll_interval_ms"); ms > 0 {
		sc.ScrollInterval = time.Duration(ms) * time.Millisecond
	}
	return sc
}

// schedulerConfig reads the background task configuration.
func schedulerConfig(cfg driven.ConfigStore) domain.SchedulerConfig {
	out := domain.DefaultSchedulerConfig()
	if _, ok := cfg.Get("scheduler.enabled"); ok {
		out.Enabled = cfg.GetBool("scheduler.enabled")
	}
	if mins := cfg.GetInt("scheduler.scrape_interval_minutes"); mins > 0 {
		out.TaskConfigs[domain.TaskIDScrape] = domain.TaskConfig{
			Enabled:  true,
			Interval: time.Duration(mins) * time.Minute,
		}
	}
	if mins := cfg.GetInt("scheduler.reembed_interval_minutes"); mins > 0 {
		out.TaskConfigs[domain.TaskIDReembed] = domain.TaskConfig{
			Enabled:  true,
			Interval: time.Duration(mins) * time.Minute,
		}
	}
	return out
}
