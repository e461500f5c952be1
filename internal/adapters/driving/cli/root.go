// Package cli implements the skimmer command line interface.
// Commands talk to the core services through the driving ports; the
// composition root injects the wired services via Wire before Execute.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/strata-labs/skimmer/internal/core/ports/driven"
	"github.com/strata-labs/skimmer/internal/core/ports/driving"
	"github.com/strata-labs/skimmer/internal/logger"
)

// version is stamped at wiring time.
var version = "dev"

// taskRunner is the slice of the scheduler the watch command needs.
type taskRunner interface {
	Start(ctx context.Context) error
	Stop() error
}

// Services injected by the composition root.
var (
	scrapeOrchestrator driving.ScrapeOrchestrator
	ingestor           driving.Ingestor
	reembedder         driving.Reembedder
	documentStore      driven.DocumentStore
	schedulerStore     driven.SchedulerStore
	taskScheduler      taskRunner
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "skimmer",
	Short: "Ingest content from open browser tabs into a local vector store",
	Long: `Skimmer scrapes the pages already open in your browser, turns them
into deduplicated markdown documents, and chunks and embeds them into a
local vector store.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"print debug output for each pipeline step")
}

// Deps carries the wired services for the CLI.
type Deps struct {
	Scraper    driving.ScrapeOrchestrator
	Ingestor   driving.Ingestor
	Reembedder driving.Reembedder
	Documents  driven.DocumentStore
	Tasks      driven.SchedulerStore
	Scheduler  taskRunner
	Version    string
}

// Wire injects the services the commands use.
func Wire(d Deps) {
	scrapeOrchestrator = d.Scraper
	ingestor = d.Ingestor
	reembedder = d.Reembedder
	documentStore = d.Documents
	schedulerStore = d.Tasks
	taskScheduler = d.Scheduler
	if d.Version != "" {
		version = d.Version
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
