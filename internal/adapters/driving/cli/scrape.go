package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/strata-labs/skimmer/internal/core/ports/driving"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape open browser tabs into the document store",
	Long: `Discovers scrapeable tabs in the running browser and runs one scrape
per tab, resuming each from its saved position.
With --source, --location and --tab a single run is executed instead.`,
	RunE: runScrape,
}

var (
	scrapeSource   string
	scrapeLocation string
	scrapeTab      string
)

func init() {
	scrapeCmd.Flags().StringVar(&scrapeSource, "source", "",
		"scrape a single source (requires --location and --tab)")
	scrapeCmd.Flags().StringVar(&scrapeLocation, "location", "",
		"page URL being scraped")
	scrapeCmd.Flags().StringVar(&scrapeTab, "tab", "",
		"browser tab ID to drive")
	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, _ []string) error {
	if scrapeOrchestrator == nil {
		return errors.New("scrape service not configured")
	}

	ctx := cmd.Context()

	var reports []driving.Report
	if scrapeSource != "" || scrapeLocation != "" || scrapeTab != "" {
		if scrapeSource == "" || scrapeLocation == "" || scrapeTab == "" {
			return errors.New("--source, --location and --tab must be set together")
		}
		cmd.Printf("Scraping %s (%s)...\n", scrapeSource, scrapeLocation)
		reports = []driving.Report{
			scrapeOrchestrator.Run(ctx, scrapeSource, scrapeLocation, scrapeTab),
		}
	} else {
		cmd.Println("Scraping open tabs...")
		reports = scrapeOrchestrator.RunAll(ctx)
	}

	// Let queued embedding work finish before reporting.
	if ingestor != nil {
		ingestor.Flush()
	}

	if len(reports) == 0 {
		cmd.Println("No scrapeable tabs open.")
		return nil
	}

	failures := 0
	for _, report := range reports {
		if report.Err != nil {
			failures++
			cmd.Printf("%s %s: failed after %d iterations: %v\n",
				report.Source, report.Location, report.Iterations, report.Err)
			continue
		}
		cmd.Printf("%s %s: %d created, %d updated, %d skipped, %d failed (%d iterations in %s)\n",
			report.Source, report.Location,
			report.Created, report.Updated, report.Skipped, report.Failed,
			report.Iterations, report.Duration.Round(time.Millisecond))
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d runs failed", failures, len(reports))
	}
	return nil
}
