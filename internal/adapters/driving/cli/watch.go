package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the background scheduler",
	Long: `Runs the scheduler in the foreground, periodically scraping open
tabs and sweeping unembedded chunks until interrupted.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if taskScheduler == nil {
		return errors.New("scheduler not configured")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd.Println("Scheduler running. Press Ctrl-C to stop.")
	err := taskScheduler.Start(ctx)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	if stopErr := taskScheduler.Stop(); stopErr != nil && err == nil {
		err = stopErr
	}
	return err
}
