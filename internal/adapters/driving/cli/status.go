package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show background task status",
	Long:  `Shows the scheduled background tasks and their recent runs.`,
	RunE:  runStatus,
}

var statusHistory int

func init() {
	statusCmd.Flags().IntVar(&statusHistory, "history", 3, "recent results to show per task")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if schedulerStore == nil {
		return errors.New("scheduler store not configured")
	}

	ctx := cmd.Context()
	tasks, err := schedulerStore.ListTasks(ctx)
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}

	if len(tasks) == 0 {
		cmd.Println("No scheduled tasks. Run 'skimmer watch' to start the scheduler.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TASK\tENABLED\tINTERVAL\tLAST RUN\tNEXT RUN\tLAST ERROR")
	for _, task := range tasks {
		fmt.Fprintf(w, "%s\t%t\t%s\t%s\t%s\t%s\n",
			task.ID, task.Enabled, task.Interval,
			formatTaskTime(task.LastRun), formatTaskTime(task.NextRun), task.LastError)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	for _, task := range tasks {
		history, err := schedulerStore.GetTaskHistory(ctx, task.ID, statusHistory)
		if err != nil {
			return fmt.Errorf("history for %s: %w", task.ID, err)
		}
		if len(history) == 0 {
			continue
		}
		cmd.Printf("\nRecent %s runs:\n", task.ID)
		for _, result := range history {
			state := "ok"
			if !result.Success {
				state = "failed: " + result.Error
			}
			cmd.Printf("  %s  %d items  %s\n",
				result.StartedAt.Format("2006-01-02 15:04:05"),
				result.ItemsProcessed, state)
		}
	}
	return nil
}

func formatTaskTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Format("2006-01-02 15:04")
}
