package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var reembedCmd = &cobra.Command{
	Use:   "reembed",
	Short: "Embed chunks that are missing vectors",
	Long: `Sweeps the chunk store for chunks without vectors, either flagged
after failed embedding calls or left behind by an interrupted run, and
embeds them.`,
	RunE: runReembed,
}

func init() {
	rootCmd.AddCommand(reembedCmd)
}

func runReembed(cmd *cobra.Command, _ []string) error {
	if reembedder == nil {
		return errors.New("reembed service not configured")
	}

	cmd.Println("Sweeping for unembedded chunks...")
	count, err := reembedder.Sweep(cmd.Context())
	if err != nil {
		return fmt.Errorf("reembed sweep: %w", err)
	}

	if count == 0 {
		cmd.Println("Nothing to embed.")
		return nil
	}
	cmd.Printf("Embedded %d chunks.\n", count)
	return nil
}
