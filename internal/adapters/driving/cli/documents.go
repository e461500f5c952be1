package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "List stored documents",
	Long:  `Lists ingested documents, newest first, filterable by source and location.`,
	RunE:  runDocuments,
}

var (
	documentsSource   string
	documentsLocation string
	documentsLimit    int
	documentsOffset   int
)

func init() {
	documentsCmd.Flags().StringVar(&documentsSource, "source", "", "filter by source")
	documentsCmd.Flags().StringVar(&documentsLocation, "location", "", "filter by location")
	documentsCmd.Flags().IntVar(&documentsLimit, "limit", 20, "maximum documents to list")
	documentsCmd.Flags().IntVar(&documentsOffset, "offset", 0, "documents to skip")
	rootCmd.AddCommand(documentsCmd)
}

func runDocuments(cmd *cobra.Command, _ []string) error {
	if documentStore == nil {
		return errors.New("document store not configured")
	}

	docs, err := documentStore.List(cmd.Context(),
		documentsSource, documentsLocation, documentsLimit, documentsOffset)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No documents stored.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "INGESTED\tSOURCE\tEMBEDDED\tTITLE\tKEY")
	for _, doc := range docs {
		embedded := "pending"
		if doc.EmbeddedAt != nil {
			embedded = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			doc.IngestedAt.Format("2006-01-02 15:04"),
			doc.Source, embedded, truncate(doc.Title, 40), doc.Key)
	}
	return w.Flush()
}

// truncate shortens s to at most n runes with an ellipsis.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
