package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	searchDoc   docFlags
	searchQuery string
	searchTopK  int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Retrieve the passages closest to a query",
	Long: `Index a document and print the chunks most similar to the query, best first.
No generation model is called.

Examples:
  docqa search -f handbook.pdf -q "refund policy"
  docqa search -f notes.md -q "on-call rotation" -k 10 --json`,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	addDocFlags(searchCmd, &searchDoc)
	searchCmd.Flags().StringVarP(&searchQuery, "query", "q", "", "search query (required)")
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 0, "number of results (default from config)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output as JSON")
	searchCmd.MarkFlagRequired("query")
}

func runSearch(cmd *cobra.Command, args []string) error {
	session, err := buildSession(cmd, &searchDoc, false, searchJSON)
	if err != nil {
		return err
	}

	hits, err := session.Search(searchQuery, topKOrDefault(searchTopK))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if searchJSON {
		return writeJSON(out, toContextResults(hits))
	}

	if len(hits) == 0 {
		fmt.Fprintln(out, "No results found.")
		return nil
	}
	fmt.Fprintf(out, "Found %d results for: %s\n\n", len(hits), searchQuery)
	writeContexts(out, hits, 500)
	return nil
}
