package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	promptDoc   docFlags
	promptQuery string
	promptTopK  int
)

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Print the grounded prompt for a question without calling a model",
	Long: `Index a document, retrieve contexts for the question and print the exact prompt
that ask would send to the generation model. Useful for feeding another model by hand.

Examples:
  docqa prompt -f handbook.pdf -q "What is the refund window?" | pbcopy`,
	RunE: runPromptCmd,
}

func init() {
	rootCmd.AddCommand(promptCmd)
	addDocFlags(promptCmd, &promptDoc)
	promptCmd.Flags().StringVarP(&promptQuery, "query", "q", "", "question to build the prompt for (required)")
	promptCmd.Flags().IntVarP(&promptTopK, "top-k", "k", 0, "number of contexts to retrieve (default from config)")
	promptCmd.MarkFlagRequired("query")
}

func runPromptCmd(cmd *cobra.Command, args []string) error {
	session, err := buildSession(cmd, &promptDoc, false, true)
	if err != nil {
		return err
	}

	prompt, hits, err := session.Prompt(promptQuery, topKOrDefault(promptTopK))
	if err != nil {
		return fmt.Errorf("failed to build prompt: %w", err)
	}
	GetLogger().Debug("prompt built", "contexts", len(hits), "chars", len(prompt))

	fmt.Fprintln(cmd.OutOrStdout(), prompt)
	return nil
}
