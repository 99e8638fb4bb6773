package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"docqa/internal/domain"
)

var (
	askDoc          docFlags
	askQuery        string
	askTopK         int
	askShowContexts bool
	askJSON         bool
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Answer a question from a document",
	Long: `Index a document, retrieve the passages closest to the question and ask the
configured model to answer using only those passages. When the answer is not in
the document the model replies "Not found in context."

Examples:
  docqa ask -f handbook.pdf -q "What is the refund window?"
  cat notes.txt | docqa ask -t - -q "Who owns the deploy?" --show-contexts`,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	addDocFlags(askCmd, &askDoc)
	askCmd.Flags().StringVarP(&askQuery, "query", "q", "", "question to answer (required)")
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of contexts to retrieve (default from config)")
	askCmd.Flags().BoolVar(&askShowContexts, "show-contexts", false, "print the retrieved contexts after the answer")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output as JSON")
	askCmd.MarkFlagRequired("query")
}

type askResult struct {
	Question string          `json:"question"`
	Answer   string          `json:"answer"`
	Contexts []ContextResult `json:"contexts"`
	Error    string          `json:"error,omitempty"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	session, err := buildSession(cmd, &askDoc, true, askJSON)
	if err != nil {
		return err
	}

	answer, err := session.Ask(askQuery, topKOrDefault(askTopK))
	if err != nil && !errors.Is(err, domain.ErrGenerationService) {
		return fmt.Errorf("ask failed: %w", err)
	}
	if err != nil {
		GetLogger().Warn("generation failed, showing retrieved contexts only", "err", err)
	}

	out := cmd.OutOrStdout()
	if askJSON {
		res := askResult{
			Question: askQuery,
			Answer:   answer.Text,
			Contexts: toContextResults(answer.Hits),
		}
		if err != nil {
			res.Error = err.Error()
		}
		if werr := writeJSON(out, res); werr != nil {
			return werr
		}
		return err
	}

	switch {
	case err != nil:
		fmt.Fprintln(out, "No answer: the generation service failed.")
	case answer.Text == "":
		fmt.Fprintln(out, "The model returned no answer.")
	default:
		fmt.Fprintln(out, answer.Text)
	}

	if askShowContexts || err != nil {
		fmt.Fprintln(out)
		writeContexts(out, answer.Hits, 0)
	}

	return err
}
