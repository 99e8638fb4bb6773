package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"docqa/internal/tui"
)

var (
	chatDoc  docFlags
	chatTopK int
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Ask questions interactively against one indexed document",
	Long: `Open a terminal UI that keeps the index in memory between questions.
Type a question and press enter; browse retrieved contexts with up/down.
/rebuild re-indexes the document, /clear drops the index, /quit exits.

Examples:
  docqa chat -f handbook.pdf
  docqa chat -f handbook.pdf --chunk-size 200 --overlap 20`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
	addDocFlags(chatCmd, &chatDoc)
	chatCmd.Flags().IntVarP(&chatTopK, "top-k", "k", 0, "number of contexts to retrieve (default from config)")
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	if chatDoc.text == "-" {
		return fmt.Errorf("chat reads keystrokes from stdin; pass a file with -f instead of -t -")
	}

	req, err := buildRequest(cfg, &chatDoc, cmd.InOrStdin())
	if err != nil {
		return err
	}

	session, err := newSession(cfg, true, nil)
	if err != nil {
		return err
	}

	hasContent := req.Document != nil || req.PastedText != ""
	if hasContent {
		fmt.Fprintln(cmd.ErrOrStderr(), "Indexing...")
		if _, err := session.Build(*req); err != nil {
			return friendlyBuildError(err)
		}
	} else {
		req = nil
	}

	m := tui.New(session, req, topKOrDefault(chatTopK))
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("chat UI failed: %w", err)
	}
	return nil
}
