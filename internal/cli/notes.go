package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"docqa/config"
	"docqa/internal/adapter/memstore"
	"docqa/internal/adapter/store"
	"docqa/internal/domain"
	"docqa/internal/port"
	"docqa/internal/usecase"
)

var (
	noteTitle      string
	noteContent    string
	notesJSON      bool
	notesEphemeral bool
)

var notesCmd = &cobra.Command{
	Use:   "notes",
	Short: "Keep free-form notes alongside your documents",
	Long: `Manage notes stored in a local database (default .docqa/notes.db).
Notes are independent of the document index.

Examples:
  docqa notes add --title "Refunds" --content "30 days, receipt required"
  docqa notes list
  docqa notes edit <id> --title "Refund policy"
  docqa notes rm <id>
  docqa notes clear`,
}

var notesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Save a new note",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withNotes(func(uc *usecase.NotesUseCase) error {
			note, err := uc.Save(noteTitle, noteContent)
			if err != nil {
				return friendlyNoteError(err)
			}
			if notesJSON {
				return writeJSON(cmd.OutOrStdout(), note)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved note %s\n", note.ID)
			return nil
		})
	},
}

var notesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notes, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withNotes(func(uc *usecase.NotesUseCase) error {
			notes, err := uc.List()
			if err != nil {
				return fmt.Errorf("failed to list notes: %w", err)
			}
			if notesJSON {
				if notes == nil {
					notes = []domain.Note{}
				}
				return writeJSON(cmd.OutOrStdout(), notes)
			}
			writeNotes(cmd.OutOrStdout(), notes)
			return nil
		})
	},
}

var notesEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Replace the title and content of a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withNotes(func(uc *usecase.NotesUseCase) error {
			current, err := uc.Get(args[0])
			if err != nil {
				return friendlyNoteError(err)
			}

			title, content := current.Title, current.Content
			if cmd.Flags().Changed("title") {
				title = noteTitle
			}
			if cmd.Flags().Changed("content") {
				content = noteContent
			}

			note, err := uc.Update(args[0], title, content)
			if err != nil {
				return friendlyNoteError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated note %s\n", note.ID)
			return nil
		})
	},
}

var notesRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withNotes(func(uc *usecase.NotesUseCase) error {
			if err := uc.Delete(args[0]); err != nil {
				return friendlyNoteError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted note %s\n", args[0])
			return nil
		})
	},
}

var notesClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every note",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withNotes(func(uc *usecase.NotesUseCase) error {
			n, err := uc.DeleteAll()
			if err != nil {
				return fmt.Errorf("failed to clear notes: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d notes\n", n)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(notesCmd)
	notesCmd.AddCommand(notesAddCmd, notesListCmd, notesEditCmd, notesRmCmd, notesClearCmd)

	notesCmd.PersistentFlags().BoolVar(&notesJSON, "json", false, "output as JSON")
	notesCmd.PersistentFlags().BoolVar(&notesEphemeral, "ephemeral", false, "use an in-memory store (nothing is saved)")

	for _, c := range []*cobra.Command{notesAddCmd, notesEditCmd} {
		c.Flags().StringVar(&noteTitle, "title", "", "note title")
		c.Flags().StringVar(&noteContent, "content", "", "note content")
	}
}

// withNotes opens the configured note store for the duration of fn.
func withNotes(fn func(uc *usecase.NotesUseCase) error) error {
	st, err := openNoteStore(GetConfig(), GetRootDir())
	if err != nil {
		return err
	}
	defer st.Close()

	return fn(usecase.NewNotesUseCase(st))
}

func openNoteStore(cfg *config.Config, dir string) (port.NoteStore, error) {
	if notesEphemeral {
		return memstore.NewNoteStore(), nil
	}

	if cfg.Notes.Path == "" {
		if err := config.EnsureDataDir(dir); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	st, err := store.NewBoltNoteStore(cfg.NotesDBPath(dir))
	if err != nil {
		return nil, fmt.Errorf("failed to open notes: %w", err)
	}
	return st, nil
}

func friendlyNoteError(err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidNote):
		return fmt.Errorf("a note needs a --title or --content")
	case errors.Is(err, domain.ErrNoteNotFound):
		return err
	default:
		return fmt.Errorf("notes: %w", err)
	}
}

func writeNotes(w io.Writer, notes []domain.Note) {
	if len(notes) == 0 {
		fmt.Fprintln(w, "No notes yet.")
		return
	}
	for _, n := range notes {
		title := n.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Fprintf(w, "%s  %s  %s\n", n.ID, n.UpdatedAt.Local().Format("2006-01-02 15:04"), title)
		if n.Content != "" {
			fmt.Fprintln(w, indent(truncate(n.Content, 200), "    "))
		}
	}
}
