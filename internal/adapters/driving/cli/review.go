package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/docflow-cli/internal/adapters/driving/tui"
)

// errNotTerminal is returned when review is started without a terminal.
var errNotTerminal = errors.New("review needs an interactive terminal; use analyze instead")

// isTerminal reports whether stdin and stdout are terminals.
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

var reviewCmd = &cobra.Command{
	Use:   "review [query]",
	Short: "Review proposed changes interactively",
	Long: `Launch the interactive review UI.

Describe a product change, watch the analysis progress, then select,
preview, apply or ignore each proposed documentation change.

Controls:
  tab      - Cycle filter (all, edit, create, delete)
  space    - Toggle selection
  a / A    - Select all / deselect all
  enter    - Apply current change
  x        - Apply selected changes
  d / D    - Ignore current / ignore selected
  p        - Preview diff
  esc      - Back
  q        - Quit`,
	RunE: runReview,
}

func init() {
	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	if !isTerminal() {
		return errNotTerminal
	}

	ports := &tui.Ports{
		Change:   changeService,
		Progress: progressService,
		Document: documentService,
		Settings: settingsService,
	}

	app, err := tui.NewApp(ports)
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(cmd.Context())
	if len(args) > 0 {
		app.WithQuery(strings.Join(args, " "))
	}

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
