package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docflow-cli/internal/core/domain"
)

var inlineQuery string

var inlineCmd = &cobra.Command{
	Use:   "inline [text]",
	Short: "Suggest a rewrite of a passage",
	Long: `Ask the backend to rewrite a passage of documentation.

Pass the passage as the argument, or "-" to read it from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: runInline,
}

func init() {
	inlineCmd.Flags().StringVarP(&inlineQuery, "query", "q", "", "how the passage should change (required)")
	_ = inlineCmd.MarkFlagRequired("query")
	rootCmd.AddCommand(inlineCmd)
}

func runInline(cmd *cobra.Command, args []string) error {
	if changeService == nil {
		return errors.New("change service not configured")
	}

	text := args[0]
	if text == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		text = strings.TrimRight(string(data), "\n")
	}

	result, err := changeService.InlineEdit(cmd.Context(), domain.InlineEditRequest{
		SelectedText: text,
		Query:        inlineQuery,
	})
	if err != nil {
		return fmt.Errorf("inline edit failed: %w", err)
	}

	cmd.Println(result.Suggestion)
	if result.Explanation != "" {
		cmd.Println()
		cmd.Printf("Explanation: %s\n", result.Explanation)
	}
	return nil
}
