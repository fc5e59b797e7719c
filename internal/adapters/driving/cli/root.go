// Package cli provides the docflow command line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/docflow-cli/internal/core/ports/driving"
	"github.com/custodia-labs/docflow-cli/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// verbose enables debug logging for every command.
var verbose bool

// Services wired in by the composition root.
var (
	changeService   driving.ChangeService
	documentService driving.DocumentService
	progressService driving.ProgressService
	settingsService driving.SettingsService
)

var rootCmd = &cobra.Command{
	Use:   "docflow",
	Short: "Review and apply AI-proposed documentation changes",
	Long: `docflow asks the documentation backend what should change after a
product change, lets you review the proposed edits, creates and deletes,
and applies the ones you accept.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Services holds the driving ports the commands use.
type Services struct {
	Change   driving.ChangeService
	Document driving.DocumentService
	Progress driving.ProgressService
	Settings driving.SettingsService
}

// SetServices wires the driving ports into the commands.
func SetServices(s Services) {
	changeService = s.Change
	documentService = s.Document
	progressService = s.Progress
	settingsService = s.Settings
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
