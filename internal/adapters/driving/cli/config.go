package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View and change docflow configuration.

Settings are stored in ~/.docflow/config.toml. The backend URL can also be
set with the DOCFLOW_API_BASE_URL environment variable.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> [value]",
	Short: "Set a configuration value",
	Long: `Set a configuration value. Omitting the value resets the key to its default.

Keys:
  api.base_url                   Backend root, e.g. http://localhost:8000
  api.timeout_seconds            Per-request timeout
  api.requests_per_second        Client-side rate limit
  stream.enabled                 Stream analysis progress by default
  stream.reconnect_interval_ms   Wait between reconnect attempts
  stream.max_reconnect_attempts  Reconnects after an abnormal close
  cache.ttl_seconds              Document cache lifetime`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runConfigSet,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[API]")
	cmd.Printf("  Base URL: %s\n", settings.API.BaseURL)
	cmd.Printf("  Timeout: %s\n", settings.API.Timeout)
	cmd.Printf("  Requests/second: %d\n", settings.API.RequestsPerSecond)
	cmd.Println()

	cmd.Println("[Stream]")
	cmd.Printf("  Enabled: %s\n", yesNo(settings.Stream.Enabled))
	cmd.Printf("  Reconnect interval: %s\n", settings.Stream.ReconnectInterval)
	cmd.Printf("  Max reconnect attempts: %d\n", settings.Stream.MaxReconnectAttempts)
	cmd.Println()

	cmd.Println("[Cache]")
	cmd.Printf("  TTL: %s\n", settings.Cache.TTL)
	cmd.Println()

	cmd.Printf("Config file: %s\n", settingsService.Path())
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key := args[0]
	value := ""
	if len(args) > 1 {
		value = args[1]
	}

	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	if value == "" {
		cmd.Printf("%s reset to default\n", key)
	} else {
		cmd.Printf("%s = %s\n", key, value)
	}
	return nil
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	cmd.Println(settingsService.Path())
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
