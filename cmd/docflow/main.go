// Command docflow reviews and applies AI-proposed documentation changes.
package main

import (
	"fmt"
	"os"

	"github.com/custodia-labs/docflow-cli/internal/adapters/driven/backend"
	"github.com/custodia-labs/docflow-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docflow-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docflow-cli/internal/adapters/driven/stream"
	"github.com/custodia-labs/docflow-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/docflow-cli/internal/core/domain"
	"github.com/custodia-labs/docflow-cli/internal/core/ports/driven"
	"github.com/custodia-labs/docflow-cli/internal/core/services"
	"github.com/custodia-labs/docflow-cli/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	settingsService := services.NewSettingsService(configStore())
	settings, err := settingsService.Get()
	if err != nil {
		logger.Warn("loading settings: %v, using defaults", err)
		defaults := settingsService.GetDefaults()
		settings = &defaults
	}

	client, err := backend.NewClient(backend.Config{
		BaseURL:           settings.API.BaseURL,
		Timeout:           settings.API.Timeout,
		RequestsPerSecond: float64(settings.API.RequestsPerSecond),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}

	documentService := services.NewDocumentService(
		client,
		memory.NewTTLCache[domain.DocumentTree](settings.Cache.TTL),
		memory.NewTTLCache[[]domain.DocumentVersion](settings.Cache.TTL),
	)
	changeService := services.NewChangeService(client, documentService)

	var progressService *services.ProgressChannel
	if dialer, err := stream.NewDialer(settings.API.BaseURL); err != nil {
		logger.Warn("progress stream unavailable: %v", err)
	} else {
		progressService = services.NewProgressChannel(dialer, services.ProgressOptions{
			ReconnectInterval:    settings.Stream.ReconnectInterval,
			MaxReconnectAttempts: settings.Stream.MaxReconnectAttempts,
		})
	}

	svc := cli.Services{
		Change:   changeService,
		Document: documentService,
		Settings: settingsService,
	}
	if progressService != nil {
		svc.Progress = progressService
	}
	cli.SetServices(svc)
	cli.SetVersion(version)

	return cli.Execute()
}

// configStore returns the TOML store under ~/.docflow, or an in-memory
// store when the directory cannot be used.
func configStore() driven.ConfigStore {
	store, err := file.NewConfigStore("")
	if err != nil {
		logger.Warn("config directory unavailable: %v, settings will not persist", err)
		return memory.NewConfigStore(nil)
	}
	return store
}
