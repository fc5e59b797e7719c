// Package tui provides the interactive change review interface for docflow.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/docflow-cli/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces used by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Change owns the change set, the selection and apply.
	Change driving.ChangeService

	// Progress streams analysis progress. Optional; without it analysis is blocking.
	Progress driving.ProgressService

	// Document resolves the optional document an analysis is scoped to.
	Document driving.DocumentService

	// Settings supplies the default streaming choice.
	Settings driving.SettingsService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Change == nil {
		return ErrMissingChangeService
	}
	return nil
}

// streamByDefault reports whether new analyses should stream unless toggled off.
func (p *Ports) streamByDefault() bool {
	if p.Progress == nil {
		return false
	}
	if p.Settings == nil {
		return true
	}
	settings, err := p.Settings.Get()
	if err != nil {
		return p.Settings.GetDefaults().Stream.Enabled
	}
	return settings.Stream.Enabled
}
