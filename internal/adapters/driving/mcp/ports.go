package mcp

import (
	"github.com/custodia-labs/docflow-cli/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Change reviews and applies proposals.
	Change driving.ChangeService

	// Document reads the document tree.
	Document driving.DocumentService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Change == nil {
		return ErrMissingChangeService
	}
	// Document is optional; the documents resource is empty without it.
	return nil
}
