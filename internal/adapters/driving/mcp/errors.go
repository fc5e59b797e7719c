// Package mcp provides an MCP (Model Context Protocol) server adapter for docflow.
// It lets AI assistants analyze, review and apply documentation changes.
package mcp

import "errors"

// ErrMissingChangeService is returned when the change service is not provided.
var ErrMissingChangeService = errors.New("mcp: change service is required")
