package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docflow-cli/internal/core/domain"
	"github.com/custodia-labs/docflow-cli/internal/core/ports/driving"
	"github.com/custodia-labs/docflow-cli/internal/patcher"
)

// AnalyzeInput is the input schema for the analyze_changes tool.
type AnalyzeInput struct {
	Query      string `json:"query" jsonschema:"the product change the documentation should reflect"`
	DocumentID string `json:"document_id,omitempty" jsonschema:"limit the analysis to one document"`
}

// ListInput is the input schema for the list_changes tool.
type ListInput struct {
	Filter string `json:"filter,omitempty" jsonschema:"show only one kind: all, edit, create or delete"`
}

// SelectInput is the input schema for the select_changes tool.
type SelectInput struct {
	IDs  []string `json:"ids,omitempty" jsonschema:"change ids to select"`
	All  bool     `json:"all,omitempty" jsonschema:"select every visible change"`
	None bool     `json:"none,omitempty" jsonschema:"clear the selection first"`
}

// ApplyInput is the input schema for the apply_changes tool.
type ApplyInput struct {
	ID string `json:"id,omitempty" jsonschema:"apply only this change; otherwise apply the selected changes"`
}

// IgnoreInput is the input schema for the ignore_changes tool.
type IgnoreInput struct {
	IDs      []string `json:"ids,omitempty" jsonschema:"change ids to drop"`
	Selected bool     `json:"selected,omitempty" jsonschema:"drop every selected change"`
}

// PreviewInput is the input schema for the preview_change tool.
type PreviewInput struct {
	ID string `json:"id" jsonschema:"the change to preview"`
}

// ChangesOutput describes the current change set.
type ChangesOutput struct {
	Filter   string              `json:"filter"`
	Counts   domain.ChangeCounts `json:"counts"`
	Selected int                 `json:"selected"`
	Changes  []ChangeOutput      `json:"changes"`
}

// ChangeOutput is one visible change.
type ChangeOutput struct {
	ID           string `json:"id"`
	Kind         string `json:"kind"`
	Title        string `json:"title"`
	Path         string `json:"path,omitempty"`
	Replacements int    `json:"replacements,omitempty"`
	Selected     bool   `json:"selected"`
}

// ApplyOutput reports an apply call.
type ApplyOutput struct {
	Notice         string   `json:"notice"`
	Message        string   `json:"message,omitempty"`
	TotalProcessed int      `json:"total_processed"`
	Successful     int      `json:"successful"`
	Failed         int      `json:"failed"`
	Applied        []string `json:"applied"`
	Retained       []string `json:"retained"`
	Errors         []string `json:"errors"`
	Remaining      int      `json:"remaining"`
}

// IgnoreOutput reports dropped changes.
type IgnoreOutput struct {
	Ignored   int      `json:"ignored"`
	Unknown   []string `json:"unknown"`
	Remaining int      `json:"remaining"`
}

// PreviewOutput shows what applying a change would do.
type PreviewOutput struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	Title    string `json:"title"`
	Original string `json:"original,omitempty"`
	Patched  string `json:"patched,omitempty"`
	Diff     string `json:"diff,omitempty"`
	Inserted int    `json:"inserted"`
	Deleted  int    `json:"deleted"`
	Missed   int    `json:"missed"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze_changes",
		Description: "Ask which documentation should change for a product change and load the proposals",
	}, s.handleAnalyze)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_changes",
		Description: "List the proposed changes, optionally switching the kind filter",
	}, s.handleList)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "select_changes",
		Description: "Select proposed changes for applying",
	}, s.handleSelect)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "apply_changes",
		Description: "Apply one change, or every selected change, to the documentation",
	}, s.handleApply)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ignore_changes",
		Description: "Drop proposed changes without applying them",
	}, s.handleIgnore)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "preview_change",
		Description: "Show the diff a change would make",
	}, s.handlePreview)
}

func (s *Server) handleAnalyze(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AnalyzeInput,
) (*mcp.CallToolResult, ChangesOutput, error) {
	snap, err := s.ports.Change.Analyze(ctx, domain.AnalysisRequest{
		Query:      input.Query,
		DocumentID: input.DocumentID,
	})
	if err != nil {
		return nil, ChangesOutput{}, err
	}
	return nil, changesOutput(snap), nil
}

func (s *Server) handleList(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ListInput,
) (*mcp.CallToolResult, ChangesOutput, error) {
	if input.Filter != "" {
		f, err := domain.ParseChangeFilter(input.Filter)
		if err != nil {
			return nil, ChangesOutput{}, err
		}
		s.ports.Change.SetFilter(f)
	}
	return nil, changesOutput(s.ports.Change.Snapshot()), nil
}

func (s *Server) handleSelect(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input SelectInput,
) (*mcp.CallToolResult, ChangesOutput, error) {
	change := s.ports.Change
	if input.None {
		change.DeselectAll()
	}
	if input.All {
		change.SelectAll()
	}

	for _, raw := range input.IDs {
		id := domain.Identity(raw)
		if change.Snapshot().IsSelected(id) {
			continue
		}
		if _, err := change.Toggle(id); err != nil {
			return nil, ChangesOutput{}, err
		}
	}
	return nil, changesOutput(change.Snapshot()), nil
}

func (s *Server) handleApply(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ApplyInput,
) (*mcp.CallToolResult, ApplyOutput, error) {
	var (
		outcome *driving.ApplyOutcome
		err     error
	)
	if input.ID != "" {
		outcome, err = s.ports.Change.Apply(ctx, domain.Identity(input.ID))
	} else {
		outcome, err = s.ports.Change.ApplySelected(ctx)
	}
	if err != nil {
		return nil, ApplyOutput{}, err
	}

	r := outcome.Result
	output := ApplyOutput{
		Notice:         outcome.Notice(),
		Message:        r.Message,
		TotalProcessed: r.TotalProcessed,
		Successful:     r.Successful,
		Failed:         r.Failed,
		Applied:        identityStrings(outcome.Succeeded),
		Retained:       identityStrings(outcome.Failed),
		Errors:         make([]string, 0, len(r.Errors)),
		Remaining:      s.ports.Change.Snapshot().Counts.Total(),
	}
	for _, e := range r.Errors {
		output.Errors = append(output.Errors, e.ErrorMessage)
	}
	return nil, output, nil
}

func (s *Server) handleIgnore(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input IgnoreInput,
) (*mcp.CallToolResult, IgnoreOutput, error) {
	output := IgnoreOutput{Unknown: []string{}}
	if input.Selected {
		output.Ignored += s.ports.Change.IgnoreSelected()
	}
	for _, id := range input.IDs {
		if s.ports.Change.Ignore(domain.Identity(id)) {
			output.Ignored++
		} else {
			output.Unknown = append(output.Unknown, id)
		}
	}
	output.Remaining = s.ports.Change.Snapshot().Counts.Total()
	return nil, output, nil
}

func (s *Server) handlePreview(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input PreviewInput,
) (*mcp.CallToolResult, PreviewOutput, error) {
	if input.ID == "" {
		return nil, PreviewOutput{}, fmt.Errorf("%w: id is required", domain.ErrInvalidInput)
	}

	preview, err := s.ports.Change.Preview(domain.Identity(input.ID))
	if errors.Is(err, domain.ErrUnknownChange) {
		return nil, PreviewOutput{}, fmt.Errorf("no change with id %q", input.ID)
	}
	if err != nil {
		return nil, PreviewOutput{}, err
	}

	inserted, deleted := patcher.Stats(preview.Diff)
	return nil, PreviewOutput{
		ID:       string(preview.Proposal.ID),
		Kind:     string(preview.Proposal.Kind),
		Title:    preview.Proposal.Title(),
		Original: preview.Original,
		Patched:  preview.Patched,
		Diff:     patcher.Format(preview.Diff),
		Inserted: inserted,
		Deleted:  deleted,
		Missed:   len(preview.Missed),
	}, nil
}

func changesOutput(snap *driving.ChangeSnapshot) ChangesOutput {
	output := ChangesOutput{
		Filter:   string(snap.Filter),
		Counts:   snap.Counts,
		Selected: len(snap.Selected),
		Changes:  make([]ChangeOutput, len(snap.Visible)),
	}
	for i, p := range snap.Visible {
		c := ChangeOutput{
			ID:       string(p.ID),
			Kind:     string(p.Kind),
			Title:    p.Title(),
			Path:     p.Path(),
			Selected: snap.IsSelected(p.ID),
		}
		if p.Edit != nil {
			c.Replacements = len(p.Edit.Changes)
		}
		output.Changes[i] = c
	}
	return output
}

func identityStrings(ids []domain.Identity) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
