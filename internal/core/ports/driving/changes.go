package driving

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docflow-cli/internal/core/domain"
	"github.com/custodia-labs/docflow-cli/internal/patcher"
)

// ChangeService reviews and applies documentation change proposals.
// It exclusively owns the current change set, the selection and the
// original content of edited documents.
type ChangeService interface {
	// Analyze requests proposals for the query and makes them the current change set.
	Analyze(ctx context.Context, req domain.AnalysisRequest) (*ChangeSnapshot, error)

	// Load makes batch the current change set, e.g. one collected from the progress stream.
	Load(ctx context.Context, batch domain.ChangeBatch) *ChangeSnapshot

	// Snapshot returns a read-only view of the current state.
	Snapshot() *ChangeSnapshot

	// Toggle flips the selection of one proposal and returns the new state.
	Toggle(id domain.Identity) (bool, error)

	// SelectAll selects every proposal visible under the current filter.
	SelectAll()

	// DeselectAll clears the selection.
	DeselectAll()

	// SetFilter changes the filter without altering the selection.
	SetFilter(f domain.ChangeFilter)

	// Ignore drops one proposal locally. Returns false if it is unknown.
	Ignore(id domain.Identity) bool

	// IgnoreSelected drops every selected proposal and clears the selection.
	IgnoreSelected() int

	// Apply sends one proposal to the backend.
	Apply(ctx context.Context, id domain.Identity) (*ApplyOutcome, error)

	// ApplySelected sends the selected, visible proposals to the backend.
	ApplySelected(ctx context.Context) (*ApplyOutcome, error)

	// Preview shows what applying one proposal would do.
	Preview(id domain.Identity) (*ChangePreview, error)

	// OriginalContent returns the base text cached for an edited document.
	OriginalContent(documentID string) (domain.OriginalContent, bool)

	// InlineEdit asks the backend to rewrite a passage.
	InlineEdit(ctx context.Context, req domain.InlineEditRequest) (*domain.InlineEditResult, error)
}

// ChangeSnapshot is a copy of the reconciliation state for display.
type ChangeSnapshot struct {
	Filter   domain.ChangeFilter
	Visible  []domain.Proposal
	Selected []domain.Identity
	Counts   domain.ChangeCounts
}

// IsSelected returns true if id is in the selection.
func (s *ChangeSnapshot) IsSelected(id domain.Identity) bool {
	for _, sel := range s.Selected {
		if sel == id {
			return true
		}
	}
	return false
}

// ApplyOutcome reports the result of an apply call and how it was merged.
type ApplyOutcome struct {
	Result    domain.UpdateResult
	Succeeded []domain.Identity
	Failed    []domain.Identity
}

// Partial returns true when some items succeeded and some failed.
func (o *ApplyOutcome) Partial() bool {
	return o.Result.Failed > 0 && o.Result.Successful > 0
}

// Notice returns a one-line summary of the outcome.
func (o *ApplyOutcome) Notice() string {
	r := o.Result
	switch {
	case r.Failed == 0:
		return fmt.Sprintf("Applied %d of %d changes", r.Successful, r.TotalProcessed)
	case o.Partial():
		return fmt.Sprintf("Partial success: %d applied, %d failed", r.Successful, r.Failed)
	default:
		return fmt.Sprintf("All %d changes failed to apply", r.TotalProcessed)
	}
}

// ChangePreview shows a proposal's effect.
// For edits Original and Patched hold the base and patched text and Diff
// their line diff. For creates Patched holds the new content; for deletes
// Original holds the content being removed when it is known.
type ChangePreview struct {
	Proposal domain.Proposal
	Original string
	Patched  string
	Diff     []patcher.Line
	Missed   []domain.ContentChange
}
