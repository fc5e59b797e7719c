// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/docflow-cli/internal/core/domain"
	"github.com/custodia-labs/docflow-cli/internal/core/ports/driving"
)

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewQuery is the analysis request form.
	ViewQuery ViewType = iota
	// ViewProgress shows a running analysis.
	ViewProgress
	// ViewReview lists the proposed changes.
	ViewReview
	// ViewPreview shows the diff of one change.
	ViewPreview
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewQuery:
		return "query"
	case ViewProgress:
		return "progress"
	case ViewReview:
		return "review"
	case ViewPreview:
		return "preview"
	default:
		return "unknown"
	}
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// AnalysisRequested asks the app to run an analysis.
type AnalysisRequested struct {
	Request domain.AnalysisRequest
	Stream  bool
}

// AnalysisCompleted carries the loaded change set back to the app.
type AnalysisCompleted struct {
	Snapshot *driving.ChangeSnapshot
	Err      error
}

// StreamStarted signals the edit request was sent on the progress stream.
type StreamStarted struct {
	Err error
}

// StreamEvent carries one progress event.
type StreamEvent struct {
	Event domain.ProgressEvent
}

// StreamError carries an error reported by the progress stream.
type StreamError struct {
	Message string
}

// ConnectionChanged carries a progress stream state transition.
type ConnectionChanged struct {
	State domain.ConnectionState
}

// ChangesUpdated signals the change set or selection changed locally.
type ChangesUpdated struct {
	Snapshot *driving.ChangeSnapshot
	Notice   string
}

// ApplyRequested asks the app to apply changes. An empty ID applies the selection.
type ApplyRequested struct {
	ID domain.Identity
}

// ApplyCompleted carries the outcome of an apply call.
type ApplyCompleted struct {
	Outcome *driving.ApplyOutcome
	Err     error
}

// PreviewRequested asks the app to preview one change.
type PreviewRequested struct {
	ID domain.Identity
}

// PreviewLoaded carries a change preview.
type PreviewLoaded struct {
	Preview *driving.ChangePreview
	Err     error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
