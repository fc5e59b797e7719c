package driving

import (
	"context"

	"github.com/custodia-labs/docflow-cli/internal/core/domain"
)

// ProgressService streams progress events for a long-running analysis.
type ProgressService interface {
	// Connect opens the stream. It is a no-op while connecting or open.
	Connect(ctx context.Context) error

	// Disconnect closes the stream normally and cancels any pending reconnect.
	Disconnect()

	// StartEdit starts an analysis on the open stream.
	StartEdit(req domain.AnalysisRequest) error

	// ClearEvents empties the event log and resets the error and step counter.
	ClearEvents()

	// State returns a snapshot of the stream.
	State() domain.ProgressState

	// Collected returns the proposals gathered from stream events since the last StartEdit.
	Collected() domain.ChangeBatch

	// SetCallbacks replaces the notification callbacks.
	SetCallbacks(cb ProgressCallbacks)
}

// ProgressCallbacks are notified of stream activity.
// They run on the stream's goroutines, never while its lock is held.
// Any of them may be nil.
type ProgressCallbacks struct {
	// OnEvent receives every event in arrival order.
	OnEvent func(event domain.ProgressEvent)

	// OnError receives error event messages, terminal connection errors and
	// the loss of the connection while an analysis is running.
	OnError func(message string)

	// OnConnectionChange receives each connection state transition.
	OnConnectionChange func(state domain.ConnectionState)
}
