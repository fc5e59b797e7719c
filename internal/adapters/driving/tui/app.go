package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docflow-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docflow-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docflow-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docflow-cli/internal/adapters/driving/tui/views/preview"
	"github.com/custodia-labs/docflow-cli/internal/adapters/driving/tui/views/progress"
	"github.com/custodia-labs/docflow-cli/internal/adapters/driving/tui/views/query"
	"github.com/custodia-labs/docflow-cli/internal/adapters/driving/tui/views/review"
	"github.com/custodia-labs/docflow-cli/internal/core/domain"
	"github.com/custodia-labs/docflow-cli/internal/core/ports/driving"
	"github.com/custodia-labs/docflow-cli/internal/logger"
)

// streamBuffer bounds the progress messages queued between the stream and the UI.
const streamBuffer = 64

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	styles *styles.Styles
	keymap *keymap.KeyMap

	queryView    *query.View
	progressView *progress.View
	reviewView   *review.View
	previewView  *preview.View

	// currentView tracks which view is active.
	currentView messages.ViewType

	// stream bridges progress callbacks into the program while an analysis streams.
	stream *streamBridge

	// err holds the last error that occurred.
	err error

	width  int
	height int
	ready  bool
}

// streamBridge forwards progress callbacks as tea messages.
type streamBridge struct {
	events chan tea.Msg
	done   chan struct{}
}

func newStreamBridge() *streamBridge {
	return &streamBridge{
		events: make(chan tea.Msg, streamBuffer),
		done:   make(chan struct{}),
	}
}

func (b *streamBridge) send(msg tea.Msg) {
	select {
	case b.events <- msg:
	case <-b.done:
	}
}

// wait returns a command delivering the next bridged message.
func (b *streamBridge) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-b.events:
			return msg
		case <-b.done:
			return nil
		}
	}
}

func (b *streamBridge) callbacks() driving.ProgressCallbacks {
	return driving.ProgressCallbacks{
		OnEvent: func(event domain.ProgressEvent) {
			b.send(messages.StreamEvent{Event: event})
		},
		OnError: func(message string) {
			b.send(messages.StreamError{Message: message})
		},
		OnConnectionChange: func(state domain.ConnectionState) {
			b.send(messages.ConnectionChanged{State: state})
		},
	}
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:        ports,
		ctx:          context.Background(),
		styles:       s,
		keymap:       km,
		queryView:    query.NewView(s, km, ports.streamByDefault(), ports.Progress != nil),
		progressView: progress.NewView(s, km),
		reviewView:   review.NewView(s, km, ports.Change),
		previewView:  preview.NewView(s, km),
		currentView:  messages.ViewQuery,
	}, nil
}

// WithContext sets the context for the app.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// WithQuery prefills the change description.
func (a *App) WithQuery(q string) *App {
	a.queryView.SetQuery(q)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("docflow"),
		a.queryView.Init(),
	)
}

// Update implements tea.Model.
//
//nolint:gocognit,gocyclo,funlen // central message handler requires complexity
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		// Global quit with ctrl+c
		if msg.String() == "ctrl+c" {
			a.stopStream()
			return a, tea.Quit
		}
		return a, a.forward(msg)

	case messages.ViewChanged:
		return a, a.switchView(msg.View)

	case messages.AnalysisRequested:
		return a, a.startAnalysis(msg)

	case messages.AnalysisCompleted:
		if msg.Err != nil {
			a.err = msg.Err
			a.progressView, cmd = a.progressView.Update(messages.ErrorOccurred{Err: msg.Err})
			return a, cmd
		}
		a.err = nil
		a.reviewView, cmd = a.reviewView.Update(messages.ChangesUpdated{
			Snapshot: msg.Snapshot,
			Notice:   fmt.Sprintf("%d proposals", msg.Snapshot.Counts.Total()),
		})
		a.currentView = messages.ViewReview
		return a, cmd

	case messages.StreamStarted:
		if msg.Err != nil {
			a.stopStream()
			a.err = msg.Err
			a.progressView, cmd = a.progressView.Update(messages.ErrorOccurred{Err: msg.Err})
			return a, cmd
		}
		return a, nil

	case messages.StreamEvent:
		if a.stream == nil {
			return a, nil
		}
		a.progressView, _ = a.progressView.Update(msg)
		switch msg.Event.Type {
		case domain.EventFinished:
			batch := a.ports.Progress.Collected()
			a.stopStream()
			snap := a.ports.Change.Load(a.ctx, batch)
			return a, func() tea.Msg { return messages.AnalysisCompleted{Snapshot: snap} }
		case domain.EventError:
			a.stopStream()
			return a, nil
		}
		return a, a.stream.wait()

	case messages.StreamError:
		if a.stream == nil {
			return a, nil
		}
		a.progressView, _ = a.progressView.Update(msg)
		a.stopStream()
		return a, nil

	case messages.ConnectionChanged:
		if a.stream == nil {
			return a, nil
		}
		a.progressView, _ = a.progressView.Update(msg)
		if msg.State == domain.ConnectionClosed && a.progressView.Running() {
			a.stopStream()
			a.err = ErrStreamClosed
			a.progressView, _ = a.progressView.Update(messages.ErrorOccurred{Err: ErrStreamClosed})
			return a, nil
		}
		return a, a.stream.wait()

	case messages.ApplyRequested:
		return a, a.apply(msg.ID)

	case messages.ApplyCompleted:
		a.err = msg.Err
		a.reviewView, cmd = a.reviewView.Update(msg)
		return a, cmd

	case messages.PreviewRequested:
		return a, a.loadPreview(msg.ID)

	case messages.PreviewLoaded:
		if msg.Err != nil {
			a.err = msg.Err
			a.reviewView, cmd = a.reviewView.Update(messages.ErrorOccurred{Err: msg.Err})
			return a, cmd
		}
		a.previewView.SetPreview(msg.Preview)
		a.currentView = messages.ViewPreview
		return a, nil

	case messages.ErrorOccurred:
		a.err = msg.Err
		return a, a.forward(msg)

	case messages.Quit:
		a.stopStream()
		return a, tea.Quit
	}

	// Forward other messages to active view
	return a, a.forward(msg)
}

// forward sends msg to the active view.
func (a *App) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewQuery:
		a.queryView, cmd = a.queryView.Update(msg)
	case messages.ViewProgress:
		a.progressView, cmd = a.progressView.Update(msg)
	case messages.ViewReview:
		a.reviewView, cmd = a.reviewView.Update(msg)
	case messages.ViewPreview:
		a.previewView, cmd = a.previewView.Update(msg)
	}
	return cmd
}

func (a *App) switchView(view messages.ViewType) tea.Cmd {
	if a.currentView == messages.ViewProgress && view != messages.ViewProgress {
		a.stopStream()
	}
	a.currentView = view

	switch view {
	case messages.ViewQuery:
		a.queryView.Reset()
		return a.queryView.Init()
	case messages.ViewReview:
		a.reviewView.Refresh()
	case messages.ViewProgress, messages.ViewPreview:
		// Entered through their own messages
	}
	return nil
}

// startAnalysis switches to the progress view and runs the analysis,
// streamed when requested and a progress service is configured.
func (a *App) startAnalysis(msg messages.AnalysisRequested) tea.Cmd {
	a.err = nil
	a.stopStream()
	streaming := msg.Stream && a.ports.Progress != nil
	a.currentView = messages.ViewProgress
	tick := a.progressView.Start(msg.Request, streaming)

	if !streaming {
		return tea.Batch(tick, a.analyze(msg.Request))
	}

	bridge := newStreamBridge()
	a.stream = bridge
	a.ports.Progress.SetCallbacks(bridge.callbacks())
	a.ports.Progress.ClearEvents()
	logger.Debug("streaming analysis for %q", msg.Request.Query)

	return tea.Batch(tick, a.connect(msg.Request), bridge.wait())
}

func (a *App) analyze(req domain.AnalysisRequest) tea.Cmd {
	ctx := a.ctx
	return func() tea.Msg {
		if err := a.checkDocument(ctx, req); err != nil {
			return messages.AnalysisCompleted{Err: err}
		}
		snap, err := a.ports.Change.Analyze(ctx, req)
		return messages.AnalysisCompleted{Snapshot: snap, Err: err}
	}
}

func (a *App) connect(req domain.AnalysisRequest) tea.Cmd {
	ctx := a.ctx
	progressService := a.ports.Progress
	return func() tea.Msg {
		if err := a.checkDocument(ctx, req); err != nil {
			return messages.StreamStarted{Err: err}
		}
		if err := progressService.Connect(ctx); err != nil {
			return messages.StreamStarted{Err: err}
		}
		return messages.StreamStarted{Err: progressService.StartEdit(req)}
	}
}

// checkDocument verifies that the document an analysis is scoped to exists.
func (a *App) checkDocument(ctx context.Context, req domain.AnalysisRequest) error {
	if req.DocumentID == "" || a.ports.Document == nil {
		return nil
	}
	if _, _, err := a.ports.Document.Find(ctx, req.DocumentID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("document %q: %w", req.DocumentID, err)
		}
		return fmt.Errorf("looking up document: %w", err)
	}
	return nil
}

// stopStream detaches and closes the progress stream, if one is active.
func (a *App) stopStream() {
	if a.stream == nil {
		return
	}
	close(a.stream.done)
	a.stream = nil
	a.ports.Progress.SetCallbacks(driving.ProgressCallbacks{})
	a.ports.Progress.Disconnect()
}

func (a *App) apply(id domain.Identity) tea.Cmd {
	ctx := a.ctx
	changes := a.ports.Change
	return func() tea.Msg {
		var (
			outcome *driving.ApplyOutcome
			err     error
		)
		if id == "" {
			outcome, err = changes.ApplySelected(ctx)
		} else {
			outcome, err = changes.Apply(ctx, id)
		}
		return messages.ApplyCompleted{Outcome: outcome, Err: err}
	}
}

func (a *App) loadPreview(id domain.Identity) tea.Cmd {
	changes := a.ports.Change
	return func() tea.Msg {
		p, err := changes.Preview(id)
		return messages.PreviewLoaded{Preview: p, Err: err}
	}
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewProgress:
		return a.progressView.View()
	case messages.ViewReview:
		return a.reviewView.View()
	case messages.ViewPreview:
		return a.previewView.View()
	default:
		return a.queryView.View()
	}
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Streaming reports whether an analysis is streaming.
func (a *App) Streaming() bool {
	return a.stream != nil
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.queryView.SetDimensions(width, height)
	a.progressView.SetDimensions(width, height)
	a.reviewView.SetDimensions(width, height)
	a.previewView.SetDimensions(width, height)
}
