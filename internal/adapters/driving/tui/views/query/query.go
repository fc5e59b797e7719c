// Package query provides the analysis request form.
package query

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docflow-cli/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/docflow-cli/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docflow-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docflow-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docflow-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docflow-cli/internal/core/domain"
)

const (
	focusQuery = iota
	focusDocument
)

// View is the form describing the product change to analyze.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	query     *input.Field
	document  *input.Field
	statusbar *status.Bar

	focus           int
	stream          bool
	streamAvailable bool

	width  int
	height int
	ready  bool
}

// NewView creates a new query view. stream is the initial streaming choice;
// streaming cannot be turned on when streamAvailable is false.
func NewView(s *styles.Styles, km *keymap.KeyMap, stream, streamAvailable bool) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	v := &View{
		styles:          s,
		keymap:          km,
		query:           input.NewField(s, "Change", "Describe the product change...", 1024),
		document:        input.NewField(s, "Document", "optional document id", 128),
		statusbar:       status.NewBar(s, km.QueryHelp()),
		stream:          stream && streamAvailable,
		streamAvailable: streamAvailable,
		width:           80,
		height:          24,
	}
	v.query.Focus()
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.query.Init()
}

// Update handles messages for the query view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.ErrorOccurred:
		v.statusbar.Set(status.StateError, msg.Err.Error())
		return v, nil
	}
	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	keyStr := msg.String()

	switch {
	case keymap.Matches(keyStr, v.keymap.Back):
		return v, func() tea.Msg { return messages.Quit{} }

	case keymap.Matches(keyStr, v.keymap.NextField):
		v.cycleFocus()
		return v, nil

	case keymap.Matches(keyStr, v.keymap.ToggleStream):
		if !v.streamAvailable {
			v.statusbar.Set(status.StateError, "progress stream not configured")
			return v, nil
		}
		v.stream = !v.stream
		return v, nil

	case keymap.Matches(keyStr, v.keymap.Submit):
		req := v.Request()
		if err := req.Validate(); err != nil {
			v.statusbar.Set(status.StateError, "describe the change first")
			return v, nil
		}
		v.statusbar.Clear()
		stream := v.stream
		return v, func() tea.Msg {
			return messages.AnalysisRequested{Request: req, Stream: stream}
		}
	}

	var cmd tea.Cmd
	if v.focus == focusQuery {
		v.query, cmd = v.query.Update(msg)
	} else {
		v.document, cmd = v.document.Update(msg)
	}
	return v, cmd
}

func (v *View) cycleFocus() {
	if v.focus == focusQuery {
		v.focus = focusDocument
		v.query.Blur()
		v.document.Focus()
		return
	}
	v.focus = focusQuery
	v.document.Blur()
	v.query.Focus()
}

// View renders the query view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	streaming := "off"
	if v.stream {
		streaming = "on"
	}

	sections := []string{
		v.styles.Title.Render("docflow"),
		v.styles.Muted.Render("What changed in the product? Proposals for the documentation follow."),
		"",
		v.query.View(),
		v.document.View(),
		"",
		v.styles.Normal.Render("Stream progress: ") + v.styles.Subtitle.Render(streaming),
		"",
		v.statusbar.View(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// Request returns the analysis request described by the form.
func (v *View) Request() domain.AnalysisRequest {
	return domain.AnalysisRequest{
		Query:      strings.TrimSpace(v.query.Value()),
		DocumentID: strings.TrimSpace(v.document.Value()),
	}
}

// Stream reports whether the analysis will be streamed.
func (v *View) Stream() bool {
	return v.stream
}

// SetQuery prefills the change description.
func (v *View) SetQuery(q string) {
	v.query.SetValue(q)
}

// Reset focuses the change description and keeps the typed values.
func (v *View) Reset() {
	v.focus = focusQuery
	v.document.Blur()
	v.query.Focus()
	v.statusbar.Clear()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.query.SetWidth(width)
	v.document.SetWidth(width)
	v.statusbar.SetWidth(width)
}
