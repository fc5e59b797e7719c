// Package progress provides the view shown while an analysis runs.
package progress

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docflow-cli/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docflow-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docflow-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docflow-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docflow-cli/internal/core/domain"
)

// View shows the step bar and event log of a running analysis.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	spinner   spinner.Model
	statusbar *status.Bar

	query      string
	streaming  bool
	running    bool
	connection domain.ConnectionState
	step       int
	total      int
	current    string
	events     []domain.ProgressEvent
	err        string

	width  int
	height int
	ready  bool
}

// NewView creates a new progress view.
func NewView(s *styles.Styles, km *keymap.KeyMap) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(s.Theme().Primary)

	return &View{
		styles:    s,
		keymap:    km,
		spinner:   sp,
		statusbar: status.NewBar(s, km.ProgressHelp()),
		total:     domain.DefaultTotalSteps,
		width:     80,
		height:    24,
	}
}

// Start resets the view for a new analysis.
func (v *View) Start(req domain.AnalysisRequest, streaming bool) tea.Cmd {
	v.query = req.Query
	v.streaming = streaming
	v.running = true
	v.connection = domain.ConnectionIdle
	v.step = 0
	v.total = domain.DefaultTotalSteps
	v.current = ""
	v.events = nil
	v.err = ""
	v.statusbar.Set(status.StateWorking, "Analyzing")
	return v.spinner.Tick
}

// Update handles messages for the progress view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case spinner.TickMsg:
		if !v.running {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	case tea.KeyMsg:
		if keymap.Matches(msg.String(), v.keymap.Back) {
			return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewQuery} }
		}
		return v, nil

	case messages.StreamEvent:
		v.addEvent(msg.Event)
		return v, nil

	case messages.StreamError:
		v.fail(msg.Message)
		return v, nil

	case messages.ConnectionChanged:
		v.connection = msg.State
		return v, nil

	case messages.ErrorOccurred:
		v.fail(msg.Err.Error())
		return v, nil
	}
	return v, nil
}

func (v *View) addEvent(e domain.ProgressEvent) {
	v.events = append(v.events, e)

	switch e.Type {
	case domain.EventProgress:
		v.step, v.total = e.Steps()
		v.current = e.Message()
	case domain.EventError:
		v.fail(e.Message())
	case domain.EventFinished:
		v.running = false
		v.step = v.total
		v.statusbar.Set(status.StateNotice, "Analysis finished")
	default:
		if m := e.Message(); m != "" {
			v.current = m
		}
	}
}

func (v *View) fail(message string) {
	v.running = false
	v.err = message
	v.statusbar.Set(status.StateError, message)
}

// View renders the progress view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := []string{
		v.styles.Title.Render("Analyzing"),
		v.styles.Muted.Render(v.query),
		"",
	}

	if v.streaming {
		sections = append(sections,
			v.styles.Normal.Render("Connection: ")+v.styles.Subtitle.Render(v.connection.String()),
			v.renderSteps(),
			"",
		)
	}

	line := v.current
	if line == "" {
		line = "Waiting for the backend"
	}
	if v.running {
		sections = append(sections, v.spinner.View()+" "+v.styles.Normal.Render(line))
	} else if v.err == "" {
		sections = append(sections, v.styles.Success.Render("Done"))
	}

	if v.err != "" {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err))
	}

	if v.streaming && len(v.events) > 0 {
		sections = append(sections, "", v.styles.Subtitle.Render("Events"), v.renderEvents())
	}

	sections = append(sections, "", v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (v *View) renderSteps() string {
	total := v.total
	if total <= 0 {
		total = domain.DefaultTotalSteps
	}
	var sb strings.Builder
	for i := 0; i < total; i++ {
		if i < v.step {
			sb.WriteString(v.styles.StepDone.Render("■"))
		} else {
			sb.WriteString(v.styles.StepPending.Render("□"))
		}
	}
	return fmt.Sprintf("%s %d/%d", sb.String(), v.step, total)
}

func (v *View) renderEvents() string {
	limit := v.height - 14
	if limit < 3 {
		limit = 3
	}
	start := 0
	if len(v.events) > limit {
		start = len(v.events) - limit
	}

	lines := make([]string, 0, len(v.events)-start)
	for _, e := range v.events[start:] {
		text := string(e.Type)
		if m := e.Message(); m != "" {
			text += ": " + m
		}
		style := v.styles.Muted
		if e.Type == domain.EventError {
			style = v.styles.Error
		}
		lines = append(lines, style.Render("  "+text))
	}
	return strings.Join(lines, "\n")
}

// Running reports whether the analysis is still in progress.
func (v *View) Running() bool {
	return v.running
}

// Err returns the error message, if the analysis failed.
func (v *View) Err() string {
	return v.err
}

// Steps returns the current step and step count.
func (v *View) Steps() (step, total int) {
	return v.step, v.total
}

// Events returns the events received so far.
func (v *View) Events() []domain.ProgressEvent {
	return v.events
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.statusbar.SetWidth(width)
}
