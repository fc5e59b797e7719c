// Package preview shows what applying one proposal would do.
package preview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docflow-cli/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docflow-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docflow-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docflow-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docflow-cli/internal/core/domain"
	"github.com/custodia-labs/docflow-cli/internal/core/ports/driving"
	"github.com/custodia-labs/docflow-cli/internal/patcher"
)

// View renders a change preview in a scrollable viewport.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	viewport  viewport.Model
	statusbar *status.Bar

	preview *driving.ChangePreview

	width  int
	height int
	ready  bool
}

// NewView creates a new preview view.
func NewView(s *styles.Styles, km *keymap.KeyMap) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:    s,
		keymap:    km,
		viewport:  viewport.New(80, 18),
		statusbar: status.NewBar(s, km.PreviewHelp()),
		width:     80,
		height:    24,
	}
}

// SetPreview replaces the preview being shown and scrolls to the top.
func (v *View) SetPreview(p *driving.ChangePreview) {
	v.preview = p
	v.viewport.SetContent(v.renderBody())
	v.viewport.GotoTop()

	if p != nil && len(p.Missed) > 0 {
		v.statusbar.Set(status.StateError, fmt.Sprintf("%d replacements did not match", len(p.Missed)))
		return
	}
	v.statusbar.Clear()
}

// Update handles messages for the preview view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		if keymap.Matches(msg.String(), v.keymap.Back) {
			return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewReview} }
		}
		var cmd tea.Cmd
		v.viewport, cmd = v.viewport.Update(msg)
		return v, cmd

	case messages.PreviewLoaded:
		if msg.Err != nil {
			v.statusbar.Set(status.StateError, msg.Err.Error())
			return v, nil
		}
		v.SetPreview(msg.Preview)
		return v, nil
	}
	return v, nil
}

// View renders the preview view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := []string{
		v.renderHeader(),
		"",
		v.viewport.View(),
		"",
		v.statusbar.View(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (v *View) renderHeader() string {
	if v.preview == nil {
		return v.styles.Title.Render("Preview")
	}

	p := v.preview.Proposal
	kind := lipgloss.NewStyle().Foreground(v.styles.KindColor(string(p.Kind))).Render(string(p.Kind))
	header := v.styles.Title.Render("Preview") + " " + kind + " " + v.styles.Subtitle.Render(p.Title())
	if path := p.Path(); path != "" {
		header += " " + v.styles.Muted.Render(path)
	}

	if p.Kind == domain.ChangeKindEdit {
		inserted, deleted := patcher.Stats(v.preview.Diff)
		header += "  " + v.styles.DiffAdded.Render(fmt.Sprintf("+%d", inserted)) +
			" " + v.styles.DiffRemoved.Render(fmt.Sprintf("-%d", deleted))
	}
	return header
}

func (v *View) renderBody() string {
	if v.preview == nil {
		return v.styles.Muted.Render("Nothing to preview")
	}

	p := v.preview
	switch p.Proposal.Kind {
	case domain.ChangeKindEdit:
		if inserted, deleted := patcher.Stats(p.Diff); inserted+deleted == 0 {
			return v.styles.Muted.Render("No content changes")
		}
		return v.renderDiff(p.Diff)
	case domain.ChangeKindCreate:
		return v.renderDiff(patcher.Diff("", p.Patched))
	case domain.ChangeKindDelete:
		if p.Original == "" {
			return v.styles.Muted.Render("The document will be removed.")
		}
		return v.renderDiff(patcher.Diff(p.Original, ""))
	default:
		return ""
	}
}

func (v *View) renderDiff(lines []patcher.Line) string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		text := l.Op.Prefix() + " " + l.Text
		switch l.Op {
		case patcher.OpInsert:
			out = append(out, v.styles.DiffAdded.Render(text))
		case patcher.OpDelete:
			out = append(out, v.styles.DiffRemoved.Render(text))
		default:
			out = append(out, v.styles.Normal.Render(text))
		}
	}
	return strings.Join(out, "\n")
}

// Preview returns the preview being shown.
func (v *View) Preview() *driving.ChangePreview {
	return v.preview
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	bodyHeight := height - 5
	if bodyHeight < 3 {
		bodyHeight = 3
	}
	v.viewport.Width = width
	v.viewport.Height = bodyHeight
	v.statusbar.SetWidth(width)
}
