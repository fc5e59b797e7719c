// Package review provides the change review view.
package review

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docflow-cli/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/docflow-cli/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docflow-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docflow-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docflow-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docflow-cli/internal/core/domain"
	"github.com/custodia-labs/docflow-cli/internal/core/ports/driving"
)

// ErrNoChangeService is returned when the view has no change service.
var ErrNoChangeService = errors.New("change service not available")

// View lists the proposals of the current change set for selection and apply.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	changes   driving.ChangeService
	list      *list.ChangeList
	statusbar *status.Bar

	snapshot *driving.ChangeSnapshot
	applying bool

	width  int
	height int
	ready  bool
}

// NewView creates a new review view.
func NewView(s *styles.Styles, km *keymap.KeyMap, changes driving.ChangeService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:    s,
		keymap:    km,
		changes:   changes,
		list:      list.NewChangeList(s),
		statusbar: status.NewBar(s, km.ReviewHelp()),
		snapshot:  &driving.ChangeSnapshot{Filter: domain.FilterAll},
		width:     80,
		height:    24,
	}
}

// SetSnapshot shows a new reconciliation state.
func (v *View) SetSnapshot(snap *driving.ChangeSnapshot) {
	if snap == nil {
		return
	}
	v.snapshot = snap
	v.list.SetSnapshot(snap)
}

// Refresh reloads the state from the change service.
func (v *View) Refresh() {
	if v.changes == nil {
		return
	}
	v.SetSnapshot(v.changes.Snapshot())
}

// Update handles messages for the review view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.ChangesUpdated:
		v.SetSnapshot(msg.Snapshot)
		if msg.Notice != "" {
			v.statusbar.Set(status.StateNotice, msg.Notice)
		}
		return v, nil

	case messages.ApplyCompleted:
		v.applying = false
		v.Refresh()
		switch {
		case msg.Err != nil:
			v.statusbar.Set(status.StateError, msg.Err.Error())
		case msg.Outcome.Result.Failed > 0 && msg.Outcome.Result.Successful == 0:
			v.statusbar.Set(status.StateError, msg.Outcome.Notice())
		default:
			v.statusbar.Set(status.StateNotice, msg.Outcome.Notice())
		}
		return v, nil

	case messages.ErrorOccurred:
		v.statusbar.Set(status.StateError, msg.Err.Error())
		return v, nil
	}
	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	keyStr := msg.String()

	switch {
	case keymap.Matches(keyStr, v.keymap.Quit):
		return v, func() tea.Msg { return messages.Quit{} }

	case keymap.Matches(keyStr, v.keymap.Back), keymap.Matches(keyStr, v.keymap.NewQuery):
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewQuery} }

	case keymap.Matches(keyStr, v.keymap.Up):
		v.list.MoveUp()
		return v, nil

	case keymap.Matches(keyStr, v.keymap.Down):
		v.list.MoveDown()
		return v, nil
	}

	if v.changes == nil {
		return v, func() tea.Msg { return messages.ErrorOccurred{Err: ErrNoChangeService} }
	}
	if v.applying {
		return v, nil
	}

	switch {
	case keymap.Matches(keyStr, v.keymap.NextFilter):
		v.changes.SetFilter(v.snapshot.Filter.Next())
		v.Refresh()
		v.statusbar.Clear()

	case keymap.Matches(keyStr, v.keymap.Toggle):
		if p := v.list.Current(); p != nil {
			if _, err := v.changes.Toggle(p.ID); err != nil {
				v.statusbar.Set(status.StateError, err.Error())
			}
			v.Refresh()
		}

	case keymap.Matches(keyStr, v.keymap.SelectAll):
		v.changes.SelectAll()
		v.Refresh()

	case keymap.Matches(keyStr, v.keymap.DeselectAll):
		v.changes.DeselectAll()
		v.Refresh()

	case keymap.Matches(keyStr, v.keymap.Apply):
		p := v.list.Current()
		if p == nil {
			return v, nil
		}
		return v, v.requestApply(p.ID)

	case keymap.Matches(keyStr, v.keymap.ApplySelected):
		if len(v.visibleSelection()) == 0 {
			v.statusbar.Set(status.StateError, "nothing selected")
			return v, nil
		}
		return v, v.requestApply("")

	case keymap.Matches(keyStr, v.keymap.Ignore):
		if p := v.list.Current(); p != nil {
			title := p.Title()
			if v.changes.Ignore(p.ID) {
				v.statusbar.Set(status.StateNotice, "Ignored "+title)
			}
			v.Refresh()
		}

	case keymap.Matches(keyStr, v.keymap.IgnoreSelected):
		n := v.changes.IgnoreSelected()
		v.Refresh()
		v.statusbar.Set(status.StateNotice, fmt.Sprintf("Ignored %d changes", n))

	case keymap.Matches(keyStr, v.keymap.Preview):
		p := v.list.Current()
		if p == nil {
			return v, nil
		}
		id := p.ID
		return v, func() tea.Msg { return messages.PreviewRequested{ID: id} }
	}
	return v, nil
}

func (v *View) requestApply(id domain.Identity) tea.Cmd {
	v.applying = true
	v.statusbar.Set(status.StateWorking, "Applying")
	return func() tea.Msg { return messages.ApplyRequested{ID: id} }
}

func (v *View) visibleSelection() []domain.Identity {
	var ids []domain.Identity
	for _, p := range v.snapshot.Visible {
		if v.snapshot.IsSelected(p.ID) {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// View renders the review view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	counts := v.snapshot.Counts
	summary := fmt.Sprintf("%d edits, %d creates, %d deletes · %d selected",
		counts.Edit, counts.Create, counts.Delete, len(v.snapshot.Selected))

	sections := []string{
		v.styles.Title.Render("Review changes"),
		v.renderTabs(),
		v.styles.Muted.Render(summary),
		"",
		v.list.View(),
		"",
		v.statusbar.View(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (v *View) renderTabs() string {
	counts := v.snapshot.Counts
	tabs := make([]string, 0, len(domain.AllChangeFilters()))
	for _, f := range domain.AllChangeFilters() {
		n := counts.Total()
		if f != domain.FilterAll {
			n = counts.Of(domain.ChangeKind(f))
		}
		label := fmt.Sprintf("%s (%d)", f.Label(), n)
		if f == v.snapshot.Filter {
			tabs = append(tabs, v.styles.ActiveTab.Render(label))
		} else {
			tabs = append(tabs, v.styles.Tab.Render(label))
		}
	}
	return strings.Join(tabs, " ")
}

// Snapshot returns the state being shown.
func (v *View) Snapshot() *driving.ChangeSnapshot {
	return v.snapshot
}

// Cursor returns the list cursor.
func (v *View) Cursor() int {
	return v.list.Cursor()
}

// Applying reports whether an apply is in flight.
func (v *View) Applying() bool {
	return v.applying
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	listHeight := height - 8
	if listHeight < 3 {
		listHeight = 3
	}
	v.list.SetDimensions(width, listHeight)
	v.statusbar.SetWidth(width)
}
