// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docflow-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docflow-cli/internal/core/domain"
	"github.com/custodia-labs/docflow-cli/internal/core/ports/driving"
)

// ChangeList displays the visible proposals with their selection state.
type ChangeList struct {
	items    []domain.Proposal
	selected map[domain.Identity]bool
	cursor   int
	styles   *styles.Styles
	width    int
	height   int
}

// NewChangeList creates a new change list component.
func NewChangeList(s *styles.Styles) *ChangeList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &ChangeList{
		selected: map[domain.Identity]bool{},
		styles:   s,
		width:    80,
		height:   10,
	}
}

// SetSnapshot replaces the items, keeping the cursor on the same identity when it survives.
func (c *ChangeList) SetSnapshot(snap *driving.ChangeSnapshot) {
	var current domain.Identity
	if p := c.Current(); p != nil {
		current = p.ID
	}

	c.items = snap.Visible
	c.selected = make(map[domain.Identity]bool, len(snap.Selected))
	for _, id := range snap.Selected {
		c.selected[id] = true
	}

	for i := range c.items {
		if c.items[i].ID == current {
			c.cursor = i
			return
		}
	}
	if c.cursor >= len(c.items) {
		c.cursor = len(c.items) - 1
	}
	if c.cursor < 0 {
		c.cursor = 0
	}
}

// View renders the list.
func (c *ChangeList) View() string {
	if len(c.items) == 0 {
		return c.styles.Muted.Render("No changes")
	}

	visibleCount := c.height - 1
	if visibleCount < 1 {
		visibleCount = 1
	}
	start := 0
	if c.cursor >= visibleCount {
		start = c.cursor - visibleCount + 1
	}
	end := start + visibleCount
	if end > len(c.items) {
		end = len(c.items)
	}

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		lines = append(lines, c.renderItem(i))
	}
	return strings.Join(lines, "\n")
}

func (c *ChangeList) renderItem(index int) string {
	p := c.items[index]

	indicator := "  "
	if index == c.cursor {
		indicator = "> "
	}
	check := "[ ]"
	if c.selected[p.ID] {
		check = "[x]"
	}

	title := p.Title()
	maxTitle := c.width - 30
	if maxTitle < 10 {
		maxTitle = 10
	}
	if len(title) > maxTitle {
		title = title[:maxTitle-3] + "..."
	}

	kind := lipgloss.NewStyle().
		Foreground(c.styles.KindColor(string(p.Kind))).
		Width(7).
		Render(string(p.Kind))

	detail := p.Path()
	if p.Kind == domain.ChangeKindEdit {
		detail = fmt.Sprintf("%d replacements", len(p.Edit.Changes))
	}

	if index == c.cursor {
		return c.styles.Selected.Render(fmt.Sprintf("%s%s ", indicator, check)) + " " + kind + " " +
			c.styles.Normal.Bold(true).Render(title) + "  " + c.styles.Muted.Render(detail)
	}
	return c.styles.Normal.Render(fmt.Sprintf("%s%s ", indicator, check)) + " " + kind + " " +
		c.styles.Normal.Render(title) + "  " + c.styles.Muted.Render(detail)
}

// Current returns the proposal under the cursor, or nil if the list is empty.
func (c *ChangeList) Current() *domain.Proposal {
	if c.cursor < 0 || c.cursor >= len(c.items) {
		return nil
	}
	return &c.items[c.cursor]
}

// Cursor returns the cursor index.
func (c *ChangeList) Cursor() int {
	return c.cursor
}

// IsSelected reports whether id is shown as selected.
func (c *ChangeList) IsSelected(id domain.Identity) bool {
	return c.selected[id]
}

// MoveUp moves the cursor up.
func (c *ChangeList) MoveUp() {
	if c.cursor > 0 {
		c.cursor--
	}
}

// MoveDown moves the cursor down.
func (c *ChangeList) MoveDown() {
	if c.cursor < len(c.items)-1 {
		c.cursor++
	}
}

// SetDimensions sets the component dimensions.
func (c *ChangeList) SetDimensions(width, height int) {
	c.width = width
	c.height = height
}

// Count returns the number of items.
func (c *ChangeList) Count() int {
	return len(c.items)
}
