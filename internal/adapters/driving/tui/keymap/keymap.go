// Package keymap defines keybindings for the TUI.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all keybindings for the TUI.
type KeyMap struct {
	Quit key.Binding
	Back key.Binding
	Up   key.Binding
	Down key.Binding

	// Submit starts an analysis from the query view.
	Submit key.Binding

	// NextField moves focus between query inputs.
	NextField key.Binding

	// ToggleStream switches between streamed and blocking analysis.
	ToggleStream key.Binding

	// Review bindings.
	NextFilter     key.Binding
	Toggle         key.Binding
	SelectAll      key.Binding
	DeselectAll    key.Binding
	Apply          key.Binding
	ApplySelected  key.Binding
	Ignore         key.Binding
	IgnoreSelected key.Binding
	Preview        key.Binding
	NewQuery       key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "analyze"),
		),
		NextField: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next field"),
		),
		ToggleStream: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "stream"),
		),
		NextFilter: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "filter"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "toggle"),
		),
		SelectAll: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "select all"),
		),
		DeselectAll: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "deselect all"),
		),
		Apply: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "apply"),
		),
		ApplySelected: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "apply selected"),
		),
		Ignore: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "ignore"),
		),
		IgnoreSelected: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "ignore selected"),
		),
		Preview: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "preview"),
		),
		NewQuery: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new query"),
		),
	}
}

// QueryHelp returns keybindings for the query view.
func (k *KeyMap) QueryHelp() []key.Binding {
	return []key.Binding{k.Submit, k.NextField, k.ToggleStream, k.Back}
}

// ProgressHelp returns keybindings for the progress view.
func (k *KeyMap) ProgressHelp() []key.Binding {
	return []key.Binding{k.Back}
}

// ReviewHelp returns keybindings for the review view.
func (k *KeyMap) ReviewHelp() []key.Binding {
	return []key.Binding{
		k.NextFilter, k.Toggle, k.SelectAll, k.Apply, k.ApplySelected,
		k.Ignore, k.Preview, k.Quit,
	}
}

// PreviewHelp returns keybindings for the preview view.
func (k *KeyMap) PreviewHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Back}
}

// Matches checks if a key string matches a binding.
func Matches(keyStr string, binding key.Binding) bool {
	for _, k := range binding.Keys() {
		if k == keyStr {
			return true
		}
	}
	return false
}
