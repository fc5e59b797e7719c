package keymap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultKeyMap_ReviewBindings(t *testing.T) {
	km := DefaultKeyMap()
	require.NotNil(t, km)

	tests := []struct {
		name string
		key  string
		ok   bool
	}{
		{"tab cycles filter", "tab", Matches("tab", km.NextFilter)},
		{"space toggles", " ", Matches(" ", km.Toggle)},
		{"a selects all", "a", Matches("a", km.SelectAll)},
		{"A deselects all", "A", Matches("A", km.DeselectAll)},
		{"enter applies", "enter", Matches("enter", km.Apply)},
		{"x applies selected", "x", Matches("x", km.ApplySelected)},
		{"d ignores", "d", Matches("d", km.Ignore)},
		{"D ignores selected", "D", Matches("D", km.IgnoreSelected)},
		{"p previews", "p", Matches("p", km.Preview)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.ok, tt.key)
		})
	}
}

func TestDefaultKeyMap_QuitBinding(t *testing.T) {
	km := DefaultKeyMap()

	keys := km.Quit.Keys()
	assert.Contains(t, keys, "q")
	assert.Contains(t, keys, "ctrl+c")
}

func TestMatches(t *testing.T) {
	km := DefaultKeyMap()

	assert.True(t, Matches("k", km.Up))
	assert.True(t, Matches("down", km.Down))
	assert.False(t, Matches("a", km.DeselectAll))
	assert.False(t, Matches("", km.Back))
}

func TestHelpGroups(t *testing.T) {
	km := DefaultKeyMap()

	assert.NotEmpty(t, km.QueryHelp())
	assert.NotEmpty(t, km.ProgressHelp())
	assert.Len(t, km.ReviewHelp(), 8)
	assert.NotEmpty(t, km.PreviewHelp())
}
