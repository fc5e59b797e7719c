package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTheme(t *testing.T) {
	theme := DefaultTheme()

	require.NotNil(t, theme)
	assert.NotEmpty(t, string(theme.Primary))
	assert.NotEmpty(t, string(theme.Foreground))
	assert.NotEmpty(t, string(theme.Error))
	assert.NotEmpty(t, string(theme.EditKind))
}

func TestDefaultTheme_KindColorsAreDistinct(t *testing.T) {
	theme := DefaultTheme()

	kinds := []lipgloss.Color{theme.EditKind, theme.CreateKind, theme.DeleteKind}
	seen := make(map[string]bool)
	for _, c := range kinds {
		assert.False(t, seen[string(c)], "duplicate kind colour %s", c)
		seen[string(c)] = true
	}
}

func TestNewStyles_NilTheme(t *testing.T) {
	s := NewStyles(nil)

	require.NotNil(t, s)
	assert.NotNil(t, s.Theme())
}

func TestStyles_KindColor(t *testing.T) {
	s := DefaultStyles()
	theme := s.Theme()

	assert.Equal(t, theme.EditKind, s.KindColor("edit"))
	assert.Equal(t, theme.CreateKind, s.KindColor("create"))
	assert.Equal(t, theme.DeleteKind, s.KindColor("delete"))
	assert.Equal(t, theme.Muted, s.KindColor("rename"))
}
