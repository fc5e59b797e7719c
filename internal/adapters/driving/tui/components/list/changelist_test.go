package list

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docflow-cli/internal/core/domain"
	"github.com/custodia-labs/docflow-cli/internal/core/ports/driving"
)

func sampleSnapshot(selected ...domain.Identity) *driving.ChangeSnapshot {
	set := domain.NewChangeSet(domain.ChangeBatch{
		Edit:   []domain.EditProposal{{DocumentID: "doc-1", Changes: []domain.ContentChange{{OldString: "a", NewString: "b"}}}},
		Create: []domain.CreateProposal{{Name: "setup", Title: "Setup", Path: "/setup"}},
		Delete: []domain.DeleteProposal{{DocumentID: "doc-9", Title: "Legacy"}},
	})
	return &driving.ChangeSnapshot{
		Filter:   domain.FilterAll,
		Visible:  set.Visible(domain.FilterAll),
		Selected: selected,
		Counts:   set.Counts(),
	}
}

func TestChangeList_Empty(t *testing.T) {
	c := NewChangeList(nil)

	assert.Nil(t, c.Current())
	assert.Contains(t, c.View(), "No changes")
}

func TestChangeList_Navigation(t *testing.T) {
	c := NewChangeList(nil)
	c.SetSnapshot(sampleSnapshot())

	require.Equal(t, 3, c.Count())
	assert.Equal(t, domain.Identity("doc-1"), c.Current().ID)

	c.MoveUp()
	assert.Equal(t, 0, c.Cursor())

	c.MoveDown()
	c.MoveDown()
	c.MoveDown()
	assert.Equal(t, 2, c.Cursor())
	assert.Equal(t, domain.Identity("delete-0"), c.Current().ID)
}

func TestChangeList_KeepsCursorOnSameItem(t *testing.T) {
	c := NewChangeList(nil)
	c.SetSnapshot(sampleSnapshot())
	c.MoveDown()
	c.MoveDown()

	snap := sampleSnapshot()
	snap.Visible = snap.Visible[1:]
	c.SetSnapshot(snap)

	assert.Equal(t, domain.Identity("delete-0"), c.Current().ID)
}

func TestChangeList_ClampsCursorWhenItemRemoved(t *testing.T) {
	c := NewChangeList(nil)
	c.SetSnapshot(sampleSnapshot())
	c.MoveDown()
	c.MoveDown()

	snap := sampleSnapshot()
	snap.Visible = snap.Visible[:2]
	c.SetSnapshot(snap)

	assert.Equal(t, 1, c.Cursor())

	snap.Visible = nil
	c.SetSnapshot(snap)
	assert.Equal(t, 0, c.Cursor())
	assert.Nil(t, c.Current())
}

func TestChangeList_RendersSelection(t *testing.T) {
	c := NewChangeList(nil)
	c.SetSnapshot(sampleSnapshot("create-0"))

	out := c.View()
	assert.True(t, c.IsSelected("create-0"))
	assert.False(t, c.IsSelected("doc-1"))
	assert.Contains(t, out, "[x]")
	assert.Contains(t, out, "[ ]")
	assert.Contains(t, out, "Setup")
	assert.Contains(t, out, "1 replacements")
}
