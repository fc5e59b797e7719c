package domain

import "sort"

// Selection tracks the selected proposal identities and the active filter.
// Changing the filter never alters the selected set: items selected under
// one filter stay selected when the filter changes back.
type Selection struct {
	selected map[Identity]struct{}
	filter   ChangeFilter
}

// NewSelection creates an empty selection with FilterAll.
func NewSelection() *Selection {
	return &Selection{
		selected: make(map[Identity]struct{}),
		filter:   FilterAll,
	}
}

// Toggle flips the selection state of id and returns the new state.
func (s *Selection) Toggle(id Identity) bool {
	if _, ok := s.selected[id]; ok {
		delete(s.selected, id)
		return false
	}
	s.selected[id] = struct{}{}
	return true
}

// SelectAll adds every visible identity. Selections outside the list are kept.
func (s *Selection) SelectAll(visible []Identity) {
	for _, id := range visible {
		s.selected[id] = struct{}{}
	}
}

// DeselectAll clears the selected set.
func (s *Selection) DeselectAll() {
	s.selected = make(map[Identity]struct{})
}

// Remove drops the given identities from the selected set.
func (s *Selection) Remove(ids ...Identity) {
	for _, id := range ids {
		delete(s.selected, id)
	}
}

// SetFilter changes the active filter.
func (s *Selection) SetFilter(f ChangeFilter) {
	s.filter = f
}

// Filter returns the active filter.
func (s *Selection) Filter() ChangeFilter {
	return s.filter
}

// IsSelected returns true if id is selected.
func (s *Selection) IsSelected(id Identity) bool {
	_, ok := s.selected[id]
	return ok
}

// Len returns the number of selected identities.
func (s *Selection) Len() int {
	return len(s.selected)
}

// Selected returns the selected identities in sorted order.
func (s *Selection) Selected() []Identity {
	ids := make([]Identity, 0, len(s.selected))
	for id := range s.selected {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
