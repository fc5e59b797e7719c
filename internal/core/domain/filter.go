package domain

import (
	"fmt"
	"strings"
)

// ChangeFilter restricts the visible proposals to one kind, or shows all of them.
type ChangeFilter string

// Available filters.
const (
	FilterAll    ChangeFilter = "all"
	FilterEdit   ChangeFilter = "edit"
	FilterCreate ChangeFilter = "create"
	FilterDelete ChangeFilter = "delete"
)

// AllChangeFilters returns the filters in display order.
func AllChangeFilters() []ChangeFilter {
	return []ChangeFilter{FilterAll, FilterEdit, FilterCreate, FilterDelete}
}

// ParseChangeFilter converts user input into a filter.
// The empty string selects FilterAll.
func ParseChangeFilter(s string) (ChangeFilter, error) {
	f := ChangeFilter(strings.ToLower(strings.TrimSpace(s)))
	if f == "" {
		return FilterAll, nil
	}
	if !f.IsValid() {
		return "", fmt.Errorf("%w: unknown filter %q", ErrInvalidInput, s)
	}
	return f, nil
}

// IsValid returns true if the filter is recognised.
func (f ChangeFilter) IsValid() bool {
	switch f {
	case FilterAll, FilterEdit, FilterCreate, FilterDelete:
		return true
	default:
		return false
	}
}

// Matches returns true if proposals of the given kind pass the filter.
func (f ChangeFilter) Matches(kind ChangeKind) bool {
	if f == FilterAll {
		return true
	}
	return string(f) == string(kind)
}

// Next returns the filter that follows f in display order, wrapping around.
func (f ChangeFilter) Next() ChangeFilter {
	all := AllChangeFilters()
	for i, candidate := range all {
		if candidate == f {
			return all[(i+1)%len(all)]
		}
	}
	return FilterAll
}

// String returns the string representation.
func (f ChangeFilter) String() string {
	return string(f)
}

// Label returns a human-readable label for the filter.
func (f ChangeFilter) Label() string {
	switch f {
	case FilterAll:
		return "All"
	case FilterEdit:
		return "Edits"
	case FilterCreate:
		return "Creates"
	case FilterDelete:
		return "Deletes"
	default:
		return unknownDescription
	}
}
