// Package patcher applies ordered text replacements to document content
// and renders line diffs for previews.
package patcher

import (
	"sort"
	"strings"

	"github.com/custodia-labs/docflow-cli/internal/core/domain"
)

// Apply patches base with changes.
//
// Changes are ordered by the last index at which their OldString occurs in
// base, rightmost first, and each then replaces the first occurrence of its
// OldString in the progressively patched text. An OldString that is not found
// leaves the text unchanged for that entry.
//
// Changes whose OldString values overlap or contain one another are applied
// naively in that order; the result may not be what either change intended.
func Apply(base string, changes []domain.ContentChange) string {
	if len(changes) == 0 {
		return base
	}

	type positioned struct {
		change domain.ContentChange
		index  int
	}

	ordered := make([]positioned, len(changes))
	for i, c := range changes {
		idx := -1
		if c.OldString != "" {
			idx = strings.LastIndex(base, c.OldString)
		}
		ordered[i] = positioned{change: c, index: idx}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].index > ordered[j].index
	})

	result := base
	for _, p := range ordered {
		if p.change.OldString == "" {
			continue
		}
		result = strings.Replace(result, p.change.OldString, p.change.NewString, 1)
	}
	return result
}

// Misses returns the changes whose OldString does not occur in base.
// Apply skips these silently; callers may surface them as warnings.
func Misses(base string, changes []domain.ContentChange) []domain.ContentChange {
	var missed []domain.ContentChange
	for _, c := range changes {
		if c.OldString == "" || !strings.Contains(base, c.OldString) {
			missed = append(missed, c)
		}
	}
	return missed
}
