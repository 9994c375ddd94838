// ABOUTME: Category pre-filter for searches and the user's selected-category state.
// ABOUTME: Selecting several categories matches entries tagged with any of them (OR).
package search

import (
	"sort"

	"github.com/2389-research/memento/internal/models"
)

// FilterByCategories keeps the entries tagged with at least one selected
// category. An empty selection keeps everything. Order is preserved.
func FilterByCategories(entries []*models.Entry, selected []string) []*models.Entry {
	if len(selected) == 0 {
		return entries
	}

	set := make(map[string]struct{}, len(selected))
	for _, c := range selected {
		set[c] = struct{}{}
	}

	out := make([]*models.Entry, 0, len(entries))
	for _, e := range entries {
		if e.HasAnyCategory(set) {
			out = append(out, e)
		}
	}
	return out
}

// Selection is the set of categories the user has picked to narrow results.
// The zero value is an empty selection.
type Selection struct {
	tags map[string]struct{}
}

// NewSelection returns a selection holding tags.
func NewSelection(tags ...string) *Selection {
	s := &Selection{}
	for _, t := range tags {
		s.add(t)
	}
	return s
}

func (s *Selection) add(tag string) {
	if s.tags == nil {
		s.tags = make(map[string]struct{})
	}
	s.tags[tag] = struct{}{}
}

// Toggle selects tag if it was not selected and deselects it otherwise. It
// reports whether tag is selected afterwards.
func (s *Selection) Toggle(tag string) bool {
	if s.Has(tag) {
		delete(s.tags, tag)
		return false
	}
	s.add(tag)
	return true
}

// Has reports whether tag is selected.
func (s *Selection) Has(tag string) bool {
	_, ok := s.tags[tag]
	return ok
}

// Clear deselects everything.
func (s *Selection) Clear() {
	s.tags = nil
}

// Len returns the number of selected tags.
func (s *Selection) Len() int {
	return len(s.tags)
}

// Tags returns the selected tags in sorted order.
func (s *Selection) Tags() []string {
	out := make([]string, 0, len(s.tags))
	for t := range s.tags {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
