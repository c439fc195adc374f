// Package selection tracks the selected items of the current view, the
// rectangle (marquee) selection gesture and the clipboard buffer.
//
// None of the types here touch the file-system model directly except
// Clipboard.Paste, which goes through the Paster interface.
package selection

import "slices"

// Selection is an insertion-ordered set of entity ids.
type Selection struct {
	ids []string
}

// New returns an empty selection.
func New() *Selection {
	return &Selection{}
}

// Click applies a click on id. A plain click selects only id; a toggle click
// (ctrl/cmd) flips its membership.
func (s *Selection) Click(id string, toggle bool) {
	if !toggle {
		s.ids = []string{id}
		return
	}
	if idx := slices.Index(s.ids, id); idx >= 0 {
		s.ids = slices.Delete(s.ids, idx, idx+1)
		return
	}
	s.ids = append(s.ids, id)
}

// Set replaces the selection. Duplicates are dropped.
func (s *Selection) Set(ids []string) {
	s.ids = s.ids[:0:0]
	for _, id := range ids {
		if !slices.Contains(s.ids, id) {
			s.ids = append(s.ids, id)
		}
	}
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.ids = nil
}

// IDs returns a copy of the selected ids in selection order.
func (s *Selection) IDs() []string {
	return slices.Clone(s.ids)
}

// Contains reports whether id is selected.
func (s *Selection) Contains(id string) bool {
	return slices.Contains(s.ids, id)
}

// Len returns the number of selected ids.
func (s *Selection) Len() int {
	return len(s.ids)
}
