package experience

import (
	"slices"
	"strings"
)

// Selection tracks the items a user picked and what they wrote about them.
// The zero value is not usable; call NewSelection.
type Selection struct {
	items        map[string]Item
	order        []string
	selected     map[string]bool
	elaborations map[string]string
}

// NewSelection creates an empty selection over the given candidates.
func NewSelection(candidates []Item) *Selection {
	s := &Selection{
		items:        make(map[string]Item, len(candidates)),
		selected:     make(map[string]bool),
		elaborations: make(map[string]string),
	}
	for _, it := range candidates {
		if _, dup := s.items[it.ID]; dup {
			continue
		}
		s.items[it.ID] = it
		s.order = append(s.order, it.ID)
	}
	return s
}

// Toggle flips the selection state of id and reports the new state.
func (s *Selection) Toggle(id string) (bool, error) {
	if _, ok := s.items[id]; !ok {
		return false, &UnknownItemError{ID: id}
	}
	if s.selected[id] {
		delete(s.selected, id)
		return false, nil
	}
	s.selected[id] = true
	return true, nil
}

// Elaborate records the user's note for id. Elaborations survive deselection.
func (s *Selection) Elaborate(id, text string) error {
	if _, ok := s.items[id]; !ok {
		return &UnknownItemError{ID: id}
	}
	if strings.TrimSpace(text) == "" {
		delete(s.elaborations, id)
		return nil
	}
	s.elaborations[id] = text
	return nil
}

// Elaboration returns the note for id, if any.
func (s *Selection) Elaboration(id string) string {
	return s.elaborations[id]
}

// Elaborations returns a copy of all notes keyed by item id.
func (s *Selection) Elaborations() map[string]string {
	out := make(map[string]string, len(s.elaborations))
	for k, v := range s.elaborations {
		out[k] = v
	}
	return out
}

// IsSelected reports whether id is selected.
func (s *Selection) IsSelected(id string) bool {
	return s.selected[id]
}

// Count is the number of selected items.
func (s *Selection) Count() int {
	return len(s.selected)
}

// Selected returns the selected items in candidate order.
func (s *Selection) Selected() []Item {
	out := make([]Item, 0, len(s.selected))
	for _, id := range s.order {
		if s.selected[id] {
			out = append(out, s.items[id])
		}
	}
	return out
}

// SelectedIDs returns the selected ids, sorted.
func (s *Selection) SelectedIDs() []string {
	ids := make([]string, 0, len(s.selected))
	for id := range s.selected {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Restore applies previously saved state, skipping ids that are no longer candidates.
func (s *Selection) Restore(ids []string, elaborations map[string]string) {
	for _, id := range ids {
		if _, ok := s.items[id]; ok {
			s.selected[id] = true
		}
	}
	for id, text := range elaborations {
		_ = s.Elaborate(id, text)
	}
}
