package cart

import "sort"

// Selection is the set of checked line ids. It is never persisted.
type Selection map[string]struct{}

func NewSelection(ids ...string) Selection {
	s := make(Selection, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s Selection) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Toggle flips a single line.
func (s Selection) Toggle(id string) {
	if s.Has(id) {
		delete(s, id)
		return
	}
	s[id] = struct{}{}
}

// ToggleShop sets or clears exactly the lines of g; other shops are untouched.
func (s Selection) ToggleShop(g Group, checked bool) {
	for _, l := range g.Lines {
		if checked {
			s[l.ID] = struct{}{}
		} else {
			delete(s, l.ID)
		}
	}
}

// IDs returns the selected ids in sorted order.
func (s Selection) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
