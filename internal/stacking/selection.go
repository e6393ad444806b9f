package stacking

import (
	"slices"

	"github.com/xenking/promo-tracker/internal/domain/promotion"
)

// Selection is an ordered set of promotions chosen for one purchase. Adding a
// promotion that cannot be combined with the current selection replaces the
// selection with that promotion alone.
//
// A Selection is not safe for concurrent use.
type Selection struct {
	promos []promotion.Definition
}

// NewSelection returns a selection holding promos in order. Duplicate ids are
// kept once.
func NewSelection(promos ...promotion.Definition) *Selection {
	s := &Selection{}
	for _, p := range promos {
		if !s.Has(p.ID) {
			s.promos = append(s.promos, p)
		}
	}
	return s
}

// Add selects p. It reports whether the previous selection was discarded
// because p could not be combined with it.
func (s *Selection) Add(p promotion.Definition) (replaced bool) {
	if s.Has(p.ID) {
		return false
	}
	candidate := append(slices.Clone(s.promos), p)
	if ValidCombination(candidate) {
		s.promos = candidate
		return false
	}
	s.promos = []promotion.Definition{p}
	return true
}

// Toggle deselects p when selected and otherwise adds it. It reports whether
// the selection was replaced.
func (s *Selection) Toggle(p promotion.Definition) (replaced bool) {
	if s.Remove(p.ID) {
		return false
	}
	return s.Add(p)
}

// Remove deselects the promotion with the given id and reports whether it
// was selected.
func (s *Selection) Remove(id string) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	s.promos = slices.Delete(s.promos, i, i+1)
	return true
}

// Clear empties the selection.
func (s *Selection) Clear() { s.promos = nil }

// Has reports whether id is selected.
func (s *Selection) Has(id string) bool { return s.index(id) >= 0 }

// Len returns the number of selected promotions.
func (s *Selection) Len() int { return len(s.promos) }

// Promotions returns a copy of the selected promotions in selection order.
func (s *Selection) Promotions() []promotion.Definition {
	return slices.Clone(s.promos)
}

// IDs returns the selected ids in selection order.
func (s *Selection) IDs() []string {
	ids := make([]string, len(s.promos))
	for i, p := range s.promos {
		ids[i] = p.ID
	}
	return ids
}

func (s *Selection) index(id string) int {
	return slices.IndexFunc(s.promos, func(p promotion.Definition) bool {
		return p.ID == id
	})
}
