package stacking

import (
	"slices"

	"github.com/go-faster/errors"

	"github.com/xenking/promo-tracker/internal/domain/promotion"
)

// ErrInvalidCombination is returned when a set of promotions may not be
// applied together.
var ErrInvalidCombination = errors.New("invalid promotion combination")

// CanStackWith reports whether a and b may be combined. Both must be
// stackable and they must not share the base or extra role. An extra that
// lists the bases it applies with only combines with those; an extra without
// a list combines with any base.
func CanStackWith(a, b promotion.Definition) bool {
	if !a.IsStackable() || !b.IsStackable() {
		return false
	}
	if a.IsBase() && b.IsBase() {
		return false
	}
	if a.IsExtra() && b.IsExtra() {
		return false
	}
	switch {
	case a.IsExtra() && b.IsBase():
		return extraAccepts(a, b.ID)
	case b.IsExtra() && a.IsBase():
		return extraAccepts(b, a.ID)
	}
	return true
}

// ValidCombination reports whether promos may be applied together. A single
// promotion is always valid. Two or more must all be stackable, with at most
// one base; without a base at most one extra; with a base, every extra must
// accept that base.
func ValidCombination(promos []promotion.Definition) bool {
	if len(promos) <= 1 {
		return true
	}

	var (
		bases  []promotion.Definition
		extras []promotion.Definition
	)
	for _, p := range promos {
		switch {
		case !p.IsStackable():
			return false
		case p.IsBase():
			bases = append(bases, p)
		case p.IsExtra():
			extras = append(extras, p)
		}
	}

	switch len(bases) {
	case 0:
		return len(extras) <= 1
	case 1:
		for _, e := range extras {
			if !extraAccepts(e, bases[0].ID) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func extraAccepts(extra promotion.Definition, baseID string) bool {
	list := extra.AppliesWith()
	return len(list) == 0 || slices.Contains(list, baseID)
}
