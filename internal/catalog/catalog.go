// Package catalog holds the published promotion definitions.
package catalog

import (
	"context"
	"slices"

	"github.com/go-faster/errors"

	"github.com/xenking/promo-tracker/internal/domain/promotion"
)

var (
	// ErrNotFound is returned when no promotion exists with the requested id.
	ErrNotFound = errors.New("promotion not found")
	// ErrInvalidDefinition is returned for definitions that cannot be served.
	ErrInvalidDefinition = errors.New("invalid promotion definition")
)

// Catalog is an immutable, ordered registry of promotion definitions. It is
// safe for concurrent use.
type Catalog struct {
	defs []promotion.Definition
	byID map[string]int
}

// New builds a catalog from defs. When several definitions share an id the
// last one wins and keeps the position of the first.
func New(defs ...promotion.Definition) *Catalog {
	c := &Catalog{byID: make(map[string]int, len(defs))}
	for _, def := range defs {
		if i, ok := c.byID[def.ID]; ok {
			c.defs[i] = def
			continue
		}
		c.byID[def.ID] = len(c.defs)
		c.defs = append(c.defs, def)
	}
	return c
}

// List returns every definition in catalog order.
func (c *Catalog) List(_ context.Context) ([]promotion.Definition, error) {
	return slices.Clone(c.defs), nil
}

// Get returns the definition with the given id.
func (c *Catalog) Get(_ context.Context, id string) (promotion.Definition, error) {
	i, ok := c.byID[id]
	if !ok {
		return promotion.Definition{}, errors.Wrapf(ErrNotFound, "id %q", id)
	}
	return c.defs[i], nil
}

// Len returns the number of definitions.
func (c *Catalog) Len() int { return len(c.defs) }

// Validate checks the fields every computation relies on.
func Validate(def promotion.Definition) error {
	switch {
	case def.ID == "":
		return errors.Wrap(ErrInvalidDefinition, "missing id")
	case def.Discount.IsNegative() || def.Discount.GreaterThan(hundred):
		return errors.Wrapf(ErrInvalidDefinition, "%s: discount %s out of range", def.ID, def.Discount)
	case def.Limit.Amount.IsNegative():
		return errors.Wrapf(ErrInvalidDefinition, "%s: negative limit", def.ID)
	case def.Validity.From.IsZero() || def.Validity.To.IsZero():
		return errors.Wrapf(ErrInvalidDefinition, "%s: missing validity bounds", def.ID)
	}
	for _, wd := range def.Validity.DaysOfWeek {
		if wd < 0 || wd > 6 {
			return errors.Wrapf(ErrInvalidDefinition, "%s: weekday %d out of range", def.ID, wd)
		}
	}
	return nil
}
