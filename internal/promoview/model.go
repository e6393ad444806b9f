// Package promoview presents a promotion together with its computed windows:
// the active interval with its figures, the upcoming intervals and the past
// intervals with the purchases made in each.
package promoview

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/promo-tracker/internal/calendar"
	"github.com/xenking/promo-tracker/internal/domain/promotion"
	"github.com/xenking/promo-tracker/internal/domain/purchase"
	"github.com/xenking/promo-tracker/internal/pipeline"
	"github.com/xenking/promo-tracker/internal/stacking"
)

// PastInterval is an elapsed window and the purchases made during it.
type PastInterval struct {
	calendar.Interval
	Purchases []purchase.Purchase
}

// Model is an immutable snapshot of a promotion computed against a reference
// date. All fields are derived once by New.
type Model struct {
	Definition promotion.Definition
	Today      calendar.Date

	Active *pipeline.ActiveInterval
	Future []calendar.Interval
	Past   []PastInterval

	// CalculatedPurchaseAmount is the purchase volume that exhausts the
	// refund limit.
	CalculatedPurchaseAmount decimal.Decimal
}

// New builds a Model from the final state of a pipeline run.
func New(s pipeline.State) Model {
	def := s.Input.Definition
	today := s.Input.Today

	m := Model{
		Definition:               def,
		Today:                    today,
		Active:                   s.Active,
		Future:                   []calendar.Interval{},
		Past:                     []PastInterval{},
		CalculatedPurchaseAmount: def.PurchaseFor(def.Limit.Amount),
	}
	for _, iv := range s.Intervals {
		switch {
		case iv.From.After(today):
			m.Future = append(m.Future, iv)
		case iv.To.Before(today):
			m.Past = append(m.Past, PastInterval{
				Interval:  iv,
				Purchases: purchasesIn(s.Input.Purchases, def.ID, iv),
			})
		}
	}
	return m
}

// Compute runs p for in and wraps the result.
func Compute(p *pipeline.Pipeline, in pipeline.Input) Model {
	return New(p.Run(in))
}

// ID returns the promotion id.
func (m Model) ID() string { return m.Definition.ID }

// HasActive reports whether a window contains the reference date.
func (m Model) HasActive() bool { return m.Active != nil }

// HasFuture reports whether a window starts after the reference date.
func (m Model) HasFuture() bool { return len(m.Future) > 0 }

// IsStackable reports whether the promotion may be combined.
func (m Model) IsStackable() bool { return m.Definition.IsStackable() }

// StackingType returns the stacking role of the promotion.
func (m Model) StackingType() promotion.StackingType { return m.Definition.StackingType() }

// CanStackWith reports whether the promotion combines with other.
func (m Model) CanStackWith(other Model) bool {
	return stacking.CanStackWith(m.Definition, other.Definition)
}

func purchasesIn(ps []purchase.Purchase, promoID string, iv calendar.Interval) []purchase.Purchase {
	out := []purchase.Purchase{}
	for _, p := range ps {
		if p.AppliesTo(promoID) && iv.Contains(p.Date) {
			out = append(out, p)
		}
	}
	return out
}
