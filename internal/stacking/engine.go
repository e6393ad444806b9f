// Package stacking combines several promotions on a single purchase: it
// decides whether a set of promotions may be combined and computes the total
// discount and its per-promotion breakdown.
package stacking

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/promo-tracker/internal/domain/promotion"
)

// Engine selects the first registered Strategy supporting a promotion set.
// Sets no strategy claims fall back to BestSingle.
type Engine struct {
	strategies []Strategy
}

// NewEngine creates an Engine trying strategies in the given order.
func NewEngine(strategies ...Strategy) *Engine {
	return &Engine{strategies: strategies}
}

// DefaultEngine returns an Engine with PairwiseExtra then ParallelOverTotal.
func DefaultEngine() *Engine {
	return NewEngine(PairwiseExtra{}, ParallelOverTotal{})
}

// Calculate computes the discount for amount. Promotions whose minimum amount
// exceeds amount are ignored; when none remain the result carries no
// discount.
func (e *Engine) Calculate(amount decimal.Decimal, promos []promotion.Definition) promotion.DiscountResult {
	applicable := make([]promotion.Definition, 0, len(promos))
	for _, p := range promos {
		if p.QualifiesFor(amount) {
			applicable = append(applicable, p)
		}
	}
	if len(applicable) == 0 {
		return promotion.NoDiscount(amount)
	}

	for _, s := range e.strategies {
		if s.Supports(applicable) {
			return s.Calculate(amount, applicable)
		}
	}
	return BestSingle(amount, applicable)
}
