package stacking

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/xenking/promo-tracker/internal/domain/promotion"
)

// Strategy computes the combined discount for promotion sets of a shape it
// recognizes.
type Strategy interface {
	Supports(promos []promotion.Definition) bool
	Calculate(amount decimal.Decimal, promos []promotion.Definition) promotion.DiscountResult
}

// PairwiseExtra handles exactly two promotions of which at least one is a
// stackable extra. Each discount is computed on the full amount and capped by
// its own limit.
type PairwiseExtra struct{}

// Supports implements Strategy.
func (PairwiseExtra) Supports(promos []promotion.Definition) bool {
	if len(promos) != 2 {
		return false
	}
	return slices.ContainsFunc(promos, func(p promotion.Definition) bool {
		return p.IsStackable() && p.IsExtra()
	})
}

// Calculate implements Strategy.
func (PairwiseExtra) Calculate(amount decimal.Decimal, promos []promotion.Definition) promotion.DiscountResult {
	breakdown := make([]promotion.DiscountEntry, len(promos))
	for i, p := range promos {
		breakdown[i] = entryFor(amount, p)
	}
	return result(amount, breakdown)
}

// ParallelOverTotal handles two or more promotions that are all stackable.
// Every discount is computed independently on the full amount. When the sum
// would exceed the amount, entries are scaled down proportionally and
// floored.
type ParallelOverTotal struct{}

// Supports implements Strategy.
func (ParallelOverTotal) Supports(promos []promotion.Definition) bool {
	if len(promos) < 2 {
		return false
	}
	for _, p := range promos {
		if !p.IsStackable() {
			return false
		}
	}
	return true
}

// Calculate implements Strategy.
func (ParallelOverTotal) Calculate(amount decimal.Decimal, promos []promotion.Definition) promotion.DiscountResult {
	ordered := slices.Clone(promos)
	slices.SortStableFunc(ordered, func(a, b promotion.Definition) int {
		return a.Priority() - b.Priority()
	})

	breakdown := make([]promotion.DiscountEntry, len(ordered))
	total := decimal.Zero
	for i, p := range ordered {
		breakdown[i] = entryFor(amount, p)
		total = total.Add(breakdown[i].DiscountValue)
	}

	if total.GreaterThan(amount) {
		factor := amount.Div(total)
		for i := range breakdown {
			breakdown[i].DiscountValue = breakdown[i].DiscountValue.Mul(factor).Floor()
		}
	}

	return result(amount, breakdown)
}

// BestSingle applies only the promotion granting the largest capped discount.
// Ties keep the earliest promotion.
func BestSingle(amount decimal.Decimal, promos []promotion.Definition) promotion.DiscountResult {
	if len(promos) == 0 {
		return promotion.NoDiscount(amount)
	}

	best := entryFor(amount, promos[0])
	for _, p := range promos[1:] {
		e := entryFor(amount, p)
		if e.DiscountValue.GreaterThan(best.DiscountValue) {
			best = e
		}
	}
	return result(amount, []promotion.DiscountEntry{best})
}

func entryFor(amount decimal.Decimal, p promotion.Definition) promotion.DiscountEntry {
	return promotion.DiscountEntry{
		PromoID:       p.ID,
		Percent:       p.Discount,
		BaseApplied:   amount,
		DiscountValue: p.CappedRefund(amount),
		LimitAmount:   p.Limit.Amount,
	}
}

func result(amount decimal.Decimal, breakdown []promotion.DiscountEntry) promotion.DiscountResult {
	total := decimal.Zero
	for _, e := range breakdown {
		total = total.Add(e.DiscountValue)
	}
	return promotion.DiscountResult{
		TotalDiscount: total,
		FinalAmount:   amount.Sub(total),
		Breakdown:     breakdown,
	}
}
