package pipeline

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/promo-tracker/internal/calendar"
	"github.com/xenking/promo-tracker/internal/domain/purchase"
)

// BuildIntervals expands the promotion validity into concrete intervals.
type BuildIntervals struct{}

// Run implements Step.
func (BuildIntervals) Run(s State) State {
	def := s.Input.Definition
	s.Intervals = calendar.BuildIntervals(
		def.Validity.From,
		def.Validity.To,
		def.Validity.Recurrence(),
		def.Limit.Period,
	)
	return s
}

// SelectActive picks the first interval containing the reference date.
type SelectActive struct{}

// Run implements Step.
func (SelectActive) Run(s State) State {
	s.Active = nil
	for _, iv := range s.Intervals {
		if iv.Contains(s.Input.Today) {
			s.Active = &ActiveInterval{
				Interval:            iv,
				Regime:              RegimeSingleCap,
				TotalPurchased:      decimal.Zero,
				TotalRefunded:       decimal.Zero,
				AvailableToPurchase: decimal.Zero,
			}
			break
		}
	}
	return s
}

// AggregatePurchases collects the purchases counted toward the active
// interval and sums their amounts.
//
// Monthly promotions count every purchase in the calendar month of the
// reference date, regardless of where the active interval starts or ends.
// Purchases below the minimum amount are excluded.
type AggregatePurchases struct{}

// Run implements Step.
func (AggregatePurchases) Run(s State) State {
	if s.Active == nil {
		return s
	}
	def := s.Input.Definition

	window := s.Active.Interval
	if def.Limit.Period == calendar.PeriodMonth {
		window = calendar.Interval{
			From: s.Input.Today.StartOfMonth(),
			To:   s.Input.Today.EndOfMonth(),
		}
	}

	active := s.Active.clone()
	active.Purchases = CountedPurchases(s.Input, window)
	active.TotalPurchased = sumAmounts(active.Purchases)
	s.Active = active
	return s
}

// CountedPurchases returns the purchases of in that apply to the promotion,
// fall within window and meet its minimum amount.
func CountedPurchases(in Input, window calendar.Interval) []purchase.Purchase {
	def := in.Definition
	out := make([]purchase.Purchase, 0, len(in.Purchases))
	for _, p := range in.Purchases {
		if !p.AppliesTo(def.ID) || !window.Contains(p.Date) {
			continue
		}
		if !def.QualifiesFor(p.Amount) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func sumAmounts(ps []purchase.Purchase) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range ps {
		sum = sum.Add(p.Amount)
	}
	return sum
}
