package promotion

import "github.com/shopspring/decimal"

var (
	hundred = decimal.NewFromInt(100)
	zero    = decimal.Zero
)

// DiscountEntry is one promotion's share of a combined discount.
type DiscountEntry struct {
	PromoID       string          `json:"promoId"`
	Percent       decimal.Decimal `json:"percent"`
	BaseApplied   decimal.Decimal `json:"baseApplied"`
	DiscountValue decimal.Decimal `json:"discountValue"`
	LimitAmount   decimal.Decimal `json:"limitAmount"`
}

// DiscountResult is the outcome of applying one or more promotions to an
// amount.
type DiscountResult struct {
	TotalDiscount decimal.Decimal `json:"totalDiscount"`
	FinalAmount   decimal.Decimal `json:"finalAmount"`
	Breakdown     []DiscountEntry `json:"breakdown"`
}

// NoDiscount returns the result of applying nothing to amount.
func NoDiscount(amount decimal.Decimal) DiscountResult {
	return DiscountResult{
		TotalDiscount: zero,
		FinalAmount:   amount,
		Breakdown:     []DiscountEntry{},
	}
}

// RawRefund returns amount * discount / 100 without any cap.
func (d Definition) RawRefund(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(d.Discount).Div(hundred)
}

// CappedRefund returns the refund for amount capped at Limit.Amount. A zero
// Limit.Amount leaves the refund uncapped.
func (d Definition) CappedRefund(amount decimal.Decimal) decimal.Decimal {
	return CapAt(d.RawRefund(amount), d.Limit.Amount)
}

// PurchaseFor converts a refund back into the purchase volume that yields it.
// A zero discount yields zero.
func (d Definition) PurchaseFor(refund decimal.Decimal) decimal.Decimal {
	if d.Discount.IsZero() {
		return zero
	}
	return refund.Mul(hundred).Div(d.Discount)
}

// CapAt returns min(v, limit), treating a zero limit as no cap.
func CapAt(v, limit decimal.Decimal) decimal.Decimal {
	if limit.IsZero() {
		return v
	}
	return decimal.Min(v, limit)
}

// FloorAtZero clamps negative values to zero.
func FloorAtZero(v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return zero
	}
	return v
}
