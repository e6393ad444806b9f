package pipeline

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/promo-tracker/internal/calendar"
	"github.com/xenking/promo-tracker/internal/domain/purchase"
)

// Regime identifies which cap arithmetic produced an ActiveInterval.
type Regime string

const (
	// RegimeSingleCap is one refund cap for the whole period.
	RegimeSingleCap Regime = "singleCap"
	// RegimeTotalCap is a per-purchase cap plus an aggregate cap.
	RegimeTotalCap Regime = "totalCap"
	// RegimePaymentMethods is an independent cap per payment method.
	RegimePaymentMethods Regime = "paymentMethods"
)

// MethodUsage is the refund usage of one payment method.
type MethodUsage struct {
	Method            string          `json:"method"`
	Purchased         decimal.Decimal `json:"purchased"`
	Refund            decimal.Decimal `json:"refund"`
	RemainingRefund   decimal.Decimal `json:"remainingRefund"`
	RemainingPurchase decimal.Decimal `json:"remainingPurchase"`
	UsageFraction     decimal.Decimal `json:"usageFraction"`
}

// ActiveInterval is the window containing the reference date together with
// the purchase and refund figures counted against it.
//
// Methods is always populated for RegimePaymentMethods, sorted by remaining
// refund descending. For the other regimes it holds a single mirrored entry
// when the promotion declares exactly one payment method, and is nil
// otherwise.
type ActiveInterval struct {
	calendar.Interval

	Regime              Regime
	Purchases           []purchase.Purchase
	TotalPurchased      decimal.Decimal
	TotalRefunded       decimal.Decimal
	AvailableToPurchase decimal.Decimal
	Methods             []MethodUsage

	// Uncapped is set when the governing cap is zero, meaning refunds are
	// unlimited and AvailableToPurchase carries no bound.
	Uncapped bool
}

func (a ActiveInterval) clone() *ActiveInterval {
	c := a
	c.Purchases = append([]purchase.Purchase(nil), a.Purchases...)
	c.Methods = append([]MethodUsage(nil), a.Methods...)
	return &c
}
