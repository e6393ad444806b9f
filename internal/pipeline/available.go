package pipeline

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/xenking/promo-tracker/internal/domain/promotion"
)

// ComputeAvailable applies the cap arithmetic of the promotion's limit to the
// aggregated purchases and derives refunded and still-purchasable amounts.
//
// Regimes, in order of precedence:
//   - Limit.TotalCap set: Limit.Amount caps each purchase's refund and
//     TotalCap caps their sum.
//   - Limit.Mode == paymentMethods: every declared method has its own cap.
//   - Otherwise a single cap for the whole period.
type ComputeAvailable struct{}

// Run implements Step.
func (ComputeAvailable) Run(s State) State {
	if s.Active == nil {
		return s
	}
	def := s.Input.Definition
	a := s.Active.clone()

	switch {
	case def.HasTotalCap():
		applyTotalCap(def, a)
	case def.Limit.Mode == promotion.LimitPaymentMethods && len(def.PaymentMethods) > 0:
		applyPerMethod(def, a)
	default:
		applySingleCap(def, a)
	}

	if len(a.Methods) == 0 && len(def.PaymentMethods) == 1 {
		a.Methods = []MethodUsage{mirrorMethod(def, a)}
	}

	s.Active = a
	return s
}

func applySingleCap(def promotion.Definition, a *ActiveInterval) {
	a.Regime = RegimeSingleCap
	limit := def.Limit.Amount
	a.TotalRefunded = promotion.CapAt(def.RawRefund(a.TotalPurchased), limit)
	if limit.IsZero() {
		a.Uncapped = true
		a.AvailableToPurchase = decimal.Zero
		return
	}
	maxPurchase := def.PurchaseFor(limit)
	a.AvailableToPurchase = promotion.FloorAtZero(maxPurchase.Sub(a.TotalPurchased))
}

func applyTotalCap(def promotion.Definition, a *ActiveInterval) {
	a.Regime = RegimeTotalCap
	perPurchaseCap := def.Limit.Amount
	totalCap := *def.Limit.TotalCap
	perPurchaseVolumeCap := def.PurchaseFor(perPurchaseCap)

	refundSum := decimal.Zero
	effectivePurchased := decimal.Zero
	for _, p := range a.Purchases {
		refund := promotion.CapAt(def.RawRefund(p.Amount), perPurchaseCap)
		refundSum = refundSum.Add(refund)

		// Only the volume that produced the granted refund uses up capacity.
		portion := decimal.Min(p.Amount, def.PurchaseFor(refund))
		if !perPurchaseCap.IsZero() {
			portion = decimal.Min(portion, perPurchaseVolumeCap)
		}
		effectivePurchased = effectivePurchased.Add(portion)
	}

	a.TotalRefunded = promotion.CapAt(refundSum, totalCap)
	if totalCap.IsZero() {
		a.Uncapped = true
		a.AvailableToPurchase = decimal.Zero
		return
	}

	remainingRefund := promotion.FloorAtZero(totalCap.Sub(a.TotalRefunded))
	if remainingRefund.IsZero() {
		a.AvailableToPurchase = decimal.Zero
		return
	}
	maxEligible := def.PurchaseFor(totalCap)
	a.AvailableToPurchase = promotion.FloorAtZero(maxEligible.Sub(effectivePurchased))
}

func applyPerMethod(def promotion.Definition, a *ActiveInterval) {
	a.Regime = RegimePaymentMethods
	limit := def.Limit.Amount
	if limit.IsZero() {
		a.Uncapped = true
	}

	declared := make(map[string]bool, len(def.PaymentMethods))
	purchased := make(map[string]decimal.Decimal, len(def.PaymentMethods))
	order := make([]string, 0, len(def.PaymentMethods))
	for _, m := range def.PaymentMethods {
		if _, ok := purchased[m]; ok {
			continue
		}
		declared[m] = true
		purchased[m] = decimal.Zero
		order = append(order, m)
	}
	for _, p := range a.Purchases {
		if _, ok := purchased[p.PaymentMethod]; !ok {
			// Undeclared methods are reported with zero capacity.
			purchased[p.PaymentMethod] = decimal.Zero
			order = append(order, p.PaymentMethod)
		}
		purchased[p.PaymentMethod] = purchased[p.PaymentMethod].Add(p.Amount)
	}

	totalRefund := decimal.Zero
	available := decimal.Zero
	methods := make([]MethodUsage, 0, len(order))
	for _, m := range order {
		u := MethodUsage{
			Method:            m,
			Purchased:         purchased[m],
			Refund:            promotion.CapAt(def.RawRefund(purchased[m]), limit),
			RemainingRefund:   decimal.Zero,
			RemainingPurchase: decimal.Zero,
			UsageFraction:     decimal.Zero,
		}
		if !limit.IsZero() {
			// Undeclared methods start with zero capacity and stay exhausted.
			if declared[m] {
				u.RemainingRefund = promotion.FloorAtZero(limit.Sub(u.Refund))
				u.RemainingPurchase = def.PurchaseFor(u.RemainingRefund)
			}
			u.UsageFraction = limit.Sub(u.RemainingRefund).Div(limit)
		}
		totalRefund = totalRefund.Add(u.Refund)
		available = available.Add(u.RemainingPurchase)
		methods = append(methods, u)
	}

	slices.SortStableFunc(methods, func(x, y MethodUsage) int {
		return y.RemainingRefund.Cmp(x.RemainingRefund)
	})

	a.TotalRefunded = totalRefund
	a.AvailableToPurchase = available
	a.Methods = methods
}

// mirrorMethod builds the single-entry usage for promotions that declare one
// payment method and were not computed per method. It never changes the
// aggregate figures already on a.
func mirrorMethod(def promotion.Definition, a *ActiveInterval) MethodUsage {
	method := def.PaymentMethods[0]
	purchased := decimal.Zero
	for _, p := range a.Purchases {
		if p.PaymentMethod == method {
			purchased = purchased.Add(p.Amount)
		}
	}

	limit := def.Limit.Amount
	if def.HasTotalCap() {
		limit = *def.Limit.TotalCap
	}

	refund := decimal.Min(def.RawRefund(purchased), a.TotalRefunded)
	remaining := promotion.FloorAtZero(limit.Sub(refund))
	usage := decimal.Zero
	if limit.IsPositive() {
		usage = refund.Div(limit)
	}

	return MethodUsage{
		Method:            method,
		Purchased:         purchased,
		Refund:            refund,
		RemainingRefund:   remaining,
		RemainingPurchase: def.PurchaseFor(remaining),
		UsageFraction:     usage,
	}
}
