package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/promo-tracker/internal/calendar"
	"github.com/xenking/promo-tracker/internal/domain/promotion"
	"github.com/xenking/promo-tracker/internal/domain/purchase"
	"github.com/xenking/promo-tracker/internal/pipeline"
	"github.com/xenking/promo-tracker/internal/promoview"
)

func writeJSON(w http.ResponseWriter, status int, fn func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	fn(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func encodeDecimal(e *jx.Encoder, v decimal.Decimal) {
	e.Raw([]byte(v.String()))
}

func encodeDate(e *jx.Encoder, v calendar.Date) {
	if v.IsZero() {
		e.Null()
		return
	}
	e.Str(v.String())
}

func encodeStrings(e *jx.Encoder, vs []string) {
	e.ArrStart()
	for _, v := range vs {
		e.Str(v)
	}
	e.ArrEnd()
}

func encodeInterval(e *jx.Encoder, iv calendar.Interval) {
	e.FieldStart("from")
	encodeDate(e, iv.From)
	e.FieldStart("to")
	encodeDate(e, iv.To)
}

func encodeModel(e *jx.Encoder, m promoview.Model) {
	def := m.Definition

	e.ObjStart()
	e.FieldStart("id")
	e.Str(def.ID)
	e.FieldStart("title")
	e.Str(def.Title)
	e.FieldStart("discount")
	encodeDecimal(e, def.Discount)
	e.FieldStart("paymentMethods")
	encodeStrings(e, def.PaymentMethods)

	e.FieldStart("limit")
	e.ObjStart()
	e.FieldStart("amount")
	encodeDecimal(e, def.Limit.Amount)
	e.FieldStart("mode")
	e.Str(string(def.Limit.Mode))
	e.FieldStart("period")
	e.Str(string(def.Limit.Period))
	if def.Limit.TotalCap != nil {
		e.FieldStart("totalCap")
		encodeDecimal(e, *def.Limit.TotalCap)
	}
	e.ObjEnd()

	e.FieldStart("validity")
	e.ObjStart()
	encodeInterval(e, calendar.Interval{From: def.Validity.From, To: def.Validity.To})
	if len(def.Validity.DaysOfWeek) > 0 {
		e.FieldStart("daysOfWeek")
		e.ArrStart()
		for _, wd := range def.Validity.DaysOfWeek {
			e.Int(wd)
		}
		e.ArrEnd()
	}
	if len(def.Validity.SpecificDates) > 0 {
		e.FieldStart("specificDates")
		e.ArrStart()
		for _, sd := range def.Validity.SpecificDates {
			encodeDate(e, sd)
		}
		e.ArrEnd()
	}
	e.ObjEnd()

	if st := def.Stacking; st != nil {
		e.FieldStart("stacking")
		e.ObjStart()
		e.FieldStart("stackable")
		e.Bool(st.Stackable)
		if st.Type != "" {
			e.FieldStart("type")
			e.Str(string(st.Type))
		}
		e.FieldStart("priority")
		e.Int(def.Priority())
		if len(st.AppliesWith) > 0 {
			e.FieldStart("appliesWith")
			encodeStrings(e, st.AppliesWith)
		}
		e.ObjEnd()
	}
	if def.MinAmount != nil {
		e.FieldStart("minAmount")
		encodeDecimal(e, *def.MinAmount)
	}

	e.FieldStart("calculatedPurchaseAmount")
	encodeDecimal(e, m.CalculatedPurchaseAmount)
	e.FieldStart("isStackable")
	e.Bool(m.IsStackable())
	e.FieldStart("stackingType")
	if t := m.StackingType(); t != "" {
		e.Str(string(t))
	} else {
		e.Null()
	}

	e.FieldStart("activeDate")
	if m.Active != nil {
		encodeActive(e, m.Active)
	} else {
		e.Null()
	}

	e.FieldStart("futureDates")
	e.ArrStart()
	for _, iv := range m.Future {
		e.ObjStart()
		encodeInterval(e, iv)
		e.ObjEnd()
	}
	e.ArrEnd()

	e.FieldStart("pastDates")
	e.ArrStart()
	for _, past := range m.Past {
		e.ObjStart()
		encodeInterval(e, past.Interval)
		e.FieldStart("purchases")
		encodePurchases(e, past.Purchases)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()
}

func encodeActive(e *jx.Encoder, a *pipeline.ActiveInterval) {
	e.ObjStart()
	encodeInterval(e, a.Interval)
	e.FieldStart("regime")
	e.Str(string(a.Regime))
	e.FieldStart("purchases")
	encodePurchases(e, a.Purchases)
	e.FieldStart("totalAmountPurchased")
	encodeDecimal(e, a.TotalPurchased)
	e.FieldStart("totalAmountRefunded")
	encodeDecimal(e, a.TotalRefunded)
	e.FieldStart("availableAmountToPurchase")
	encodeDecimal(e, a.AvailableToPurchase)
	e.FieldStart("uncapped")
	e.Bool(a.Uncapped)
	if a.Methods != nil {
		e.FieldStart("perMethod")
		e.ArrStart()
		for _, mu := range a.Methods {
			e.ObjStart()
			e.FieldStart("method")
			e.Str(mu.Method)
			e.FieldStart("purchased")
			encodeDecimal(e, mu.Purchased)
			e.FieldStart("refund")
			encodeDecimal(e, mu.Refund)
			e.FieldStart("remainingRefund")
			encodeDecimal(e, mu.RemainingRefund)
			e.FieldStart("remainingPurchase")
			encodeDecimal(e, mu.RemainingPurchase)
			e.FieldStart("usageFraction")
			encodeDecimal(e, mu.UsageFraction)
			e.ObjEnd()
		}
		e.ArrEnd()
	}
	e.ObjEnd()
}

func encodePurchases(e *jx.Encoder, ps []purchase.Purchase) {
	e.ArrStart()
	for _, p := range ps {
		encodePurchase(e, p)
	}
	e.ArrEnd()
}

func encodePurchase(e *jx.Encoder, p purchase.Purchase) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(p.ID)
	e.FieldStart("amount")
	encodeDecimal(e, p.Amount)
	e.FieldStart("date")
	encodeDate(e, p.Date)
	e.FieldStart("storeName")
	e.Str(p.StoreName)
	e.FieldStart("paymentMethod")
	e.Str(p.PaymentMethod)
	if p.IsCombined() {
		e.FieldStart("promoIds")
		encodeStrings(e, p.PromoIDs)
		e.FieldStart("breakdown")
		encodeBreakdown(e, p.Breakdown)
	} else {
		e.FieldStart("promoId")
		e.Str(p.PromoID)
	}
	e.FieldStart("finalAmount")
	encodeDecimal(e, p.FinalAmount)
	if !p.CreatedAt.IsZero() {
		e.FieldStart("createdAt")
		e.Str(p.CreatedAt.UTC().Format(time.RFC3339))
	}
	e.ObjEnd()
}

func encodeBreakdown(e *jx.Encoder, entries []promotion.DiscountEntry) {
	e.ArrStart()
	for _, entry := range entries {
		e.ObjStart()
		e.FieldStart("promoId")
		e.Str(entry.PromoID)
		e.FieldStart("percent")
		encodeDecimal(e, entry.Percent)
		e.FieldStart("baseApplied")
		encodeDecimal(e, entry.BaseApplied)
		e.FieldStart("discountValue")
		encodeDecimal(e, entry.DiscountValue)
		e.FieldStart("limitAmount")
		encodeDecimal(e, entry.LimitAmount)
		e.ObjEnd()
	}
	e.ArrEnd()
}

func encodeDiscount(e *jx.Encoder, res promotion.DiscountResult) {
	e.ObjStart()
	e.FieldStart("totalDiscount")
	encodeDecimal(e, res.TotalDiscount)
	e.FieldStart("finalAmount")
	encodeDecimal(e, res.FinalAmount)
	e.FieldStart("breakdown")
	encodeBreakdown(e, res.Breakdown)
	e.ObjEnd()
}
