package promoview

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/promo-tracker/internal/calendar"
	"github.com/xenking/promo-tracker/internal/domain/promotion"
	"github.com/xenking/promo-tracker/internal/domain/purchase"
	"github.com/xenking/promo-tracker/internal/pipeline"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func day(s string) calendar.Date {
	return calendar.MustParse(s)
}

func weekend() promotion.Definition {
	return promotion.Definition{
		ID:             "weekend",
		Title:          "Weekend cashback",
		Discount:       d("25"),
		PaymentMethods: []string{"Visa"},
		Limit:          promotion.Limit{Amount: d("5000"), Mode: promotion.LimitUser, Period: calendar.PeriodWeek},
		Validity: promotion.Validity{
			From:       day("2025-08-01"),
			To:         day("2025-08-31"),
			DaysOfWeek: []int{5, 6, 0},
		},
	}
}

func buy(id, promoID, date, amount string) purchase.Purchase {
	return purchase.Purchase{ID: id, PromoID: promoID, Amount: d(amount), Date: day(date), PaymentMethod: "Visa"}
}

func TestCompute_SplitsWindows(t *testing.T) {
	in := pipeline.Input{
		Definition: weekend(),
		Today:      day("2025-08-16"),
		Purchases: []purchase.Purchase{
			buy("1", "weekend", "2025-08-09", "4000"),
			buy("2", "weekend", "2025-08-16", "8000"),
			buy("3", "other", "2025-08-02", "1000"),
		},
	}

	m := Compute(pipeline.Default(), in)

	require.True(t, m.HasActive())
	assert.Equal(t, day("2025-08-15"), m.Active.From)
	assert.Equal(t, day("2025-08-17"), m.Active.To)
	assert.True(t, d("8000").Equal(m.Active.TotalPurchased))

	assert.Equal(t, []calendar.Interval{
		{From: day("2025-08-22"), To: day("2025-08-24")},
		{From: day("2025-08-29"), To: day("2025-08-31")},
	}, m.Future)
	assert.True(t, m.HasFuture())

	require.Len(t, m.Past, 2)
	assert.Equal(t, day("2025-08-01"), m.Past[0].From)
	assert.Empty(t, m.Past[0].Purchases)
	assert.Equal(t, day("2025-08-08"), m.Past[1].From)
	require.Len(t, m.Past[1].Purchases, 1)
	assert.Equal(t, "1", m.Past[1].Purchases[0].ID)

	assert.True(t, d("20000").Equal(m.CalculatedPurchaseAmount))
	assert.Equal(t, "weekend", m.ID())
}

func TestCompute_Expired(t *testing.T) {
	m := Compute(pipeline.Default(), pipeline.Input{Definition: weekend(), Today: day("2025-09-10")})

	assert.False(t, m.HasActive())
	assert.Nil(t, m.Active)
	assert.False(t, m.HasFuture())
	assert.NotNil(t, m.Future)
	assert.Len(t, m.Past, 5)
}

func TestCompute_PastIncludesCombinedPurchases(t *testing.T) {
	combined := buy("c", "", "2025-08-02", "3000")
	combined.PromoIDs = []string{"other", "weekend"}

	m := Compute(pipeline.Default(), pipeline.Input{
		Definition: weekend(),
		Today:      day("2025-08-05"),
		Purchases:  []purchase.Purchase{combined},
	})

	require.Len(t, m.Past, 1)
	require.Len(t, m.Past[0].Purchases, 1)
	assert.Equal(t, "c", m.Past[0].Purchases[0].ID)
}

func TestModel_ZeroDiscount(t *testing.T) {
	def := weekend()
	def.Discount = decimal.Zero

	m := Compute(pipeline.Default(), pipeline.Input{Definition: def, Today: day("2025-08-16")})

	assert.True(t, m.CalculatedPurchaseAmount.IsZero())
}

func TestModel_Stacking(t *testing.T) {
	stack := func(id string, typ promotion.StackingType, appliesWith ...string) Model {
		def := weekend()
		def.ID = id
		def.Stacking = &promotion.Stacking{Stackable: true, Type: typ, AppliesWith: appliesWith}
		return Compute(pipeline.Default(), pipeline.Input{Definition: def, Today: day("2025-08-16")})
	}

	b1 := stack("b1", promotion.StackingBase)
	b2 := stack("b2", promotion.StackingBase)
	e := stack("e", promotion.StackingExtra, "b1")
	plain := Compute(pipeline.Default(), pipeline.Input{Definition: weekend(), Today: day("2025-08-16")})

	assert.True(t, b1.IsStackable())
	assert.Equal(t, promotion.StackingExtra, e.StackingType())
	assert.False(t, plain.IsStackable())
	assert.Equal(t, promotion.StackingType(""), plain.StackingType())

	assert.False(t, b1.CanStackWith(b2))
	assert.False(t, b2.CanStackWith(b1))
	assert.True(t, e.CanStackWith(b1))
	assert.True(t, b1.CanStackWith(e))
	assert.False(t, e.CanStackWith(b2))
	assert.False(t, plain.CanStackWith(b1))
}
