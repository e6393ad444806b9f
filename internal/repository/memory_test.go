package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/promo-tracker/internal/calendar"
	"github.com/xenking/promo-tracker/internal/domain/promotion"
	"github.com/xenking/promo-tracker/internal/domain/purchase"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func single(promoID, date, amount string) *purchase.Purchase {
	return &purchase.Purchase{
		Amount:        d(amount),
		Date:          calendar.MustParse(date),
		StoreName:     "Store",
		PaymentMethod: "Visa",
		PromoID:       promoID,
	}
}

func TestMemoryPurchaseRepository_CreateAndList(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPurchaseRepository()
	repo.now = fixedClock(time.Date(2025, 9, 15, 10, 0, 0, 0, time.UTC))

	older := single("a", "2025-09-01", "100")
	newer := single("a", "2025-09-10", "200")
	other := single("b", "2025-09-12", "300")
	combined := single("", "2025-09-05", "400")
	combined.PromoIDs = []string{"b", "a"}

	for _, p := range []*purchase.Purchase{older, newer, other, combined} {
		require.NoError(t, repo.Create(ctx, p))
		assert.NotEmpty(t, p.ID)
	}
	assert.True(t, d("100").Equal(older.FinalAmount))

	got, err := repo.ListByPromotion(ctx, "a")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, newer.ID, got[0].ID)
	assert.Equal(t, combined.ID, got[1].ID)
	assert.Equal(t, older.ID, got[2].ID)

	empty, err := repo.ListByPromotion(ctx, "missing")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestMemoryPurchaseRepository_SameDayOrderedByCreation(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPurchaseRepository()

	first := single("a", "2025-09-10", "100")
	first.CreatedAt = time.Date(2025, 9, 10, 9, 0, 0, 0, time.UTC)
	second := single("a", "2025-09-10", "200")
	second.CreatedAt = time.Date(2025, 9, 10, 18, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	got, err := repo.ListByPromotion(ctx, "a")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, second.ID, got[0].ID)
}

func TestMemoryPurchaseRepository_Update(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPurchaseRepository()

	p := single("a", "2025-09-01", "100")
	require.NoError(t, repo.Create(ctx, p))

	final := d("1")
	updated, err := repo.Update(ctx, p.ID, purchase.Edit{
		Amount:      d("250"),
		Date:        calendar.MustParse("2025-09-02"),
		StoreName:   "Other",
		FinalAmount: &final,
	})
	require.NoError(t, err)
	assert.True(t, d("250").Equal(updated.Amount))
	assert.True(t, d("250").Equal(updated.FinalAmount), "single purchases keep final amount equal to amount")
	assert.Equal(t, "Other", updated.StoreName)

	stored, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, calendar.MustParse("2025-09-02"), stored.Date)

	_, err = repo.Update(ctx, "missing", purchase.Edit{})
	assert.ErrorIs(t, err, purchase.ErrNotFound)
}

func TestMemoryPurchaseRepository_UpdateCombined(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPurchaseRepository()

	p := single("", "2025-09-01", "10000")
	p.PromoIDs = []string{"b", "e"}
	p.FinalAmount = d("6500")
	require.NoError(t, repo.Create(ctx, p))

	final := d("13000")
	breakdown := []promotion.DiscountEntry{{PromoID: "b", DiscountValue: d("5000")}, {PromoID: "e", DiscountValue: d("2000")}}
	updated, err := repo.Update(ctx, p.ID, purchase.Edit{
		Amount:      d("20000"),
		Date:        p.Date,
		Breakdown:   breakdown,
		FinalAmount: &final,
	})
	require.NoError(t, err)
	assert.True(t, final.Equal(updated.FinalAmount))
	assert.Len(t, updated.Breakdown, 2)

	updated.Breakdown[0].PromoID = "mutated"
	stored, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "b", stored.Breakdown[0].PromoID)
}

func TestMemoryPurchaseRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPurchaseRepository()

	p := single("a", "2025-09-01", "100")
	require.NoError(t, repo.Create(ctx, p))
	require.NoError(t, repo.Delete(ctx, p.ID))

	_, err := repo.Get(ctx, p.ID)
	assert.ErrorIs(t, err, purchase.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, p.ID), purchase.ErrNotFound)
}

func TestMemoryPurchaseRepository_DuplicateID(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPurchaseRepository()

	p := single("a", "2025-09-01", "100")
	p.ID = "fixed"
	require.NoError(t, repo.Create(ctx, p))

	dup := single("a", "2025-09-02", "200")
	dup.ID = "fixed"
	assert.Error(t, repo.Create(ctx, dup))
}
