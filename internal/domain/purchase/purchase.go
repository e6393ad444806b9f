package purchase

import (
	"context"
	"slices"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/promo-tracker/internal/calendar"
	"github.com/xenking/promo-tracker/internal/domain/promotion"
)

var (
	// ErrNotFound is returned when no purchase exists with the requested id.
	ErrNotFound = errors.New("purchase not found")
	// ErrInvalidAmount is returned when a purchase amount is not positive.
	ErrInvalidAmount = errors.New("purchase amount must be positive")
)

// Purchase is a recorded purchase against one promotion or, when PromoIDs
// holds two or more ids, against a combination of promotions.
type Purchase struct {
	ID            string
	Amount        decimal.Decimal
	Date          calendar.Date
	StoreName     string
	PaymentMethod string
	PromoID       string
	PromoIDs      []string
	Breakdown     []promotion.DiscountEntry
	FinalAmount   decimal.Decimal
	CreatedAt     time.Time
}

// IsCombined reports whether the purchase applied several promotions at once.
func (p Purchase) IsCombined() bool {
	return len(p.PromoIDs) > 1
}

// AppliesTo reports whether the purchase counts toward the given promotion.
func (p Purchase) AppliesTo(promoID string) bool {
	if p.PromoID == promoID {
		return true
	}
	return slices.Contains(p.PromoIDs, promoID)
}

// Promotions returns every promotion id the purchase counts toward.
func (p Purchase) Promotions() []string {
	if p.IsCombined() {
		return p.PromoIDs
	}
	if p.PromoID != "" {
		return []string{p.PromoID}
	}
	return p.PromoIDs
}

// Edit replaces the mutable fields of a purchase. Breakdown and FinalAmount
// are only applied to combined purchases.
type Edit struct {
	Amount      decimal.Decimal
	Date        calendar.Date
	StoreName   string
	Breakdown   []promotion.DiscountEntry
	FinalAmount *decimal.Decimal
}

// Apply returns a copy of p with the edit applied.
func (e Edit) Apply(p Purchase) Purchase {
	p.Amount = e.Amount
	p.Date = e.Date
	p.StoreName = e.StoreName
	if p.IsCombined() {
		if e.Breakdown != nil {
			p.Breakdown = e.Breakdown
		}
		if e.FinalAmount != nil {
			p.FinalAmount = *e.FinalAmount
		}
	} else {
		p.FinalAmount = e.Amount
	}
	return p
}

// ValidateAmount returns ErrInvalidAmount unless amount is positive.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// SortRecentFirst orders purchases by date descending, most recently created
// first within a day.
func SortRecentFirst(ps []Purchase) {
	slices.SortStableFunc(ps, func(a, b Purchase) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}

// Repository is the purchase store.
type Repository interface {
	// ListByPromotion returns the purchases counting toward promoID,
	// most recent first.
	ListByPromotion(ctx context.Context, promoID string) ([]Purchase, error)
	Get(ctx context.Context, id string) (*Purchase, error)
	Create(ctx context.Context, p *Purchase) error
	Update(ctx context.Context, id string, edit Edit) (*Purchase, error)
	Delete(ctx context.Context, id string) error
}
