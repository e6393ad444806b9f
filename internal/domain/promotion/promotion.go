package promotion

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/promo-tracker/internal/calendar"
)

// LimitMode selects how the refund cap is shared.
type LimitMode string

const (
	// LimitUser applies one cap to the user across all payment methods.
	LimitUser LimitMode = "user"
	// LimitPaymentMethods gives every payment method its own independent cap.
	LimitPaymentMethods LimitMode = "paymentMethods"
)

// StackingType is the role a stackable promotion plays in a combination.
type StackingType string

const (
	// StackingBase anchors a combination. At most one base per purchase.
	StackingBase StackingType = "base"
	// StackingExtra adds its discount on top of a base.
	StackingExtra StackingType = "extra"
)

// DefaultPriority orders stackable promotions that declare no priority.
const DefaultPriority = 1000

// Definition is an immutable promotion record as published in the catalog.
type Definition struct {
	ID             string           `json:"id"`
	Title          string           `json:"title"`
	Discount       decimal.Decimal  `json:"discount"`
	PaymentMethods []string         `json:"paymentMethods"`
	Limit          Limit            `json:"limit"`
	Validity       Validity         `json:"validity"`
	Stacking       *Stacking        `json:"stacking,omitempty"`
	MinAmount      *decimal.Decimal `json:"minAmount,omitempty"`
}

// Limit caps the refund a promotion grants within its period.
//
// Amount == 0 means no cap for the unit it applies to. When TotalCap is set,
// Amount is a per-purchase cap and TotalCap the aggregate cap for the period.
type Limit struct {
	Amount   decimal.Decimal  `json:"amount"`
	Mode     LimitMode        `json:"mode"`
	Period   calendar.Period  `json:"period"`
	TotalCap *decimal.Decimal `json:"totalCap,omitempty"`
}

// Validity bounds a promotion in time and describes its recurrence.
type Validity struct {
	From          calendar.Date   `json:"from"`
	To            calendar.Date   `json:"to"`
	DaysOfWeek    []int           `json:"daysOfWeek,omitempty"`
	SpecificDates []calendar.Date `json:"specificDates,omitempty"`
}

// Stacking holds the combination metadata of a promotion.
type Stacking struct {
	Stackable   bool         `json:"stackable"`
	Type        StackingType `json:"type,omitempty"`
	Priority    *int         `json:"priority,omitempty"`
	AppliesWith []string     `json:"appliesWith,omitempty"`
}

// Recurrence returns the validity as a calendar recurrence.
func (v Validity) Recurrence() calendar.Recurrence {
	return calendar.Recurrence{
		DaysOfWeek:    v.DaysOfWeek,
		SpecificDates: v.SpecificDates,
	}
}

// IsStackable reports whether the promotion may be combined with others.
func (d Definition) IsStackable() bool {
	return d.Stacking != nil && d.Stacking.Stackable
}

// StackingType returns the declared stacking role, or "" when none.
func (d Definition) StackingType() StackingType {
	if d.Stacking == nil {
		return ""
	}
	return d.Stacking.Type
}

// IsBase reports whether the promotion is declared as a base.
func (d Definition) IsBase() bool { return d.StackingType() == StackingBase }

// IsExtra reports whether the promotion is declared as an extra.
func (d Definition) IsExtra() bool { return d.StackingType() == StackingExtra }

// Priority returns the stacking priority, DefaultPriority when unset.
func (d Definition) Priority() int {
	if d.Stacking == nil || d.Stacking.Priority == nil {
		return DefaultPriority
	}
	return *d.Stacking.Priority
}

// AppliesWith returns the base ids an extra is restricted to. A nil result
// means the extra combines with any base.
func (d Definition) AppliesWith() []string {
	if d.Stacking == nil {
		return nil
	}
	return d.Stacking.AppliesWith
}

// HasTotalCap reports whether the limit uses the per-purchase plus aggregate
// cap regime.
func (d Definition) HasTotalCap() bool {
	return d.Limit.TotalCap != nil
}

// QualifiesFor reports whether amount satisfies the minimum purchase amount.
func (d Definition) QualifiesFor(amount decimal.Decimal) bool {
	return d.MinAmount == nil || !amount.LessThan(*d.MinAmount)
}
