package tracker

import (
	"github.com/go-faster/errors"

	"github.com/xenking/promo-tracker/internal/promoview"
)

// Filter restricts which promotions are listed.
type Filter string

const (
	// FilterActive keeps promotions with a window containing today.
	FilterActive Filter = "active"
	// FilterActiveFuture also keeps promotions with an upcoming window.
	FilterActiveFuture Filter = "active-future"
	// FilterAll keeps every promotion.
	FilterAll Filter = "all"
)

// ErrInvalidFilter is returned by ParseFilter for unknown modes.
var ErrInvalidFilter = errors.New("invalid filter")

// ParseFilter parses a filter mode. The empty string selects FilterAll.
func ParseFilter(s string) (Filter, error) {
	switch f := Filter(s); f {
	case "":
		return FilterAll, nil
	case FilterActive, FilterActiveFuture, FilterAll:
		return f, nil
	default:
		return "", errors.Wrapf(ErrInvalidFilter, "%q", s)
	}
}

// Match reports whether m passes the filter.
func (f Filter) Match(m promoview.Model) bool {
	switch f {
	case FilterActive:
		return m.HasActive()
	case FilterActiveFuture:
		return m.HasActive() || m.HasFuture()
	default:
		return true
	}
}
