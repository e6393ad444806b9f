package calendar

// Period is the accounting period of a promotion limit.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

const daysInWeek = 7

// Interval is an inclusive range of days. From is never after To.
type Interval struct {
	From Date `json:"from"`
	To   Date `json:"to"`
}

// Contains reports whether d falls within the interval, both ends inclusive.
func (iv Interval) Contains(d Date) bool {
	return !d.Before(iv.From) && !d.After(iv.To)
}

// Recurrence describes on which days a promotion applies. DaysOfWeek uses
// Sunday = 0 and its order is significant: the first element opens a group and
// the last element closes it.
type Recurrence struct {
	DaysOfWeek    []int
	SpecificDates []Date
}

// AllDays reports whether the weekday set covers the whole week.
func (r Recurrence) AllDays() bool {
	seen := make(map[int]struct{}, daysInWeek)
	for _, wd := range r.DaysOfWeek {
		if wd >= 0 && wd < daysInWeek {
			seen[wd] = struct{}{}
		}
	}
	return len(seen) == daysInWeek
}

// BuildIntervals expands r over [from, to] into concrete intervals.
//
// Each specific date yields its own single-day interval, in listed order;
// contiguous specific dates are not merged. A weekday set covering the whole
// week replaces everything else with either the full range or, for monthly
// periods, one interval per calendar month clipped to [from, to]. A partial
// weekday set groups matching days using the first and last weekday of the
// set as group anchors, so [5, 6, 0] yields Friday..Sunday spans.
//
// A recurrence with neither weekdays nor specific dates yields no intervals.
func BuildIntervals(from, to Date, r Recurrence, period Period) []Interval {
	var out []Interval

	for _, d := range r.SpecificDates {
		out = append(out, Interval{From: d, To: d})
	}

	if len(r.DaysOfWeek) == 0 {
		return out
	}

	if r.AllDays() {
		if to.Before(from) {
			return nil
		}
		if period == PeriodMonth {
			return monthlyIntervals(from, to)
		}
		return []Interval{{From: from, To: to}}
	}

	return append(out, weekdayIntervals(from, to, r.DaysOfWeek)...)
}

// monthlyIntervals splits [from, to] at calendar month boundaries.
func monthlyIntervals(from, to Date) []Interval {
	var out []Interval
	for start := from.StartOfMonth(); !start.After(to); start = start.AddMonths(1) {
		out = append(out, Interval{
			From: MaxDate(start, from),
			To:   MinDate(start.EndOfMonth(), to),
		})
	}
	return out
}

func weekdayIntervals(from, to Date, days []int) []Interval {
	wanted := make(map[int]struct{}, len(days))
	for _, wd := range days {
		wanted[wd] = struct{}{}
	}

	var matches []Date
	for d := from; !d.After(to); d = d.AddDays(1) {
		if _, ok := wanted[int(d.Weekday())]; ok {
			matches = append(matches, d)
		}
	}

	first, last := days[0], days[len(days)-1]

	var (
		out      []Interval
		start    Date
		end      Date
		hasStart bool
		hasEnd   bool
	)
	for i, d := range matches {
		wd := int(d.Weekday())
		if wd == first || i == 0 {
			start, hasStart = d, true
		}
		if wd == last || i == len(matches)-1 {
			end, hasEnd = d, true
		}
		if hasStart && hasEnd {
			out = append(out, Interval{From: start, To: end})
			hasStart, hasEnd = false, false
		}
	}
	return out
}
