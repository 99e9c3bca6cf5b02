package date

import (
	"fmt"
	"iter"
	"time"
)

// Range represents an inclusive range of dates.
type Range struct{ From, To Date }

// NewRange returns the standard period containing d.
func NewRange(d Date, period Period) Range {
	return Range{From: d.StartOf(period), To: d.EndOf(period)}
}

// ToDate returns the range from the start of the period containing d up to d
// included (month-to-date, year-to-date, ...).
func ToDate(d Date, period Period) Range {
	return Range{From: d.StartOf(period), To: d}
}

// Contains return true date is included in the range (boundaries included)
func (r Range) Contains(date Date) bool { return !date.Before(r.From) && !date.After(r.To) }

// Days returns the number of days elapsed between From and To.
func (r Range) Days() int { return r.To.DaysSince(r.From) }

// Validate checks that the range is not reversed.
func (r Range) Validate() error {
	if r.To.Before(r.From) {
		return fmt.Errorf("invalid range: %s is after %s", r.From, r.To)
	}
	return nil
}

// Each iterates over every day of the range in order.
func (r Range) Each() iter.Seq[Date] {
	return func(yield func(Date) bool) {
		for d := r.From; !d.After(r.To); d = d.Add(1) {
			if !yield(d) {
				return
			}
		}
	}
}

// Period returns the period of this range if it's a standard one.
func (r Range) Period() (p Period, ok bool) {
	switch {
	case r.From == r.To:
		return Daily, true
	case r.From.Weekday() == time.Monday && r.From.EndOf(Weekly) == r.To:
		return Weekly, true
	case r.From.Day() == 1 && r.From.EndOf(Monthly) == r.To:
		return Monthly, true
	case r.From.StartOf(Quarterly) == r.From && r.From.EndOf(Quarterly) == r.To:
		return Quarterly, true
	case r.From.StartOf(Yearly) == r.From && r.From.EndOf(Yearly) == r.To:
		return Yearly, true
	default:
		return Daily, false
	}
}

// Name the period range
func (r Range) Name() string {
	if p, ok := r.Period(); ok {
		return p.String()
	}
	return "special"
}

// Identifier is a short unique name for the range, like "2025-Q3".
func (r Range) Identifier() string {
	p, ok := r.Period()
	if !ok {
		return fmt.Sprintf("%s_%s", r.From, r.To)
	}
	switch p {
	case Weekly:
		year, week := r.From.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case Monthly:
		return r.From.Format("2006-01")
	case Quarterly:
		return fmt.Sprintf("%d-Q%d", r.From.Year(), (r.From.Month()-1)/3+1)
	case Yearly:
		return r.From.Format("2006")
	default:
		return r.From.String()
	}
}

func (r Range) String() string { return fmt.Sprintf("%s..%s", r.From, r.To) }
