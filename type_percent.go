package stockledger

import (
	"github.com/shopspring/decimal"
)

// Percent is a ratio expressed in percent: Percent(5) is 5%.
type Percent struct {
	value decimal.Decimal
}

// P returns a Percent from a numeric constant or a decimal, the value is in percent.
func P[T float64 | int | int64 | decimal.Decimal](value T) Percent {
	return Percent{value: newDecimal(value)}
}

// FromFraction converts a fraction (0.05) into a Percent (5%).
func FromFraction(f decimal.Decimal) Percent { return Percent{value: f.Shift(2)} }

func (p Percent) Decimal() decimal.Decimal  { return p.value }
func (p Percent) Fraction() decimal.Decimal { return p.value.Shift(-2) }
func (p Percent) IsZero() bool              { return p.value.IsZero() }

// Equal compares the two percents at the presentation precision of 4 decimals.
func (p Percent) Equal(q Percent) bool {
	return RoundHalfUp(p.value, 4).Equal(RoundHalfUp(q.value, 4))
}

func (p Percent) String() string {
	return RoundHalfUp(p.value, 2).StringFixed(2) + "%"
}

// SignedString returns the percent with an explicit sign, 0 is represented as a "-".
func (p Percent) SignedString() string {
	r := RoundHalfUp(p.value, 2)
	if r.IsZero() {
		return "-"
	}
	if r.IsPositive() {
		return "+" + r.StringFixed(2) + "%"
	}
	return r.StringFixed(2) + "%"
}

func (p Percent) MarshalJSON() ([]byte, error)     { return p.value.MarshalJSON() }
func (p *Percent) UnmarshalJSON(data []byte) error { return p.value.UnmarshalJSON(data) }
