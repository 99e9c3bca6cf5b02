package stockledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// newDecimal is a convenient factory for decimal.Decimal
func newDecimal[T float64 | int | int64 | decimal.Decimal](value T) decimal.Decimal {
	switch v := any(value).(type) {
	case decimal.Decimal:
		return v
	case float64:
		return decimal.NewFromFloat(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int64:
		return decimal.NewFromInt(v)
	default:
		panic("unsupported type")
	}
}

// Quantity is a number of units of an asset. Fractional units are supported
// at arbitrary precision.
type Quantity struct {
	value decimal.Decimal
}

// Q returns a Quantity from a numeric constant or a decimal.
func Q[T float64 | int | int64 | decimal.Decimal](value T) Quantity {
	return Quantity{value: newDecimal(value)}
}

// ParseQuantity parses an exact decimal string like "12.5" or "0.00000001".
func ParseQuantity(s string) (Quantity, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Quantity{}, fmt.Errorf("invalid quantity %q: %w", s, err)
	}
	return Quantity{value: d}, nil
}

func (t Quantity) Decimal() decimal.Decimal         { return t.value }
func (t Quantity) Equal(p Quantity) bool            { return t.value.Equal(p.value) }
func (t Quantity) LessThan(p Quantity) bool         { return t.value.LessThan(p.value) }
func (t Quantity) GreaterThan(p Quantity) bool      { return t.value.GreaterThan(p.value) }
func (t Quantity) Div(p Quantity) Quantity          { return Quantity{value: t.value.Div(p.value)} }
func (t Quantity) Mul(p Quantity) Quantity          { return Quantity{value: t.value.Mul(p.value)} }
func (t Quantity) Add(p Quantity) Quantity          { return Quantity{value: t.value.Add(p.value)} }
func (t Quantity) Sub(p Quantity) Quantity          { return Quantity{value: t.value.Sub(p.value)} }
func (t Quantity) Abs() Quantity                    { return Quantity{value: t.value.Abs()} }
func (t Quantity) Neg() Quantity                    { return Quantity{value: t.value.Neg()} }
func (t Quantity) IsNegative() bool                 { return t.value.IsNegative() }
func (t Quantity) IsPositive() bool                 { return t.value.IsPositive() }
func (t Quantity) IsZero() bool                     { return t.value.IsZero() }
func (t Quantity) String() string                   { return t.value.String() }
func (t Quantity) MarshalJSON() ([]byte, error)     { return t.value.MarshalJSON() }
func (t *Quantity) UnmarshalJSON(data []byte) error { return t.value.UnmarshalJSON(data) }
