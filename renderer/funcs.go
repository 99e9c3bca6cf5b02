package renderer

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/etnz/stockledger"
)

var funcs = map[string]any{
	"day":      day,
	"number":   number,
	"percent":  percent,
	"fraction": fraction,
}

func day(t time.Time) string { return t.UTC().Format(time.DateOnly) }

// number formats an optional decimal with places decimals, n/a when invalid.
func number(d decimal.NullDecimal, places int) string {
	if !d.Valid {
		return "n/a"
	}
	return stockledger.RoundHalfUp(d.Decimal, int32(places)).StringFixed(int32(places))
}

// percent formats an optional value already expressed in percent.
func percent(d decimal.NullDecimal) string {
	if !d.Valid {
		return "n/a"
	}
	return stockledger.P(d.Decimal).String()
}

// fraction formats a decimal or an optional decimal fraction as a percent.
func fraction(v any) string {
	switch d := v.(type) {
	case decimal.Decimal:
		return stockledger.FromFraction(d).String()
	case decimal.NullDecimal:
		if !d.Valid {
			return "n/a"
		}
		return stockledger.FromFraction(d.Decimal).String()
	}
	return "n/a"
}
