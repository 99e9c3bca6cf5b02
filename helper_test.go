package stockledger

import (
	"time"

	"github.com/etnz/stockledger/date"
	"github.com/shopspring/decimal"
)

// EUR is a helper for test to create euro money from const
func EUR(v float64) Money { return M(v, "EUR") }

// USD is a helper for test to create usd money from const
func USD(v float64) Money { return M(v, "USD") }

// dec parses an exact decimal.
func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// q parses an exact quantity.
func q(s string) Quantity { return Q(dec(s)) }

// on returns noon UTC of an ISO day, plus an optional number of minutes.
func on(day string, minutes ...int) time.Time {
	t := date.MustParse(day).Time().Add(12 * time.Hour)
	for _, m := range minutes {
		t = t.Add(time.Duration(m) * time.Minute)
	}
	return t
}

// decs parses a list of exact decimals.
func decs(values ...string) []decimal.Decimal {
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		out[i] = dec(v)
	}
	return out
}
