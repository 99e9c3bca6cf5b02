package stockledger

import (
	"fmt"

	"github.com/etnz/stockledger/date"
	"github.com/shopspring/decimal"
)

// CurrencyConverter supplies exchange rates: 1 unit of from is worth rate
// units of to, on a given day.
type CurrencyConverter interface {
	Rate(from, to string, on date.Date) (decimal.Decimal, error)
}

// Convert converts m into currency to with conv.
func Convert(conv CurrencyConverter, m Money, to string, on date.Date) (Money, error) {
	if m.Currency() == to {
		return m, nil
	}
	rate, err := lookupRate(conv, m.Currency(), to, on)
	if err != nil {
		return Money{}, err
	}
	return m.Scale(rate).In(to), nil
}

// lookupRate returns the rate from from to to, one for equal currencies.
func lookupRate(conv CurrencyConverter, from, to string, on date.Date) (decimal.Decimal, error) {
	if from == to {
		return one, nil
	}
	if conv == nil {
		return decimal.Decimal{}, &MissingRateError{From: from, To: to}
	}
	return conv.Rate(from, to, on)
}

// MarketRates reads exchange rates from the closes of currency pair symbols
// stored in the market data, like "EURUSD" for the price of 1 EUR in USD.
type MarketRates struct {
	Market *MarketData
}

// Rate looks up the direct pair then the inverse pair.
func (r MarketRates) Rate(from, to string, on date.Date) (decimal.Decimal, error) {
	if from == to {
		return one, nil
	}
	// To convert from fromCurrency to toCurrency, we need the pair fromCurrency + toCurrency.
	if rate, ok := r.Market.PriceAsOf(from+to, on); ok {
		return rate.Decimal(), nil
	}
	// If the direct pair is not found, try the inverse pair.
	inverse, ok := r.Market.PriceAsOf(to+from, on)
	if !ok || inverse.IsZero() {
		return decimal.Zero, &MissingRateError{From: from, To: to}
	}
	return one.DivRound(inverse.Decimal(), metricPrecision), nil
}

// FixedRates is a static table of rates keyed by pair, like "EURUSD".
type FixedRates map[string]decimal.Decimal

// Set records the rate of from in to.
func (r FixedRates) Set(from, to string, rate decimal.Decimal) { r[from+to] = rate }

// Rate looks up the direct pair then the inverse pair, whatever the day.
func (r FixedRates) Rate(from, to string, _ date.Date) (decimal.Decimal, error) {
	if from == to {
		return one, nil
	}
	if rate, ok := r[from+to]; ok {
		return rate, nil
	}
	if inverse, ok := r[to+from]; ok && !inverse.IsZero() {
		return one.DivRound(inverse, metricPrecision), nil
	}
	return decimal.Zero, &MissingRateError{From: from, To: to}
}

// ParseRate parses a "EURUSD=1.0850" command line definition.
func ParseRate(s string) (pair string, rate decimal.Decimal, err error) {
	if len(s) < 8 || s[6] != '=' {
		return "", decimal.Zero, fmt.Errorf("invalid rate %q, want PAIR=rate like EURUSD=1.08", s)
	}
	pair = s[:6]
	if err := ValidateCurrency(pair[:3]); err != nil {
		return "", decimal.Zero, fmt.Errorf("invalid rate %q: %w", s, err)
	}
	if err := ValidateCurrency(pair[3:]); err != nil {
		return "", decimal.Zero, fmt.Errorf("invalid rate %q: %w", s, err)
	}
	rate, err = decimal.NewFromString(s[7:])
	if err != nil || !rate.IsPositive() {
		return "", decimal.Zero, fmt.Errorf("invalid rate %q: must be a positive number", s)
	}
	return pair, rate, nil
}
