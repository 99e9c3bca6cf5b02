// Package signals computes technical indicators on daily closes and combines
// them into a BUY, SELL or HOLD signal.
package signals

import (
	"fmt"
	"slices"

	"github.com/markcheno/go-talib"
	"github.com/shopspring/decimal"

	"github.com/etnz/stockledger"
	"github.com/etnz/stockledger/date"
)

// Indicator periods and thresholds.
const (
	RSIPeriod     = 14
	MACDFast      = 12
	MACDSlow      = 26
	MACDPeriod    = 9
	SMAShort      = 50
	SMALong       = 200
	RSIOversold   = 30
	RSIOverbought = 70
)

// Signal is the recommendation drawn from the indicators.
type Signal string

const (
	Buy  Signal = "BUY"
	Sell Signal = "SELL"
	Hold Signal = "HOLD"
)

// ParseSignal parses a stored signal.
func ParseSignal(s string) (Signal, error) {
	switch Signal(s) {
	case Buy, Sell, Hold:
		return Signal(s), nil
	}
	return "", fmt.Errorf("unknown signal %q", s)
}

// TechnicalSignal holds the indicators of a symbol on the date of its last
// close. Indicators without enough history are invalid.
type TechnicalSignal struct {
	Symbol        string
	Date          date.Date
	RSI14         decimal.NullDecimal
	MACD          decimal.NullDecimal
	MACDSignal    decimal.NullDecimal
	MACDHistogram decimal.NullDecimal
	SMA50         decimal.NullDecimal
	SMA200        decimal.NullDecimal
	Signal        Signal
	Strength      decimal.Decimal // in [-1, 1], positive is bullish
}

// Compute computes the technical signal of symbol from its bars. Bars of other
// symbols are rejected, the order of bars does not matter.
func Compute(symbol string, bars []stockledger.PriceBar) (TechnicalSignal, error) {
	symbol = stockledger.NormalizeSymbol(symbol)
	sig := TechnicalSignal{Symbol: symbol, Signal: Hold}
	if len(bars) == 0 {
		return sig, fmt.Errorf("no prices for %s", symbol)
	}
	bars = slices.Clone(bars)
	slices.SortFunc(bars, func(a, b stockledger.PriceBar) int { return a.Date.Compare(b.Date) })

	closes := make([]float64, len(bars))
	for i, b := range bars {
		if stockledger.NormalizeSymbol(b.Symbol) != symbol {
			return sig, fmt.Errorf("price bar of %s in the history of %s", b.Symbol, symbol)
		}
		if i > 0 && b.Date == bars[i-1].Date {
			return sig, fmt.Errorf("duplicate price bar of %s on %s", symbol, b.Date)
		}
		closes[i] = b.Close.InexactFloat64()
	}
	sig.Date = bars[len(bars)-1].Date
	n := len(closes)

	// go-talib fills the lookback period with zeros, so lengths are checked
	// before reading the last value.
	if n > RSIPeriod {
		sig.RSI14 = last(talib.Rsi(closes, RSIPeriod))
	}
	if n >= MACDSlow+MACDPeriod-1 {
		macd, signal, hist := talib.Macd(closes, MACDFast, MACDSlow, MACDPeriod)
		sig.MACD, sig.MACDSignal, sig.MACDHistogram = last(macd), last(signal), last(hist)
	}
	if n >= SMAShort {
		sig.SMA50 = last(talib.Sma(closes, SMAShort))
	}
	if n >= SMALong {
		sig.SMA200 = last(talib.Sma(closes, SMALong))
	}
	sig.Strength, sig.Signal = vote(sig, bars[len(bars)-1].Close)
	return sig, nil
}

func last(values []float64) decimal.NullDecimal {
	if len(values) == 0 {
		return decimal.NullDecimal{}
	}
	v := values[len(values)-1]
	if v != v { // NaN
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(v).Round(4))
}

// vote gives every available indicator a bullish (+1), bearish (-1) or
// neutral vote. Strength is their average, the signal is BUY or SELL when
// at least a third of the votes lean that way.
func vote(sig TechnicalSignal, close decimal.Decimal) (decimal.Decimal, Signal) {
	var sum, votes int64
	if sig.RSI14.Valid {
		votes++
		switch {
		case sig.RSI14.Decimal.LessThan(decimal.NewFromInt(RSIOversold)):
			sum++
		case sig.RSI14.Decimal.GreaterThan(decimal.NewFromInt(RSIOverbought)):
			sum--
		}
	}
	if sig.MACDHistogram.Valid {
		votes++
		sum += int64(sig.MACDHistogram.Decimal.Sign())
	}
	if sig.SMA50.Valid && sig.SMA200.Valid {
		votes++
		short, long := sig.SMA50.Decimal, sig.SMA200.Decimal
		switch {
		case close.GreaterThan(short) && short.GreaterThan(long):
			sum++
		case close.LessThan(short) && short.LessThan(long):
			sum--
		}
	}
	if votes == 0 {
		return decimal.Zero, Hold
	}
	strength := decimal.NewFromInt(sum).DivRound(decimal.NewFromInt(votes), 4)
	third := decimal.NewFromInt(1).DivRound(decimal.NewFromInt(3), 4)
	switch {
	case strength.GreaterThanOrEqual(third):
		return strength, Buy
	case strength.LessThanOrEqual(third.Neg()):
		return strength, Sell
	}
	return strength, Hold
}
