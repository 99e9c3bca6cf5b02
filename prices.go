package stockledger

import (
	"fmt"
	"slices"

	"github.com/etnz/stockledger/date"
	"github.com/shopspring/decimal"
)

// PriceBar is the OHLCV observation of an asset on a day. There is at most
// one bar per (symbol, date).
type PriceBar struct {
	Symbol        string
	Date          date.Date
	Open          decimal.Decimal
	High          decimal.Decimal
	Low           decimal.Decimal
	Close         decimal.Decimal
	AdjustedClose decimal.Decimal
	Volume        int64
}

// Validate checks the bar is consistent.
func (b PriceBar) Validate() error {
	if b.Symbol == "" {
		return fmt.Errorf("price bar without symbol")
	}
	if b.Date.IsZero() {
		return fmt.Errorf("price bar of %s without date", b.Symbol)
	}
	if !b.Close.IsPositive() {
		return fmt.Errorf("price bar %s on %s: close must be positive", b.Symbol, b.Date)
	}
	if !b.High.IsZero() && !b.Low.IsZero() && b.High.LessThan(b.Low) {
		return fmt.Errorf("price bar %s on %s: high %s below low %s", b.Symbol, b.Date, b.High, b.Low)
	}
	if b.Volume < 0 {
		return fmt.Errorf("price bar %s on %s: negative volume", b.Symbol, b.Date)
	}
	return nil
}

// PricePoint is a close price on a day.
type PricePoint struct {
	Date  date.Date
	Close Money
}

// PriceLookup supplies current prices. It never fetches anything itself.
type PriceLookup interface {
	CurrentPrice(symbol string) (Money, bool)
}

// HistoryLookup supplies daily closes between two dates, included, in date order.
type HistoryLookup interface {
	HistoricalPrices(symbol string, r date.Range) []PricePoint
}

// MarketData is an in-memory price history keyed by symbol and day.
// It is not safe for concurrent mutation; readers may share it once loaded.
type MarketData struct {
	currencies map[string]string
	bars       map[string][]PriceBar // sorted by date
	current    map[string]Money      // explicit quotes, override history
}

var (
	_ PriceLookup   = (*MarketData)(nil)
	_ HistoryLookup = (*MarketData)(nil)
)

// NewMarketData returns an empty market data collection.
func NewMarketData() *MarketData {
	return &MarketData{
		currencies: make(map[string]string),
		bars:       make(map[string][]PriceBar),
		current:    make(map[string]Money),
	}
}

// SetCurrency declares the quote currency of symbol.
func (m *MarketData) SetCurrency(symbol, currency string) {
	m.currencies[NormalizeSymbol(symbol)] = currency
}

// Currency returns the quote currency of symbol, if known.
func (m *MarketData) Currency(symbol string) (string, bool) {
	c, ok := m.currencies[NormalizeSymbol(symbol)]
	return c, ok
}

// Add inserts or replaces the bar of its (symbol, date).
func (m *MarketData) Add(bar PriceBar) {
	bar.Symbol = NormalizeSymbol(bar.Symbol)
	bars := m.bars[bar.Symbol]
	i, found := slices.BinarySearchFunc(bars, bar.Date, func(b PriceBar, d date.Date) int { return b.Date.Compare(d) })
	if found {
		bars[i] = bar
		return
	}
	m.bars[bar.Symbol] = slices.Insert(bars, i, bar)
}

// SetClose is a shortcut to Add a bar with only a close price.
func (m *MarketData) SetClose(symbol string, on date.Date, close decimal.Decimal) {
	m.Add(PriceBar{Symbol: symbol, Date: on, Close: close})
}

// SetCurrentPrice records an explicit current quote for symbol.
func (m *MarketData) SetCurrentPrice(symbol string, price Money) {
	symbol = NormalizeSymbol(symbol)
	m.current[symbol] = price
	if _, ok := m.currencies[symbol]; !ok {
		m.currencies[symbol] = price.Currency()
	}
}

// Symbols returns every symbol with a price, sorted.
func (m *MarketData) Symbols() []string {
	var out []string
	for s := range m.bars {
		out = append(out, s)
	}
	for s := range m.current {
		if _, ok := m.bars[s]; !ok {
			out = append(out, s)
		}
	}
	slices.Sort(out)
	return out
}

// Bars returns the bars of symbol, in date order.
func (m *MarketData) Bars(symbol string) []PriceBar {
	return slices.Clone(m.bars[NormalizeSymbol(symbol)])
}

// PriceAsOf returns the latest close on or before on.
func (m *MarketData) PriceAsOf(symbol string, on date.Date) (Money, bool) {
	symbol = NormalizeSymbol(symbol)
	bars := m.bars[symbol]
	i, found := slices.BinarySearchFunc(bars, on, func(b PriceBar, d date.Date) int { return b.Date.Compare(d) })
	if !found {
		if i == 0 {
			return Money{}, false
		}
		i--
	}
	return M(bars[i].Close, m.currencies[symbol]), true
}

// CurrentPrice returns the explicit current quote if any, else the latest close.
func (m *MarketData) CurrentPrice(symbol string) (Money, bool) {
	symbol = NormalizeSymbol(symbol)
	if p, ok := m.current[symbol]; ok {
		return p, true
	}
	bars := m.bars[symbol]
	if len(bars) == 0 {
		return Money{}, false
	}
	return M(bars[len(bars)-1].Close, m.currencies[symbol]), true
}

// HistoricalPrices returns the closes of symbol within r.
func (m *MarketData) HistoricalPrices(symbol string, r date.Range) []PricePoint {
	symbol = NormalizeSymbol(symbol)
	var out []PricePoint
	for _, b := range m.bars[symbol] {
		if r.Contains(b.Date) {
			out = append(out, PricePoint{Date: b.Date, Close: M(b.Close, m.currencies[symbol])})
		}
	}
	return out
}

// AsOf returns a PriceLookup answering with the closes as of on.
func (m *MarketData) AsOf(on date.Date) PriceLookup { return pricesAsOf{m, on} }

type pricesAsOf struct {
	m  *MarketData
	on date.Date
}

func (p pricesAsOf) CurrentPrice(symbol string) (Money, bool) { return p.m.PriceAsOf(symbol, p.on) }
