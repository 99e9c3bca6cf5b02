// Package quotes reads price quotes from exported JSON documents. A jsonpath
// expression selects the quote objects, so documents of different providers
// can be read without code changes. Nothing is fetched over the network.
package quotes

import (
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"

	"github.com/etnz/stockledger"
	"github.com/etnz/stockledger/date"
)

// DefaultPath selects the elements of a top level "quotes" array.
const DefaultPath = "$.quotes[*]"

// Quote is a price observation read from a document.
type Quote struct {
	Symbol        string
	Date          date.Date
	Price         decimal.Decimal // close or last price
	Currency      string
	Open          decimal.Decimal
	High          decimal.Decimal
	Low           decimal.Decimal
	AdjustedClose decimal.Decimal
	Volume        int64
}

// Money returns the quote price in its currency.
func (q Quote) Money() stockledger.Money { return stockledger.M(q.Price, q.Currency) }

// Bar converts the quote into a daily bar.
func (q Quote) Bar() stockledger.PriceBar {
	adj := q.AdjustedClose
	if adj.IsZero() {
		adj = q.Price
	}
	return stockledger.PriceBar{
		Symbol:        q.Symbol,
		Date:          q.Date,
		Open:          q.Open,
		High:          q.High,
		Low:           q.Low,
		Close:         q.Price,
		AdjustedClose: adj,
		Volume:        q.Volume,
	}
}

// Load reads the quote objects selected by path in the JSON document r.
// Objects without a "symbol" field get defaultSymbol. Numbers are read
// exactly, they can be JSON numbers or strings using a decimal comma.
func Load(r io.Reader, path, defaultSymbol string) ([]Quote, error) {
	if path == "" {
		path = DefaultPath
	}
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("invalid quotes document: %w", err)
	}
	jval, err := jsonpath.Get(path, doc)
	if err != nil {
		return nil, fmt.Errorf("error evaluating %q: %w", path, err)
	}
	// jsonpath returns a list for wildcards and a single value otherwise.
	objects, ok := jval.([]any)
	if !ok {
		objects = []any{jval}
	}
	out := make([]Quote, 0, len(objects))
	for i, o := range objects {
		obj, ok := o.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s[%d]: not an object: %v", path, i, o)
		}
		q, err := parseQuote(obj, defaultSymbol)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", path, i, err)
		}
		out = append(out, q)
	}
	return out, nil
}

// LoadFile is Load on a file.
func LoadFile(name, path, defaultSymbol string) ([]Quote, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	qs, err := Load(f, path, defaultSymbol)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return qs, nil
}

func parseQuote(obj map[string]any, defaultSymbol string) (Quote, error) {
	var q Quote
	var err error
	q.Symbol = stockledger.NormalizeSymbol(firstString(obj, "symbol", "ticker"))
	if q.Symbol == "" {
		q.Symbol = stockledger.NormalizeSymbol(defaultSymbol)
	}
	if q.Symbol == "" {
		return q, fmt.Errorf("quote without symbol")
	}
	name, raw := firstKey(obj, "price", "close", "last")
	if s, ok := raw.(string); ok && strings.TrimSpace(s) == "./." {
		// some providers show an empty last this way, use the bid instead
		name, raw = "bid", obj["bid"]
	}
	if raw == nil {
		return q, fmt.Errorf("quote %s has no price", q.Symbol)
	}
	if q.Price, err = parseDecimal(raw); err != nil {
		return q, fmt.Errorf("quote %s %s: %w", q.Symbol, name, err)
	}
	if !q.Price.IsPositive() {
		return q, fmt.Errorf("quote %s: empty %s", q.Symbol, name)
	}
	q.Currency = strings.ToUpper(firstString(obj, "currency"))
	if q.Currency != "" {
		if err := stockledger.ValidateCurrency(q.Currency); err != nil {
			return q, fmt.Errorf("quote %s: %w", q.Symbol, err)
		}
	}
	if s := firstString(obj, "date", "time"); s != "" {
		if q.Date, err = parseDate(s); err != nil {
			return q, fmt.Errorf("quote %s: %w", q.Symbol, err)
		}
	}
	for key, dst := range map[string]*decimal.Decimal{"open": &q.Open, "high": &q.High, "low": &q.Low, "adjustedClose": &q.AdjustedClose, "adj_close": &q.AdjustedClose} {
		v, ok := obj[key]
		if !ok || v == nil {
			continue
		}
		if *dst, err = parseDecimal(v); err != nil {
			return q, fmt.Errorf("quote %s %s: %w", q.Symbol, key, err)
		}
	}
	if v, ok := obj["volume"]; ok && v != nil {
		vol, err := parseDecimal(v)
		if err != nil || !vol.IsInteger() || vol.IsNegative() {
			return q, fmt.Errorf("quote %s: invalid volume %v", q.Symbol, v)
		}
		q.Volume = vol.IntPart()
	}
	return q, nil
}

func firstKey(obj map[string]any, keys ...string) (string, any) {
	for _, k := range keys {
		if v, ok := obj[k]; ok && v != nil {
			return k, v
		}
	}
	return keys[0], nil
}

func firstString(obj map[string]any, keys ...string) string {
	_, v := firstKey(obj, keys...)
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// parseDecimal reads a json.Number or a string, with a decimal comma or
// spaces as thousands separators.
func parseDecimal(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case json.Number:
		return decimal.NewFromString(x.String())
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(x), " ", "")
		s = strings.ReplaceAll(s, ",", ".")
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid number %q", x)
		}
		return d, nil
	default:
		return decimal.Zero, fmt.Errorf("not a number: %v", v)
	}
}

func parseDate(s string) (date.Date, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return date.FromTime(t), nil
	}
	return date.Parse(s)
}

// Quotes is a stockledger.PriceLookup answering with the latest quote of
// each symbol.
type Quotes struct {
	latest map[string]Quote
}

var _ stockledger.PriceLookup = (*Quotes)(nil)

// NewQuotes indexes the most recent quote of every symbol. Undated quotes
// are considered the most recent.
func NewQuotes(qs []Quote) *Quotes {
	l := &Quotes{latest: make(map[string]Quote)}
	for _, q := range qs {
		old, ok := l.latest[q.Symbol]
		if !ok || q.Date.IsZero() || (!old.Date.IsZero() && !q.Date.Before(old.Date)) {
			l.latest[q.Symbol] = q
		}
	}
	return l
}

// CurrentPrice implements stockledger.PriceLookup.
func (l *Quotes) CurrentPrice(symbol string) (stockledger.Money, bool) {
	q, ok := l.latest[stockledger.NormalizeSymbol(symbol)]
	if !ok {
		return stockledger.Money{}, false
	}
	return q.Money(), true
}

// Symbols returns the symbols quoted, sorted.
func (l *Quotes) Symbols() []string {
	out := make([]string, 0, len(l.latest))
	for s := range l.latest {
		out = append(out, s)
	}
	slices.Sort(out)
	return out
}

// Bars returns the dated quotes as bars, sorted by symbol then date.
func Bars(qs []Quote) []stockledger.PriceBar {
	var bars []stockledger.PriceBar
	for _, q := range qs {
		if q.Date.IsZero() {
			continue
		}
		bars = append(bars, q.Bar())
	}
	slices.SortStableFunc(bars, func(a, b stockledger.PriceBar) int {
		if c := cmp.Compare(a.Symbol, b.Symbol); c != 0 {
			return c
		}
		return a.Date.Compare(b.Date)
	})
	return bars
}

// Apply loads the quotes into the market data: dated quotes become bars,
// the latest of each symbol becomes its current price.
func Apply(m *stockledger.MarketData, qs []Quote) {
	for _, q := range qs {
		if q.Currency != "" {
			if _, ok := m.Currency(q.Symbol); !ok {
				m.SetCurrency(q.Symbol, q.Currency)
			}
		}
	}
	for _, b := range Bars(qs) {
		m.Add(b)
	}
	l := NewQuotes(qs)
	for _, s := range l.Symbols() {
		if q := l.latest[s]; q.Date.IsZero() {
			m.SetCurrentPrice(s, q.Money())
		}
	}
}

// LoadQuotes reads a document with Load and indexes its latest quotes.
func LoadQuotes(r io.Reader, path string) (*Quotes, error) {
	qs, err := Load(r, path, "")
	if err != nil {
		return nil, err
	}
	return NewQuotes(qs), nil
}

// LoadBars reads the daily history of a single symbol, for instance a
// provider export of one asset. Every bar is validated.
func LoadBars(r io.Reader, path, symbol string) ([]stockledger.PriceBar, error) {
	qs, err := Load(r, path, symbol)
	if err != nil {
		return nil, err
	}
	bars := Bars(qs)
	for _, b := range bars {
		if err := b.Validate(); err != nil {
			return nil, err
		}
	}
	return bars, nil
}
