// Package renderer renders the accounting reports as markdown.
package renderer

import (
	"cmp"
	"embed"
	"fmt"
	"io/fs"
	"slices"
	"strings"
	"text/template"

	"github.com/etnz/stockledger"
	"github.com/etnz/stockledger/date"
	"github.com/etnz/stockledger/signals"
)

//go:embed templates/*.md
var templates embed.FS

// HoldingsView is the input of RenderHoldings.
type HoldingsView struct {
	Date     date.Date
	Method   stockledger.CostBasisMethod
	Holdings []stockledger.HoldingsSummary
	Closed   bool // also list the holdings sold out
}

// Open returns the holdings to list.
func (v HoldingsView) Open() []stockledger.HoldingsSummary {
	if v.Closed {
		return v.Holdings
	}
	var out []stockledger.HoldingsSummary
	for _, h := range v.Holdings {
		if h.IsOpen() {
			out = append(out, h)
		}
	}
	return out
}

// RenderHoldings renders the holdings table and, for FIFO, the open lots.
func RenderHoldings(v HoldingsView) string {
	partials := map[string]string{
		"holdings_lots": "holdings_lots.md",
	}
	return renderTemplate("holdings", "holdings.md", partials, v)
}

// RenderValuation renders a portfolio valuation.
func RenderValuation(v stockledger.Valuation) string {
	partials := map[string]string{
		"valuation_positions": "valuation_positions.md",
		"valuation_cash":      "valuation_cash.md",
		"warnings":            "warnings.md",
	}
	return renderTemplate("valuation", "valuation.md", partials, v)
}

// PerformanceRenderOptions holds configuration for rendering a performance report.
type PerformanceRenderOptions struct {
	Series bool // Also render the daily value series.
}

// RenderPerformance renders the statistics of a performance report.
func RenderPerformance(r stockledger.PerformanceReport, opts PerformanceRenderOptions) string {
	partials := map[string]string{
		"warnings": "warnings.md",
	}
	// An empty file name results in an empty template.
	if opts.Series {
		partials["performance_series"] = "performance_series.md"
	} else {
		partials["performance_series"] = ""
	}
	return renderTemplate("performance", "performance.md", partials, r)
}

// RenderSnapshot renders a portfolio snapshot.
func RenderSnapshot(s stockledger.PortfolioSnapshot) string {
	partials := map[string]string{
		"valuation_cash": "valuation_cash.md",
		"warnings":       "warnings.md",
	}
	return renderTemplate("snapshot", "snapshot.md", partials, s)
}

// RenderTransactions renders a ledger extract.
func RenderTransactions(txs []stockledger.Transaction) string {
	return renderTemplate("transactions", "transactions.md", nil, txs)
}

// WatchlistRow is a watchlist item with its current price.
type WatchlistRow struct {
	Item  stockledger.WatchlistItem
	Price *stockledger.Money
	Hit   bool // the price reached the target
}

// WatchlistView is the input of RenderWatchlist.
type WatchlistView struct {
	Watchlist stockledger.Watchlist
	Rows      []WatchlistRow
}

// NewWatchlistView prices the items of w.
func NewWatchlistView(w stockledger.Watchlist, prices stockledger.PriceLookup) WatchlistView {
	v := WatchlistView{Watchlist: w}
	hits := make(map[string]bool)
	if prices != nil {
		for _, h := range w.TargetsHit(prices) {
			hits[h.Item.Symbol] = true
		}
	}
	for _, it := range w.Items {
		row := WatchlistRow{Item: it, Hit: hits[it.Symbol]}
		if prices != nil {
			if p, ok := prices.CurrentPrice(it.Symbol); ok {
				row.Price = &p
			}
		}
		v.Rows = append(v.Rows, row)
	}
	return v
}

// RenderWatchlist renders a watchlist.
func RenderWatchlist(v WatchlistView) string {
	return renderTemplate("watchlist", "watchlist.md", nil, v)
}

// RenderSignals renders technical signals, sorted by symbol.
func RenderSignals(sigs []signals.TechnicalSignal) string {
	sigs = slices.Clone(sigs)
	slices.SortFunc(sigs, func(a, b signals.TechnicalSignal) int { return cmp.Compare(a.Symbol, b.Symbol) })
	return renderTemplate("signals", "signals.md", nil, sigs)
}

// renderTemplate is a generic utility to render a main template that depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) string {
	mainContent, err := fs.ReadFile(templates, "templates/"+mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Funcs(funcs).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}

	for name, file := range partials {
		var content []byte
		// An empty file name is a valid case, resulting in an empty template.
		if file != "" {
			var readErr error
			content, readErr = fs.ReadFile(templates, "templates/"+file)
			if readErr != nil {
				return fmt.Sprintf("error reading partial template %q: %v", file, readErr)
			}
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Sprintf("error parsing partial template %q for %q: %v", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", templateName, err)
	}
	return b.String()
}
