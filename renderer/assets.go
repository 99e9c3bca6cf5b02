package renderer

import (
	"fmt"
	"io"
	"strings"

	"github.com/etnz/stockledger"
)

// AssetsMarkdown renders the registered assets, the deactivated ones in a
// separate section.
func AssetsMarkdown(assets []stockledger.Asset) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Assets\n\n")
	fmt.Fprintln(&b, "| Symbol | Name | Type | Currency | Exchange | Sector |")
	fmt.Fprintln(&b, "|:---|:---|:---|:---|:---|:---|")
	for _, a := range assets {
		if a.Active {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n", a.Symbol, a.Name, a.Type, a.Currency, a.Exchange, a.Sector)
		}
	}
	ConditionalBlock(&b, func(w io.Writer) bool {
		fmt.Fprintf(w, "\n## Inactive\n\n")
		fmt.Fprintln(w, "| Symbol | Name | Currency |")
		fmt.Fprintln(w, "|:---|:---|:---|")
		n := 0
		for _, a := range assets {
			if !a.Active {
				fmt.Fprintf(w, "| %s | %s | %s |\n", a.Symbol, a.Name, a.Currency)
				n++
			}
		}
		return n > 0
	})
	return b.String()
}

// PositionSizeMarkdown renders a position size suggestion.
func PositionSizeMarkdown(portfolioValue, risk, entry, stop, shares fmt.Stringer) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Position size\n\n")
	fmt.Fprintln(&b, "| | |")
	fmt.Fprintln(&b, "|:---|---:|")
	fmt.Fprintf(&b, "| Portfolio value | %s |\n", portfolioValue)
	fmt.Fprintf(&b, "| Risk | %s |\n", risk)
	fmt.Fprintf(&b, "| Entry | %s |\n", entry)
	fmt.Fprintf(&b, "| Stop loss | %s |\n", stop)
	fmt.Fprintf(&b, "| **Shares** | **%s** |\n", shares)
	return b.String()
}
