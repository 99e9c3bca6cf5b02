package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"slices"

	"github.com/google/subcommands"

	"github.com/etnz/stockledger"
	"github.com/etnz/stockledger/quotes"
	"github.com/etnz/stockledger/renderer"
	"github.com/etnz/stockledger/signals"
	"github.com/etnz/stockledger/sqlstore"
)

type importPricesCmd struct {
	symbol   string
	path     string
	register bool
}

func (*importPricesCmd) Name() string     { return "import-prices" }
func (*importPricesCmd) Synopsis() string { return "import daily prices from a JSON document" }
func (*importPricesCmd) Usage() string {
	return `sl import-prices [-s <symbol>] [-path <jsonpath>] [-register] <file>...

  Imports the dated quotes of JSON documents into the price history,
  replacing the bars of the same asset and day. The JSONPath selects the
  quote objects, each with a symbol, a date and a close price, and
  optionally open, high, low, volume and currency. When the document is the
  history of a single asset, -s names it. Quotes of unregistered assets are
  refused unless -register is set.
`
}

func (c *importPricesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbol, "s", "", "Symbol of the quotes without one")
	f.StringVar(&c.path, "path", "", "JSONPath selecting the quotes, defaults to -quotes-path")
	f.BoolVar(&c.register, "register", false, "Register unknown assets as stocks in their quote currency")
}

func (c *importPricesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: expecting at least one file to import.")
		return subcommands.ExitUsageError
	}
	path := c.path
	if path == "" {
		path = app.quotesPath
	}

	store, err := openStore(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	defer store.Close()

	for _, name := range f.Args() {
		qs, err := quotes.LoadFile(name, path, c.symbol)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		if c.register {
			if err := c.registerAssets(ctx, store, qs); err != nil {
				fmt.Fprintf(os.Stderr, "Error registering assets: %v\n", err)
				return subcommands.ExitFailure
			}
		}
		bars := quotes.Bars(qs)
		if err := store.SavePrices(ctx, bars); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving prices of %s: %v\n", name, err)
			return subcommands.ExitFailure
		}
		fmt.Fprintf(stdout, "Imported %d prices from %s\n", len(bars), name)
	}
	return subcommands.ExitSuccess
}

// registerAssets registers the quoted symbols that are not assets yet.
func (c *importPricesCmd) registerAssets(ctx context.Context, store *sqlstore.Store, qs []quotes.Quote) error {
	seen := make(map[string]bool)
	for _, q := range qs {
		if seen[q.Symbol] {
			continue
		}
		seen[q.Symbol] = true
		_, err := store.Asset(ctx, q.Symbol)
		if err == nil {
			continue
		}
		if !errors.Is(err, stockledger.ErrAssetNotFound) {
			return err
		}
		cur := q.Currency
		if cur == "" {
			cur = app.currency
		}
		if err := store.RegisterAsset(ctx, stockledger.NewAsset(q.Symbol, q.Symbol, stockledger.Stock, cur)); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Registered %s (%s)\n", q.Symbol, cur)
	}
	return nil
}

type signalsCmd struct {
	dryRun bool
}

func (*signalsCmd) Name() string     { return "signals" }
func (*signalsCmd) Synopsis() string { return "compute technical signals from the price history" }
func (*signalsCmd) Usage() string {
	return `sl signals [-n] [<symbol>...]

  Computes RSI(14), MACD(12, 26, 9) and the 50 and 200 day moving averages
  on the daily closes of each asset, combines them into a BUY, SELL or HOLD
  signal and saves it. Without symbols every asset with a price history is
  processed.
`
}

func (c *signalsCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.dryRun, "n", false, "Do not save the signals")
}

func (c *signalsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	store, err := openStore(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	defer store.Close()

	market, err := store.LoadMarketData(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading prices: %v\n", err)
		return subcommands.ExitFailure
	}
	symbols := f.Args()
	if len(symbols) == 0 {
		symbols = market.Symbols()
	}

	status := subcommands.ExitSuccess
	var sigs []signals.TechnicalSignal
	for _, symbol := range symbols {
		symbol = stockledger.NormalizeSymbol(symbol)
		sig, err := signals.Compute(symbol, market.Bars(symbol))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			status = subcommands.ExitFailure
			continue
		}
		if !c.dryRun {
			if err := store.SaveSignal(ctx, sig); err != nil {
				fmt.Fprintf(os.Stderr, "Error saving signal: %v\n", err)
				status = subcommands.ExitFailure
				continue
			}
		}
		sigs = append(sigs, sig)
	}
	if len(sigs) > 0 {
		printMarkdown(renderer.RenderSignals(sigs))
	}
	return status
}

type watchlistCmd struct {
	description string
	target      string
	notes       string
}

var watchlistActions = []string{"list", "create", "add", "remove", "delete", "show"}

func (*watchlistCmd) Name() string     { return "watchlist" }
func (*watchlistCmd) Synopsis() string { return "manage watchlists of assets" }
func (*watchlistCmd) Usage() string {
	return `sl watchlist list
sl watchlist [-desc <description>] create <name>
sl watchlist [-target <price>] [-m <note>] add <name> <symbol>
sl watchlist remove <name> <symbol>
sl watchlist delete <name>
sl watchlist show <name>

  Manages named lists of assets to follow. An item can have a target price:
  'show' prints the current price of every item and highlights the ones
  priced at or below their target.
`
}

func (c *watchlistCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.description, "desc", "", "Description of a new watchlist")
	f.StringVar(&c.target, "target", "", "Target price of an item, in the asset currency")
	f.StringVar(&c.notes, "m", "", "Note about an item")
}

func (c *watchlistCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) == 0 || !slices.Contains(watchlistActions, args[0]) {
		fmt.Fprintf(os.Stderr, "Error: expecting one of %v\n", watchlistActions)
		return subcommands.ExitUsageError
	}
	action, args := args[0], args[1:]
	want := map[string]int{"list": 0, "create": 1, "add": 2, "remove": 2, "delete": 1, "show": 1}[action]
	if len(args) != want {
		fmt.Fprintf(os.Stderr, "Error: %s expects %d arguments, got %d\n", action, want, len(args))
		return subcommands.ExitUsageError
	}

	store, as, err := openSystem(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	defer store.Close()

	if err := c.run(ctx, store, as.Market, action, args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *watchlistCmd) run(ctx context.Context, store stockledger.WatchlistStore, prices stockledger.PriceLookup, action string, args []string) error {
	switch action {
	case "list":
		lists, err := store.Watchlists(ctx)
		if err != nil {
			return err
		}
		for _, w := range lists {
			fmt.Fprintf(stdout, "%s\t%d items\t%s\n", w.Name, len(w.Items), w.Description)
		}
	case "create":
		w, err := store.CreateWatchlist(ctx, args[0], c.description)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Created watchlist %q\n", w.Name)
	case "add":
		item := stockledger.WatchlistItem{Symbol: stockledger.NormalizeSymbol(args[1]), Notes: c.notes}
		if c.target != "" {
			target, err := parseDecimal("target", c.target)
			if err != nil {
				return err
			}
			item.TargetPrice.Decimal, item.TargetPrice.Valid = target, true
		}
		if err := store.AddToWatchlist(ctx, args[0], item); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Added %s to %q\n", item.Symbol, args[0])
	case "remove":
		if err := store.RemoveFromWatchlist(ctx, args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Removed %s from %q\n", stockledger.NormalizeSymbol(args[1]), args[0])
	case "delete":
		if err := store.DeleteWatchlist(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Deleted watchlist %q\n", args[0])
	case "show":
		w, err := store.Watchlist(ctx, args[0])
		if err != nil {
			return err
		}
		printMarkdown(renderer.RenderWatchlist(renderer.NewWatchlistView(w, prices)))
	}
	return nil
}
