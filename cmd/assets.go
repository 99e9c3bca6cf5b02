package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/etnz/stockledger"
	"github.com/etnz/stockledger/renderer"
)

type addAssetCmd struct {
	symbol   string
	name     string
	typ      string
	currency string
	exchange string
	sector   string
	industry string
}

func (*addAssetCmd) Name() string     { return "add-asset" }
func (*addAssetCmd) Synopsis() string { return "register or update an asset" }
func (*addAssetCmd) Usage() string {
	return `sl add-asset -s <symbol> -n <name> [-t <type>] [-c <currency>] [-exchange <exchange>] [-sector <sector>]

  Registers an asset in the ledger, or updates its description. Assets are
  also registered automatically the first time a transaction names them.
  The currency of an asset cannot change once it has transactions.
`
}

func (c *addAssetCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbol, "s", "", "Ticker symbol")
	f.StringVar(&c.name, "n", "", "Name of the asset")
	f.StringVar(&c.typ, "t", string(stockledger.Stock), "Asset type: stock, etf, crypto or commodity")
	f.StringVar(&c.currency, "c", "", "Quote currency, defaults to the reporting currency")
	f.StringVar(&c.exchange, "exchange", "", "Exchange the asset is listed on")
	f.StringVar(&c.sector, "sector", "", "Sector")
	f.StringVar(&c.industry, "industry", "", "Industry")
}

func (c *addAssetCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	typ, err := stockledger.ParseAssetType(c.typ)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	cur := c.currency
	if cur == "" {
		cur = app.currency
	}
	a := stockledger.NewAsset(c.symbol, c.name, typ, cur)
	a.Exchange, a.Sector, a.Industry = c.exchange, c.sector, c.industry
	if err := a.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	store, err := openStore(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	defer store.Close()

	if err := store.RegisterAsset(ctx, a); err != nil {
		fmt.Fprintf(os.Stderr, "Error registering asset: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(stdout, "Registered %s (%s, %s)\n", a.Symbol, a.Type, a.Currency)
	return subcommands.ExitSuccess
}

type deactivateAssetCmd struct{}

func (*deactivateAssetCmd) Name() string     { return "deactivate-asset" }
func (*deactivateAssetCmd) Synopsis() string { return "refuse new transactions on an asset" }
func (*deactivateAssetCmd) Usage() string {
	return `sl deactivate-asset <symbol>...

  Deactivates assets: their history is kept but new transactions are refused.
`
}

func (*deactivateAssetCmd) SetFlags(f *flag.FlagSet) {}

func (*deactivateAssetCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return forEachSymbol(ctx, f, "deactivated", func(ctx context.Context, s stockledger.LedgerStore, symbol string) error {
		return s.DeactivateAsset(ctx, symbol)
	})
}

type deleteAssetCmd struct{}

func (*deleteAssetCmd) Name() string     { return "delete-asset" }
func (*deleteAssetCmd) Synopsis() string { return "delete an asset without transactions" }
func (*deleteAssetCmd) Usage() string {
	return `sl delete-asset <symbol>...

  Deletes assets together with their price history, signals and watchlist
  entries. An asset that has transactions cannot be deleted, deactivate it
  instead.
`
}

func (*deleteAssetCmd) SetFlags(f *flag.FlagSet) {}

func (*deleteAssetCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return forEachSymbol(ctx, f, "deleted", func(ctx context.Context, s stockledger.LedgerStore, symbol string) error {
		return s.DeleteAsset(ctx, symbol)
	})
}

// forEachSymbol applies fn to the symbols given as arguments.
func forEachSymbol(ctx context.Context, f *flag.FlagSet, done string, fn func(context.Context, stockledger.LedgerStore, string) error) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: expecting at least one symbol.")
		return subcommands.ExitUsageError
	}
	store, err := openStore(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	defer store.Close()

	status := subcommands.ExitSuccess
	for _, symbol := range f.Args() {
		symbol = stockledger.NormalizeSymbol(symbol)
		if err := fn(ctx, store, symbol); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", symbol, err)
			status = subcommands.ExitFailure
			continue
		}
		fmt.Fprintf(stdout, "%s %s\n", upperFirst(done), symbol)
	}
	return status
}

type assetsCmd struct{}

func (*assetsCmd) Name() string     { return "assets" }
func (*assetsCmd) Synopsis() string { return "list the registered assets" }
func (*assetsCmd) Usage() string {
	return `sl assets

  Lists the registered assets, the inactive ones in a separate section.
`
}

func (*assetsCmd) SetFlags(f *flag.FlagSet) {}

func (*assetsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	store, err := openStore(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	defer store.Close()

	assets, err := store.Assets(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing assets: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.AssetsMarkdown(assets))
	return subcommands.ExitSuccess
}
