// Package cmd implements the CLI application to manage a stock portfolio
// ledger.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/etnz/stockledger"
	"github.com/etnz/stockledger/config"
	"github.com/etnz/stockledger/logger"
	"github.com/etnz/stockledger/quotes"
	"github.com/etnz/stockledger/sqlstore"
)

// Register the subcommands and the global flags.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
// The global flags default to cfg.
func Register(c *subcommands.Commander, f *flag.FlagSet, cfg *config.Config) {
	registerFlags(f, cfg)

	for _, t := range stockledger.TransactionTypes {
		c.Register(&recordCmd{typ: t}, "transactions")
	}
	c.Register(&txCmd{}, "transactions")
	c.Register(&importCmd{}, "transactions")
	c.Register(&exportCmd{}, "transactions")

	c.Register(&addAssetCmd{}, "assets")
	c.Register(&deactivateAssetCmd{}, "assets")
	c.Register(&deleteAssetCmd{}, "assets")
	c.Register(&assetsCmd{}, "assets")

	c.Register(&holdingsCmd{}, "reports")
	c.Register(&valueCmd{}, "reports")
	c.Register(&performanceCmd{}, "reports")
	c.Register(&snapshotCmd{}, "reports")
	c.Register(&sizeCmd{}, "reports")

	c.Register(&importPricesCmd{}, "market")
	c.Register(&signalsCmd{}, "market")
	c.Register(&watchlistCmd{}, "market")

	c.Register(c.HelpCommand(), "")
	c.Register(c.FlagsCommand(), "")
	c.Register(c.CommandsCommand(), "")
	c.Register(&completionCmd{}, "")
	c.Register(&topicCmd{}, "")

	c.ImportantFlag("db")
	c.ImportantFlag("currency")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.
var app struct {
	dbPath     string
	currency   string
	costBasis  string
	riskFree   string
	quotesFile string
	quotesPath string
	fractional bool
	raw        bool
	log        logger.Config
}

// stdout receives the reports, stderr the diagnostics.
var stdout io.Writer = os.Stdout

func registerFlags(f *flag.FlagSet, cfg *config.Config) {
	f.StringVar(&app.dbPath, "db", cfg.Database.Path, "Path to the SQLite ledger database")
	f.StringVar(&app.currency, "currency", cfg.Accounting.ReportingCurrency, "Reporting currency")
	f.StringVar(&app.costBasis, "cost-basis", cfg.Accounting.CostBasis.String(), "Cost basis method: average or fifo")
	f.StringVar(&app.riskFree, "risk-free", cfg.Accounting.RiskFreeRate.String(), "Annual risk-free rate used by the Sharpe ratio")
	f.StringVar(&app.quotesFile, "quotes", cfg.Quotes.File, "Optional JSON document with the latest quotes")
	f.StringVar(&app.quotesPath, "quotes-path", cfg.Quotes.Path, "JSONPath selecting the quote objects in the quotes document")
	f.BoolVar(&app.fractional, "fractional", cfg.Accounting.FractionalShares, "Allow fractional shares in position sizing")
	f.BoolVar(&app.raw, "raw", false, "Print reports as raw markdown")
	app.log = cfg.Log
}

func newLogger() zerolog.Logger { return logger.New(app.log) }

// openStore opens the ledger database.
func openStore(ctx context.Context) (*sqlstore.Store, error) {
	return sqlstore.Open(ctx, sqlstore.Config{Path: app.dbPath, Log: newLogger()})
}

// openSystem opens the ledger database and builds the accounting system on
// top of it. The caller closes the store.
func openSystem(ctx context.Context) (*sqlstore.Store, *stockledger.AccountingSystem, error) {
	store, err := openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	as, err := newAccountingSystem(ctx, store)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return store, as, nil
}

func newAccountingSystem(ctx context.Context, store *sqlstore.Store) (*stockledger.AccountingSystem, error) {
	market, err := store.LoadMarketData(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not load market data: %w", err)
	}
	if app.quotesFile != "" {
		qs, err := quotes.LoadFile(app.quotesFile, app.quotesPath, "")
		if err != nil {
			return nil, fmt.Errorf("could not load quotes: %w", err)
		}
		quotes.Apply(market, qs)
	}

	as, err := stockledger.NewAccountingSystem(store, market, app.currency)
	if err != nil {
		return nil, err
	}
	if as.Method, err = stockledger.ParseCostBasisMethod(app.costBasis); err != nil {
		return nil, err
	}
	if as.RiskFreeRate, err = decimal.NewFromString(app.riskFree); err != nil {
		return nil, fmt.Errorf("invalid risk-free rate %q: %w", app.riskFree, err)
	}
	as.Log = newLogger()
	return as, nil
}

// printMarkdown renders md on the terminal, or prints it as is with -raw.
func printMarkdown(md string) {
	if app.raw {
		fmt.Fprint(stdout, md)
		return
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(120),
	)
	if err != nil {
		fmt.Fprint(stdout, md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Fprint(stdout, md)
		return
	}
	fmt.Fprint(stdout, out)
}

// parseDecimal parses an optional decimal flag value.
func parseDecimal(name, s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid -%s %q: %w", name, s, err)
	}
	return d, nil
}
