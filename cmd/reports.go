package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"github.com/etnz/stockledger"
	"github.com/etnz/stockledger/date"
	"github.com/etnz/stockledger/renderer"
	"github.com/etnz/stockledger/sqlstore"
)

// parseDay parses an optional report date, the empty string is the zero date.
func parseDay(s string) (date.Date, error) {
	if s == "" {
		return date.Date{}, nil
	}
	return date.Parse(s)
}

// holdingsCmd holds the flags for the 'holdings' subcommand.
type holdingsCmd struct {
	date   string
	closed bool
}

func (*holdingsCmd) Name() string     { return "holdings" }
func (*holdingsCmd) Synopsis() string { return "display the cost basis of every position" }
func (*holdingsCmd) Usage() string {
	return `sl holdings [-d <date>] [-closed] [-cost-basis average|fifo]

  Displays the quantity, cost basis and realized gains of every position at
  the end of a day, as of now by default. With the fifo method the open lots
  are listed too.
`
}

func (c *holdingsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "Date of the report, defaults to now")
	f.BoolVar(&c.closed, "closed", false, "Also list the positions sold out")
}

func (c *holdingsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, err := parseDay(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}

	store, as, err := openSystem(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	defer store.Close()

	holdings, err := as.Holdings(ctx, on)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing holdings: %v\n", err)
		return subcommands.ExitFailure
	}
	if on.IsZero() {
		on = date.Today()
	}
	printMarkdown(renderer.RenderHoldings(renderer.HoldingsView{
		Date:     on,
		Method:   as.Method,
		Holdings: holdings,
		Closed:   c.closed,
	}))
	return subcommands.ExitSuccess
}

type valueCmd struct {
	date     string
	currency string
}

func (*valueCmd) Name() string     { return "value" }
func (*valueCmd) Synopsis() string { return "value the portfolio in the reporting currency" }
func (*valueCmd) Usage() string {
	return `sl value [-d <date>] [-c <currency>]

  Values every position and cash account. Without -d the current prices are
  used, otherwise the last close on or before the date. Positions without a
  price and amounts without an exchange rate are reported as warnings and
  left out of the totals.
`
}

func (c *valueCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "Date of the valuation, defaults to now")
	f.StringVar(&c.currency, "c", "", "Reporting currency, defaults to -currency")
}

func (c *valueCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, err := parseDay(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}

	store, as, err := openSystem(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	defer store.Close()

	v, err := as.PortfolioValue(ctx, c.currency, on)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error valuing portfolio: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.RenderValuation(v))
	return subcommands.ExitSuccess
}

type performanceCmd struct {
	period string
	start  string
	date   string
	full   bool
	series bool
}

func (*performanceCmd) Name() string     { return "performance" }
func (*performanceCmd) Synopsis() string { return "compute return and risk statistics over a range" }
func (*performanceCmd) Usage() string {
	return `sl performance [-p <period> [-full] | -s <start_date>] [-d <end_date>] [-series]

  Values the portfolio every day of the range and computes the total and
  annualized return, the CAGR, the Sharpe ratio on daily returns and the
  maximum drawdown. The default range is the month to date.
`
}

func (c *performanceCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.period, "p", "", "Predefined period to date (day, week, month, quarter, year).")
	f.StringVar(&c.start, "s", "", "The start date for a custom range. Overrides -p.")
	f.StringVar(&c.date, "d", "", "The end date for the range, defaults to today.")
	f.BoolVar(&c.full, "full", false, "Use the whole period containing the end date.")
	f.BoolVar(&c.series, "series", false, "Also print the daily values")
}

func (c *performanceCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	r, err := parseRange(c.period, c.start, c.date, c.full)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	store, as, err := openSystem(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	defer store.Close()

	rep, err := as.Performance(ctx, r)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing performance: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.RenderPerformance(rep, renderer.PerformanceRenderOptions{Series: c.series}))
	return subcommands.ExitSuccess
}

type snapshotCmd struct {
	date string
	show bool
}

func (*snapshotCmd) Name() string     { return "snapshot" }
func (*snapshotCmd) Synopsis() string { return "compute and save the portfolio snapshot of a day" }
func (*snapshotCmd) Usage() string {
	return `sl snapshot [-d <date>] [-show]

  Computes the end of day snapshot of the portfolio (total value, cash, gains
  and daily change) and saves it in the database, replacing the previous
  snapshot of that day. With -show the saved snapshot is only printed.
`
}

func (c *snapshotCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", date.Today().String(), "Date of the snapshot")
	f.BoolVar(&c.show, "show", false, "Print the saved snapshot instead of computing it")
}

func (c *snapshotCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, err := date.Parse(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}

	store, as, err := openSystem(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	defer store.Close()

	if c.show {
		snap, err := store.Snapshot(ctx, on)
		if errors.Is(err, sqlstore.ErrNotFound) {
			fmt.Fprintf(os.Stderr, "No snapshot saved on %s\n", on)
			return subcommands.ExitFailure
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading snapshot: %v\n", err)
			return subcommands.ExitFailure
		}
		printMarkdown(renderer.RenderSnapshot(snap))
		return subcommands.ExitSuccess
	}

	snap, err := as.NewSnapshot(ctx, on)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing snapshot: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := store.SaveSnapshot(ctx, snap); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving snapshot: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.RenderSnapshot(snap))
	return subcommands.ExitSuccess
}

type sizeCmd struct {
	value  string
	risk   string
	entry  string
	stop   string
	places int
}

func (*sizeCmd) Name() string     { return "size" }
func (*sizeCmd) Synopsis() string { return "suggest a position size from a risk budget" }
func (*sizeCmd) Usage() string {
	return `sl size -e <entry> -stop <stop> [-r <risk>] [-v <portfolio value>]

  Suggests how many shares to buy so that hitting the stop loss costs at most
  the risk fraction of the portfolio value. The value defaults to the current
  value of the portfolio. Shares are whole unless -fractional is set.
`
}

func (c *sizeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.value, "v", "", "Portfolio value, defaults to the current valuation")
	f.StringVar(&c.risk, "r", "0.02", "Fraction of the portfolio value at risk, in (0, 1]")
	f.StringVar(&c.entry, "e", "", "Entry price")
	f.StringVar(&c.stop, "stop", "", "Stop loss price")
	f.IntVar(&c.places, "places", 4, "Decimals of fractional shares")
}

func (c *sizeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var in [3]decimal.Decimal
	for i, v := range []struct{ name, value string }{
		{"r", c.risk},
		{"e", c.entry},
		{"stop", c.stop},
	} {
		if v.value == "" {
			fmt.Fprintf(os.Stderr, "Error: -%s is required\n", v.name)
			return subcommands.ExitUsageError
		}
		var err error
		if in[i], err = parseDecimal(v.name, v.value); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitUsageError
		}
	}
	risk, entry, stop := in[0], in[1], in[2]

	value, err := c.portfolioValue(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	var shares fmt.Stringer
	if app.fractional {
		n, err := stockledger.FractionalPositionSize(value.Decimal(), risk, entry, stop, int32(c.places))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitUsageError
		}
		shares = n
	} else {
		n, err := stockledger.PositionSize(value.Decimal(), risk, entry, stop)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitUsageError
		}
		shares = decimal.NewFromInt(n)
	}
	cur := value.Currency()
	printMarkdown(renderer.PositionSizeMarkdown(
		value,
		stockledger.FromFraction(risk),
		stockledger.M(entry, cur),
		stockledger.M(stop, cur),
		shares,
	))
	return subcommands.ExitSuccess
}

// portfolioValue returns -v, or the current total value of the portfolio.
func (c *sizeCmd) portfolioValue(ctx context.Context) (stockledger.Money, error) {
	if c.value != "" {
		return stockledger.ParseMoney(c.value, app.currency)
	}
	store, as, err := openSystem(ctx)
	if err != nil {
		return stockledger.Money{}, err
	}
	defer store.Close()
	v, err := as.PortfolioValue(ctx, "", date.Date{})
	if err != nil {
		return stockledger.Money{}, err
	}
	return v.TotalValue, nil
}
