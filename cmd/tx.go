package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/etnz/stockledger"
	"github.com/etnz/stockledger/date"
	"github.com/etnz/stockledger/renderer"
)

type txCmd struct {
	period string
	start  string
	date   string
	full   bool
	symbol string
	head   int
	tail   int
}

func (*txCmd) Name() string     { return "tx" }
func (*txCmd) Synopsis() string { return "list the transactions in the ledger" }
func (*txCmd) Usage() string {
	return `sl tx [-p <period> [-full] | -s <start_date>] [-d <end_date>] [-symbol <symbol>] [-head <n>] [-tail <n>]

  Lists transactions from the ledger, with options for filtering and limiting the output.
`
}

func (p *txCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.period, "p", "", "Predefined period (day, week, month, quarter, year).")
	f.StringVar(&p.start, "s", "", "The start date for a custom range. Overrides -p.")
	f.StringVar(&p.date, "d", "", "The end date for the range.")
	f.BoolVar(&p.full, "full", false, "Use the whole period containing the end date, not the period to date.")
	f.StringVar(&p.symbol, "symbol", "", "Only list the transactions of this asset.")
	f.IntVar(&p.head, "head", 0, "Show only the first N transactions.")
	f.IntVar(&p.tail, "tail", 0, "Show only the last N transactions.")
}

func (p *txCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if p.head > 0 && p.tail > 0 {
		fmt.Fprintln(os.Stderr, "Error: -head and -tail flags cannot be used together.")
		return subcommands.ExitUsageError
	}

	filter := stockledger.Filter{Symbol: p.symbol}
	if p.start != "" || p.date != "" || p.period != "" {
		r, err := parseRange(p.period, p.start, p.date, p.full)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitUsageError
		}
		filter.Since, filter.Until = r.From.Time(), r.To.EndOfDay()
	}

	store, err := openStore(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	defer store.Close()

	txs, err := store.Transactions(ctx, filter)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if p.head > 0 && len(txs) > p.head {
		txs = txs[:p.head]
	}
	if p.tail > 0 && len(txs) > p.tail {
		txs = txs[len(txs)-p.tail:]
	}

	printMarkdown(renderer.RenderTransactions(txs))
	return subcommands.ExitSuccess
}

// parseRange builds a range from the usual report flags: a start date
// overrides the period, the end date defaults to today and the period to
// the month. The range stops at the end date unless full is set, then it
// covers the whole period.
func parseRange(period, start, end string, full bool) (date.Range, error) {
	to := date.Today()
	if end != "" {
		var err error
		if to, err = date.Parse(end); err != nil {
			return date.Range{}, err
		}
	}
	if start != "" {
		from, err := date.Parse(start)
		if err != nil {
			return date.Range{}, err
		}
		r := date.Range{From: from, To: to}
		return r, r.Validate()
	}
	if period == "" {
		period = "month"
	}
	p, err := date.ParsePeriod(period)
	if err != nil {
		return date.Range{}, err
	}
	if full {
		return date.NewRange(to, p), nil
	}
	return date.ToDate(to, p), nil
}
