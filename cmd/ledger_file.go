package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"github.com/etnz/stockledger"
)

type exportCmd struct {
	output string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "write the ledger in the canonical JSONL format" }
func (*exportCmd) Usage() string {
	return `sl export [-o <file>]

  Writes every transaction of the ledger, one JSON object per line, in
  ledger order. Decimal values keep all their digits. The output can be
  read back with 'sl import'.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "", "Output file, defaults to stdout")
}

func (c *exportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	store, err := openStore(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	defer store.Close()

	txs, err := store.Transactions(ctx, stockledger.Filter{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading ledger: %v\n", err)
		return subcommands.ExitFailure
	}

	var w io.Writer = stdout
	if c.output != "" {
		file, err := os.Create(c.output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating %q: %v\n", c.output, err)
			return subcommands.ExitFailure
		}
		defer file.Close()
		w = file
	}
	if err := stockledger.EncodeTransactions(w, txs); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	if c.output != "" {
		fmt.Fprintf(os.Stderr, "Exported %d transactions to %s\n", len(txs), c.output)
	}
	return subcommands.ExitSuccess
}

type importCmd struct {
	dryRun bool
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "record the transactions of a JSONL file" }
func (*importCmd) Usage() string {
	return `sl import [-n] <file>

  Reads transactions in the JSONL format written by 'sl export' and records
  them in ledger order. Every transaction is validated against the holdings
  and cash at its time: the import stops at the first rejected one, the
  transactions before it stay recorded.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.dryRun, "n", false, "Only decode and validate the file")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: expecting exactly one file to import.")
		return subcommands.ExitUsageError
	}
	name := f.Arg(0)
	file, err := os.Open(name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening %q: %v\n", name, err)
		return subcommands.ExitFailure
	}
	defer file.Close()

	txs, err := stockledger.DecodeTransactions(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error decoding %q: %v\n", name, err)
		return subcommands.ExitFailure
	}
	if c.dryRun {
		fmt.Fprintf(stdout, "%d valid transactions in %s\n", len(txs), name)
		return subcommands.ExitSuccess
	}

	store, as, err := openSystem(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	defer store.Close()

	for i, tx := range txs {
		if _, err := as.Record(ctx, tx); err != nil {
			fmt.Fprintf(os.Stderr, "Error recording transaction %d of %d: %v\n", i+1, len(txs), err)
			return subcommands.ExitFailure
		}
	}
	fmt.Fprintf(stdout, "Imported %d transactions from %s\n", len(txs), name)
	return subcommands.ExitSuccess
}
