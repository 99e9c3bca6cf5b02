package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"

	"github.com/etnz/stockledger/docs"
)

// Completion returns the shell completion tree of the commands registered in
// c, with top the global flags.
func Completion(c *subcommands.Commander, top *flag.FlagSet) *complete.Command {
	root := &complete.Command{
		Sub:   make(map[string]*complete.Command),
		Flags: flagPredictors("", top),
	}
	c.VisitCommands(func(_ *subcommands.CommandGroup, sub subcommands.Command) {
		f := flag.NewFlagSet(sub.Name(), flag.ContinueOnError)
		sub.SetFlags(f)
		root.Sub[sub.Name()] = &complete.Command{
			Flags: flagPredictors(sub.Name(), f),
			Args:  argsPredictor(sub.Name()),
		}
	})
	return root
}

var (
	periods     = predict.Set{"day", "week", "month", "quarter", "year"}
	assetTypes  = predict.Set{"stock", "etf", "crypto", "commodity"}
	costMethods = predict.Set{"average", "fifo"}
)

func flagPredictors(command string, f *flag.FlagSet) map[string]complete.Predictor {
	flags := make(map[string]complete.Predictor)
	f.VisitAll(func(fl *flag.Flag) {
		var p complete.Predictor = predict.Something
		switch {
		case fl.Name == "db":
			p = predict.Files("*.db")
		case fl.Name == "quotes":
			p = predict.Files("*.json")
		case fl.Name == "o":
			p = predict.Files("*")
		case fl.Name == "cost-basis":
			p = costMethods
		case fl.Name == "t" && command == "add-asset":
			p = assetTypes
		case fl.Name == "p" && (command == "tx" || command == "performance"):
			p = periods
		}
		if isBool(fl) {
			p = predict.Nothing
		}
		flags[fl.Name] = p
	})
	return flags
}

func isBool(fl *flag.Flag) bool {
	b, ok := fl.Value.(interface{ IsBoolFlag() bool })
	return ok && b.IsBoolFlag()
}

func argsPredictor(command string) complete.Predictor {
	switch command {
	case "import":
		return predict.Files("*.jsonl")
	case "import-prices":
		return predict.Files("*.json")
	case "watchlist":
		return predict.Set(watchlistActions)
	case "topic":
		topics, _ := docs.Topics()
		return predict.Set(topics)
	}
	return nil
}

type completionCmd struct{}

func (*completionCmd) Name() string     { return "completion" }
func (*completionCmd) Synopsis() string { return "install shell completion" }
func (*completionCmd) Usage() string {
	return `sl completion

  Prints how to install the shell completion of sl.
`
}

func (*completionCmd) SetFlags(f *flag.FlagSet) {}

func (*completionCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	fmt.Fprintln(stdout, `Shell completion is served by the sl binary itself. To install it in bash, zsh or fish run:

  COMP_INSTALL=1 sl

and to remove it:

  COMP_UNINSTALL=1 sl`)
	return subcommands.ExitSuccess
}
