// Command sl records stock transactions and reports on the portfolio.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path"

	"github.com/google/subcommands"

	"github.com/etnz/stockledger/cmd"
	"github.com/etnz/stockledger/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(int(subcommands.ExitUsageError))
	}

	name := path.Base(os.Args[0])
	commander := subcommands.NewCommander(flag.CommandLine, name)
	cmd.Register(commander, flag.CommandLine, cfg)

	// exits when invoked by the shell for completion.
	cmd.Completion(commander, flag.CommandLine).Complete(name)

	flag.Parse()

	if sub := flag.Arg(0); sub != "" && !cmd.IsRegistered(commander, sub) {
		if ok, code := cmd.RunExtension(sub, flag.Args()[1:]); ok {
			os.Exit(code)
		}
	}
	os.Exit(int(commander.Execute(context.Background())))
}
