package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"github.com/google/subcommands"
)

// Environment of the sl-<subcommand> extensions, set from the global flags.
const (
	EnvDBPath            = "STOCKLEDGER_DB_PATH"
	EnvReportingCurrency = "STOCKLEDGER_REPORTING_CURRENCY"
	EnvCostBasis         = "STOCKLEDGER_COST_BASIS"
	EnvQuotesFile        = "STOCKLEDGER_QUOTES_FILE"
	EnvRaw               = "STOCKLEDGER_RAW"
)

// IsRegistered reports whether name is a subcommand of c.
func IsRegistered(c *subcommands.Commander, name string) bool {
	found := false
	c.VisitCommands(func(_ *subcommands.CommandGroup, cmd subcommands.Command) {
		if cmd.Name() == name {
			found = true
		}
	})
	return found
}

// RunExtension attempts to find and execute an external sl-<subcommand> binary.
// It returns (true, exitCode) if an extension was found and executed,
// and (false, 0) if no extension was found or executed.
func RunExtension(subcommand string, args []string) (bool, int) {
	externalCmdName := "sl-" + subcommand

	lp, err := exec.LookPath(externalCmdName)
	if err != nil {
		return false, 0
	}

	cmd := exec.Command(lp, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = stdout
	cmd.Stderr = os.Stderr

	// Pass global flags as environment variables
	cmd.Env = append(os.Environ(),
		EnvDBPath+"="+app.dbPath,
		EnvReportingCurrency+"="+app.currency,
		EnvCostBasis+"="+app.costBasis,
		EnvQuotesFile+"="+app.quotesFile,
		EnvRaw+"="+strconv.FormatBool(app.raw),
	)

	if err := cmd.Run(); err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			return true, exitError.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "Error executing external command %q: %v\n", externalCmdName, err)
		return true, 1
	}
	return true, 0
}
