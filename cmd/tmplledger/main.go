// Command tmplledger manages versioned template documents.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/tmplledger/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		// Commands report their own failures through the output formatter;
		// only argument and flag errors from cobra reach here unprinted.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(cli.ExitCommandError)
		}
		os.Exit(exitErr.Code)
	}
}
