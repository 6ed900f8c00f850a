// Command schedkit models, validates, solves and exports CUE
// scheduling instances.
package main

import (
	"os"

	"github.com/sohaibafifi/schedkit/internal/cli"
)

func main() {
	// Commands handle their own error output; here only the exit code
	// remains to be mapped.
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(cli.GetExitCode(err))
	}
}
