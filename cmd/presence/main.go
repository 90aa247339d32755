// Command presence keeps a Discord rich presence in sync with a local
// activity snapshot.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/presence/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
