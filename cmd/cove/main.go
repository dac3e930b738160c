// Command cove evolves cliff-top polylines under wave-driven retreat.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/cove/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
