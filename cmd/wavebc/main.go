// Command wavebc prepares offshore wave boundary conditions from station data.
package main

import (
	"fmt"
	"os"

	"go.ngs.io/wave-boundary/internal/cli"
)

func main() {
	if err := cli.NewRoot().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
