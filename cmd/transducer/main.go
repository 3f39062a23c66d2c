package main

import (
	"os"

	"github.com/amp-labs/amp-transducer/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
