package main

import (
	"os"

	"github.com/quarry-labs/quarry/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
