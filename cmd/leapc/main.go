// Package main is the entry point for the leapc CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/leapc/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
