// Package main is the entry point for the berrysync CLI.
package main

import (
	"os"

	"github.com/berrywallet/berrysync/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
