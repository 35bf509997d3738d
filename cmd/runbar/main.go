// Package main is the entry point for runbar.
package main

import (
	"os"

	"github.com/runbar-app/runbar/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
