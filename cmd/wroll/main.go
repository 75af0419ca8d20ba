// Package main is the entry point for the wroll CLI tool.
package main

import (
	"os"

	"github.com/aidanlsb/wikiroll/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
