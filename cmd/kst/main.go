// Package main is the entry point for the kst CLI tool.
package main

import (
	"os"

	"github.com/aidanlsb/kestrel/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
