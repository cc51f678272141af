// Package main is the entry point for the steeze-bearer binary.
package main

import (
	"os"

	"github.com/joeydtaylor/steeze-bearer/cmd/steeze-bearer/cmd"
)

// Build-time variables set via ldflags.
var version = "dev"

func main() {
	if err := cmd.NewRootCmd(version).Execute(); err != nil {
		os.Exit(1)
	}
}
