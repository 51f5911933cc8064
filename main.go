package main

import (
	"os"

	"cppsema/cmd"
)

// Version information (injected at build time)
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cmd.SetVersionInfo(version, commit, date)

	// Execute prints its own errors.
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
