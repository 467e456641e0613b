package main

import (
	"fmt"
	"os"

	"github.com/trebuchet-org/profile-factory/internal/cli"
	"github.com/trebuchet-org/profile-factory/internal/cli/render"
	"github.com/trebuchet-org/profile-factory/internal/config"
)

// Set with -ldflags "-X main.version=..."
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	config.SetBuildFlags(version, commit, date)

	rootCmd := cli.NewRootCmd()
	rootCmd.SilenceErrors = true
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, render.FormatError(err))
		os.Exit(1)
	}
}
