package main

import (
	"context"
	"os"

	clilib "github.com/cryptusers/cryptusers/internal/cli"
)

// GlobalOptions holds the global configuration flags
type GlobalOptions struct {
	ConfigPath string
	RepoDir    string
	Silent     bool
}

// globalOpts is the shared global options instance
var globalOpts = &GlobalOptions{}

// createCLI creates a CLI instance for the repository selected by -C
func createCLI(ctx context.Context, jsonOutput bool) *clilib.CLI {
	cli, err := clilib.NewCLI(ctx, clilib.Options{
		ConfigPath: globalOpts.ConfigPath,
		RepoDir:    globalOpts.RepoDir,
		Silent:     globalOpts.Silent,
		JSON:       jsonOutput,
	}, os.Stdout, os.Stderr)
	if err != nil {
		exitWithError(err)
	}
	return cli
}

// exitWithError prints an error and exits with the appropriate code
func exitWithError(err *clilib.Error) {
	if err != nil {
		os.Exit(clilib.PrintError(os.Stderr, err).Int())
	}
}
