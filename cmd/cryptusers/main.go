//go:build !gendocs

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	clilib "github.com/cryptusers/cryptusers/internal/cli"
)

// main runs the CLI
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n\n", err)
		_ = rootCmd.Help()
		stop()
		os.Exit(clilib.ExitGeneralError.Int())
	}
}
